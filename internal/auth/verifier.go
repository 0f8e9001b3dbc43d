package auth

import (
	"context"
	"errors"

	"github.com/jobtracker/apiserver/internal/store"
	"github.com/jobtracker/apiserver/types"
	"github.com/samber/oops"
)

// dummyPasswordHash is verified against when the email is unknown so both
// failure paths spend the same time hashing. It matches no password.
//
//nolint:gosec // G101: not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=3,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// ProfileFinder looks up profile records by email. Implementations return
// store.ErrNotFound when no profile matches.
type ProfileFinder interface {
	FindByEmail(ctx context.Context, email string) (types.Profile, error)
}

// Verifier checks an email/password pair against the stored profile.
type Verifier struct {
	profiles ProfileFinder
	hasher   PasswordHasher
}

func NewVerifier(profiles ProfileFinder, hasher PasswordHasher) *Verifier {
	return &Verifier{profiles: profiles, hasher: hasher}
}

// Verify returns the profile when the password matches and the account is
// activated. Unknown email and wrong password both yield
// ErrInvalidCredentials; a correct password on an unactivated account
// yields ErrNotActivated.
func (v *Verifier) Verify(ctx context.Context, email, password string) (types.Profile, error) {
	profile, err := v.profiles.FindByEmail(ctx, email)
	found := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return types.Profile{}, oops.Code("AUTH_SIGNIN_FAILED").
			With("operation", "find profile by email").
			Wrap(err)
	}

	hash := dummyPasswordHash
	if found {
		hash = profile.PasswordHash
	}

	ok, err := v.hasher.Verify(password, hash)
	if err != nil {
		if !found {
			return types.Profile{}, ErrInvalidCredentials
		}
		return types.Profile{}, oops.Code("AUTH_SIGNIN_FAILED").
			With("operation", "verify password").
			With("profile_id", profile.ID).
			Wrap(err)
	}
	if !found || !ok {
		return types.Profile{}, ErrInvalidCredentials
	}

	if !profile.IsActivated() {
		return types.Profile{}, ErrNotActivated
	}

	return profile, nil
}
