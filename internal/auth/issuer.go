package auth

import (
	"time"

	"github.com/jobtracker/apiserver/types"
	"github.com/samber/oops"
)

// Grant is the result of a sign-in or a token reissue: everything that
// must be written to the session together.
type Grant struct {
	Profile   types.PublicProfile
	Signature string
	Token     string
}

// SessionData returns the session state that binds this grant.
func (g Grant) SessionData() types.SessionData {
	profile := g.Profile
	return types.SessionData{
		Profile:   &profile,
		Signature: g.Signature,
		Token:     g.Token,
	}
}

// Issuer mints session signatures and signs tokens with them.
type Issuer struct {
	ttl          time.Duration
	now          func() time.Time
	newSignature func() (string, error)
}

// NewIssuer constructs an Issuer. A zero ttl issues tokens with no exp
// claim.
func NewIssuer(ttl time.Duration) *Issuer {
	return &Issuer{
		ttl:          ttl,
		now:          time.Now,
		newSignature: NewSignature,
	}
}

// Issue mints a new signature for profile and signs its public projection.
func (i *Issuer) Issue(profile types.Profile) (Grant, error) {
	signature, err := i.newSignature()
	if err != nil {
		return Grant{}, err
	}

	public := profile.Public()
	now := i.now()
	var expiresAt time.Time
	if i.ttl > 0 {
		expiresAt = now.Add(i.ttl)
	}

	token, err := SignToken(newClaims(public, now, expiresAt), signature)
	if err != nil {
		return Grant{}, oops.Code("AUTH_TOKEN_SIGN_FAILED").
			With("profile_id", profile.ID).
			Wrap(err)
	}

	return Grant{Profile: public, Signature: signature, Token: token}, nil
}

// Reissue re-signs the session's token with updated profile fields under
// the same signature. The current token must still verify against the
// session signature; otherwise ErrInvalidToken is returned and nothing is
// minted. The original exp claim is carried over unchanged.
func (i *Issuer) Reissue(current types.SessionData, updated types.PublicProfile) (Grant, error) {
	if current.Signature == "" || current.Token == "" {
		return Grant{}, ErrInvalidToken
	}

	claims, err := ParseToken(current.Token, current.Signature)
	if err != nil {
		return Grant{}, ErrInvalidToken
	}
	if claims.Auth.ID != updated.ID {
		return Grant{}, ErrInvalidToken
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	token, err := SignToken(newClaims(updated, i.now(), expiresAt), current.Signature)
	if err != nil {
		return Grant{}, oops.Code("AUTH_TOKEN_SIGN_FAILED").
			With("profile_id", updated.ID).
			Wrap(err)
	}

	return Grant{Profile: updated, Signature: current.Signature, Token: token}, nil
}
