package auth

import (
	"context"

	"github.com/jobtracker/apiserver/types"
)

// Service composes the credential verifier and the token issuer.
type Service struct {
	verifier *Verifier
	issuer   *Issuer
}

func NewService(verifier *Verifier, issuer *Issuer) *Service {
	return &Service{verifier: verifier, issuer: issuer}
}

// SignIn verifies the credentials and issues a new session grant.
func (s *Service) SignIn(ctx context.Context, email, password string) (Grant, error) {
	profile, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return Grant{}, err
	}
	return s.issuer.Issue(profile)
}

// Reissue re-signs the session token after a profile update.
func (s *Service) Reissue(current types.SessionData, updated types.PublicProfile) (Grant, error) {
	return s.issuer.Reissue(current, updated)
}
