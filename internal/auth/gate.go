package auth

import (
	"crypto/subtle"

	"github.com/jobtracker/apiserver/types"
)

// Authenticate decides whether a request carrying presented may proceed
// under session. It never mutates the session.
//
// The presented token must first equal the session's stored token, which
// rejects stale tokens that would still verify, and only then is it
// verified against the session's own signature.
func Authenticate(session types.SessionData, presented string) (*Claims, error) {
	if session.Profile == nil || session.Signature == "" || presented == "" {
		return nil, denied("missing session or token")
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(session.Token)) != 1 {
		return nil, denied("token does not match session")
	}

	claims, err := ParseToken(presented, session.Signature)
	if err != nil {
		return nil, denied("token verification failed")
	}

	return claims, nil
}
