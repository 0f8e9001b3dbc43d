package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jobtracker/apiserver/types"
	"github.com/samber/oops"
)

// SignatureBytes is the entropy of a session signature (64 hex chars).
const SignatureBytes = 32

// Claims is the token payload: the public profile under "auth" plus the
// registered iat and, when a lifetime is configured, exp claims.
type Claims struct {
	Auth types.PublicProfile `json:"auth"`
	jwt.RegisteredClaims
}

// NewSignature mints a fresh random per-session signing secret.
func NewSignature() (string, error) {
	buf := make([]byte, SignatureBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("AUTH_SIGNATURE_FAILED").
			With("requested_bytes", SignatureBytes).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

// SignToken signs claims with the session signature as the HMAC key.
func SignToken(claims Claims, signature string) (string, error) {
	if signature == "" {
		return "", errors.New("signature is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(signature))
}

// ParseToken verifies tokenString against signature and returns its claims.
func ParseToken(tokenString, signature string) (*Claims, error) {
	if signature == "" {
		return nil, errors.New("signature is required")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(signature), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Auth.ID == "" {
		return nil, errors.New("missing auth payload")
	}
	return claims, nil
}

func newClaims(profile types.PublicProfile, issuedAt, expiresAt time.Time) Claims {
	claims := Claims{
		Auth: profile,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}
	return claims
}
