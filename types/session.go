package types

// SessionData is the server-side state bound to one session cookie.
// Sign-in populates all three fields together; sign-out clears them.
type SessionData struct {
	Profile *PublicProfile `json:"profile,omitempty"`

	// Signature is the random per-session secret that signs Token.
	Signature string `json:"signature,omitempty"`

	// Token is the most recently issued token for this session.
	Token string `json:"token,omitempty"`
}

// Empty reports whether nothing has been stored in the session.
func (s SessionData) Empty() bool {
	return s.Profile == nil && s.Signature == "" && s.Token == ""
}
