package types

import "time"

// Profile is the persisted account record. It carries credentials and
// must never be written to a response, a session, or a token payload;
// use Public for that.
type Profile struct {
	// ID is a time-ordered UUID assigned at sign-up.
	ID string `db:"profile_id"`

	// ActivationToken is a 32 character one-time value. A non-nil token
	// means the account has not been activated and cannot sign in.
	ActivationToken *string `db:"profile_activation_token"`

	CreatedAt *time.Time `db:"profile_created_at"`

	// Email is unique across profiles.
	Email string `db:"profile_email"`

	Location *string `db:"profile_location"`

	// PasswordHash is an argon2id hash in PHC string form.
	PasswordHash string `db:"profile_password_hash"`

	ResumeURL *string `db:"profile_resume_url"`

	Username string `db:"profile_username"`
}

// PublicProfile is the projection of a Profile that is safe to expose.
type PublicProfile struct {
	ID        string     `json:"profileId"`
	CreatedAt *time.Time `json:"profileCreatedAt"`
	Email     string     `json:"profileEmail"`
	Location  *string    `json:"profileLocation"`
	ResumeURL *string    `json:"profileResumeUrl"`
	Username  string     `json:"profileUsername"`
}

// Public drops the password hash and activation token.
func (p Profile) Public() PublicProfile {
	return PublicProfile{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
		Email:     p.Email,
		Location:  p.Location,
		ResumeURL: p.ResumeURL,
		Username:  p.Username,
	}
}

// IsActivated reports whether the activation token has been cleared.
func (p Profile) IsActivated() bool {
	return p.ActivationToken == nil
}
