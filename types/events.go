package types

import "time"

// ProfileSignedUpTopic is the channel sign-up events are published to.
const ProfileSignedUpTopic = "profile.signed_up"

// ProfileSignedUp is emitted after a profile is created so an external
// mailer can deliver the activation link.
type ProfileSignedUp struct {
	ProfileID      string    `json:"profileId"`
	Email          string    `json:"profileEmail"`
	Username       string    `json:"profileUsername"`
	ActivationLink string    `json:"activationLink"`
	OccurredAt     time.Time `json:"occurredAt"`
}
