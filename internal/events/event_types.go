package events

import (
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
)

// Bus topics carrying identity events to downstream consumers.
const (
	TopicEmailEvents       = "email-events"
	TopicUserSendingEvents = "user-sending-events"
)

// RequestType tags the kind of email a consumer should send.
type RequestType string

const (
	RequestNotExistingUser      RequestType = "NOT_EXISTING_USER"
	RequestAlreadyActivatedUser RequestType = "ALREADY_ACTIVATED_USER"
	RequestResetPassword        RequestType = "RESET_PASSWORD"
)

// EmailEvent is the email-events payload. Token is nil for post-activation
// thank-you notices.
type EmailEvent struct {
	Email       string      `json:"email"`
	Token       *string     `json:"token"`
	RequestType RequestType `json:"requestType"`
}

// IdentitySnapshot is the user-sending-events payload replicated to the
// downstream profile store.
type IdentitySnapshot struct {
	UserID               string        `json:"userId"`
	Email                string        `json:"email"`
	FirstName            string        `json:"firstName"`
	LastName             string        `json:"lastName"`
	IdentificationNumber string        `json:"identificationNumber,omitempty"`
	BirthDate            *time.Time    `json:"birthDate,omitempty"`
	Gender               domain.Gender `json:"gender,omitempty"`
	Role                 domain.Role   `json:"role"`
	Active               bool          `json:"isActive"`
	CreationDate         time.Time     `json:"creationDate"`
}

// SnapshotOf builds the replica payload for an identity.
func SnapshotOf(identity *domain.Identity) IdentitySnapshot {
	return IdentitySnapshot{
		UserID:               identity.ID,
		Email:                identity.Email,
		FirstName:            identity.FirstName,
		LastName:             identity.LastName,
		IdentificationNumber: identity.IdentificationNumber,
		BirthDate:            identity.BirthDate,
		Gender:               identity.Gender,
		Role:                 identity.Role,
		Active:               identity.Active,
		CreationDate:         identity.CreatedAt,
	}
}
