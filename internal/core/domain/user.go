package domain

import "time"

const (
	RoleUser     = "user"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// TrustedContact is a person notified when a crisis is detected.
type TrustedContact struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// Account is a UserAccount: identity, safety preferences and the token balance.
// Tokens is only ever changed through the ledger.
type Account struct {
	ID              string           `json:"id"`
	DisplayName     string           `json:"display_name"`
	Email           string           `json:"email"`
	PasswordHash    string           `json:"-"`
	Role            string           `json:"role"`
	Tokens          int64            `json:"tokens"`
	VoiceID         string           `json:"voice_id,omitempty"`
	EmergencyName   string           `json:"emergency_contact_name,omitempty"`
	EmergencyPhone  string           `json:"emergency_contact_phone,omitempty"`
	TrustedContacts []TrustedContact `json:"trusted_contacts"`
	AlertConsent    bool             `json:"alert_consent"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// SafetySettings is the user-editable part of the alerting configuration.
type SafetySettings struct {
	AlertConsent    bool
	TrustedContacts []TrustedContact
	EmergencyName   string
	EmergencyPhone  string
}
