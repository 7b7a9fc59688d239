package domain

import "time"

// AlertStatus is the delivery state of a CrisisAlert.
type AlertStatus string

const (
	AlertPending AlertStatus = "pending"
	AlertSent    AlertStatus = "sent"
	AlertFailed  AlertStatus = "failed"
)

// AlertSource records what raised the alert.
type AlertSource string

const (
	AlertSourceClassifier AlertSource = "classifier"
	AlertSourceFailSafe   AlertSource = "fail_safe"
	AlertSourceScreening  AlertSource = "screening"
)

// CrisisAlert is created once per trusted contact per detection and consumed
// by an external notifier.
type CrisisAlert struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	TriggeredAt  time.Time   `json:"triggered_at"`
	Source       AlertSource `json:"source"`
	ContactName  string      `json:"contact_name"`
	ContactEmail string      `json:"contact_email"`
	ContactPhone string      `json:"contact_phone,omitempty"`
	Status       AlertStatus `json:"status"`
}
