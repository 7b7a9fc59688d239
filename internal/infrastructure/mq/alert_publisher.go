package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// AlertChannel is the queue/topic the external notifier consumes.
const AlertChannel = "crisis-alerts"

// AlertPublisher implements ports.AlertPublisher.
type AlertPublisher struct {
	backend Backend
	channel string
}

func NewAlertPublisher(backend Backend, channel string) *AlertPublisher {
	if channel == "" {
		channel = AlertChannel
	}
	return &AlertPublisher{backend: backend, channel: channel}
}

// AlertMessage is the JSON payload published for each alert.
type AlertMessage struct {
	AlertID      string    `json:"alert_id"`
	UserID       string    `json:"user_id"`
	TriggeredAt  time.Time `json:"triggered_at"`
	Source       string    `json:"source"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
}

func (p *AlertPublisher) PublishAlert(ctx context.Context, a *domain.CrisisAlert) error {
	data, err := json.Marshal(AlertMessage{
		AlertID:      a.ID,
		UserID:       a.UserID,
		TriggeredAt:  a.TriggeredAt.UTC(),
		Source:       string(a.Source),
		ContactName:  a.ContactName,
		ContactEmail: a.ContactEmail,
		ContactPhone: a.ContactPhone,
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	attrs := map[string]string{"type": "crisis_alert", "source": string(a.Source)}
	if _, err := p.backend.Publish(ctx, p.channel, data, attrs); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// DecodeAlert parses a message published by AlertPublisher.
func DecodeAlert(msg Message) (AlertMessage, error) {
	var m AlertMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		return AlertMessage{}, fmt.Errorf("decode alert: %w", err)
	}
	return m, nil
}
