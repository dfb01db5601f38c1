package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

const (
	EmailStatusSent    = "sent"
	EmailStatusBounced = "bounced"
	EmailStatusFailed  = "failed"
)

// Email is one send record. Inserted exactly once per dispatch that reached
// the transport with a terminal outcome; never mutated afterwards by the
// engine (bounce processing rewrites status externally).
type Email struct {
	ID         string `json:"id"`
	ProspectID string `json:"prospect_id"`
	CampaignID string `json:"campaign_id"`
	FromEmail  string `json:"from_email"`
	ToEmail    string `json:"to_email"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Direction  string `json:"direction"`
	Status     string `json:"status"`
	MessageID  string `json:"message_id,omitempty"`

	SentAt    time.Time `json:"sent_at"`
	CreatedAt time.Time `json:"created_at"`
}

func NewOutboundEmail(prospectID, campaignID, from, to, subject, body string) *Email {
	now := time.Now()
	return &Email{
		ID:         uuid.New().String(),
		ProspectID: prospectID,
		CampaignID: campaignID,
		FromEmail:  from,
		ToEmail:    to,
		Subject:    subject,
		Body:       body,
		Direction:  DirectionOutbound,
		Status:     EmailStatusSent,
		SentAt:     now,
		CreatedAt:  now,
	}
}

// Activity is the audit entry written alongside every send record.
type Activity struct {
	ID         string    `json:"id"`
	ProspectID string    `json:"prospect_id"`
	Kind       string    `json:"kind"` // email_sent, email_failed
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewActivity(prospectID, kind, detail string) *Activity {
	return &Activity{
		ID:         uuid.New().String(),
		ProspectID: prospectID,
		Kind:       kind,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
}
