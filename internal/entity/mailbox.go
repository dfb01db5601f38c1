package entity

import (
	"errors"
	"time"
)

const (
	MailboxActive   = "active"
	MailboxPaused   = "paused"
	MailboxDisabled = "disabled"
)

const (
	WarmupStageMin = 1
	WarmupStageMax = 5
)

var ErrMailboxNotFound = errors.New("mailbox not found")

type Mailbox struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	WarmupStage int    `json:"warmup_stage"` // 1..5
	DailyLimit  int    `json:"daily_limit"`
	SentToday   int    `json:"sent_today"`
	HealthScore int    `json:"health_score"` // 0-100
	Status      string `json:"status"`

	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// UsageRatio is today's consumed share of the daily quota. A mailbox with
// no quota is reported as fully used so selection never picks it.
func (m *Mailbox) UsageRatio() float64 {
	if m.DailyLimit <= 0 {
		return 1.0
	}
	return float64(m.SentToday) / float64(m.DailyLimit)
}

func (m *Mailbox) HasCapacity() bool {
	return m.SentToday < m.DailyLimit
}
