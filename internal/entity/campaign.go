package entity

import (
	"errors"
	"time"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type Campaign struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StrategyKey string `json:"strategy_key"`
	Active      bool   `json:"active"`
	DailyLimit  int    `json:"daily_limit"`

	// Cumulative counter, never the daily count. The daily count is always
	// derived from today's email records in the campaign timezone.
	EmailsSent int `json:"emails_sent"`

	Timezone string `json:"timezone"` // IANA name, e.g. "America/Sao_Paulo"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location resolves the campaign timezone, falling back to UTC when the
// name is empty or unknown.
func (c *Campaign) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
