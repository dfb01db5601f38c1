package entity

import (
	"errors"
	"time"
)

// Lifecycle stages a prospect moves through on the board.
const (
	StageNew         = "new"
	StageResearching = "researching"
	StageOutreach    = "outreach"
	StageContacted   = "contacted"
	StageEngaged     = "engaged"
	StageMeeting     = "meeting"
	StageProposal    = "proposal"
	StageWon         = "won"
	StageLost        = "lost"
)

var ErrProspectNotFound = errors.New("prospect not found")

type Prospect struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Company  string  `json:"company,omitempty"`
	Email    *string `json:"email,omitempty"`
	Stage    string  `json:"stage"`
	Score    int     `json:"score"` // 0-100 priority
	Archived bool    `json:"archived"`

	Tags []string `json:"tags,omitempty"`

	ContactedAt *time.Time `json:"contacted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasEmail reports whether the prospect carries a non-empty contact address.
func (p *Prospect) HasEmail() bool {
	return p.Email != nil && *p.Email != ""
}

func (p *Prospect) EmailAddress() string {
	if p.Email == nil {
		return ""
	}
	return *p.Email
}
