package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stayfront/outreach/internal/entity"
	"github.com/stayfront/outreach/internal/infra/http/middleware"
)

type MailboxLister interface {
	FindAll(ctx context.Context) ([]*entity.Mailbox, error)
}

// MailboxHandler exposes pool state for operators: quota usage, health and
// status per sending identity.
type MailboxHandler struct {
	Mailboxes MailboxLister
}

func NewMailboxHandler(repo MailboxLister) *MailboxHandler {
	return &MailboxHandler{Mailboxes: repo}
}

type mailboxStatus struct {
	Email       string  `json:"email"`
	WarmupStage int     `json:"warmup_stage"`
	SentToday   int     `json:"sent_today"`
	DailyLimit  int     `json:"daily_limit"`
	UsageRatio  float64 `json:"usage_ratio"`
	HealthScore int     `json:"health_score"`
	Status      string  `json:"status"`
}

func (h *MailboxHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	mailboxes, err := h.Mailboxes.FindAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	statuses := make([]mailboxStatus, 0, len(mailboxes))
	for _, m := range mailboxes {
		middleware.RecordMailboxHealth(m.Email, m.HealthScore)
		statuses = append(statuses, mailboxStatus{
			Email:       m.Email,
			WarmupStage: m.WarmupStage,
			SentToday:   m.SentToday,
			DailyLimit:  m.DailyLimit,
			UsageRatio:  m.UsageRatio(),
			HealthScore: m.HealthScore,
			Status:      m.Status,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statuses)
}
