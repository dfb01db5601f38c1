package usecase

import (
	"context"
	"time"

	"github.com/stayfront/outreach/internal/config"
	"github.com/stayfront/outreach/internal/entity"
	"github.com/stayfront/outreach/internal/infra/queue"
)

type ProspectRepositoryInterface interface {
	// FindCandidates returns prospects in the new/researching stages, not
	// archived, with a contact email and score >= minScore, ordered by
	// score descending.
	FindCandidates(ctx context.Context, minScore int) ([]*entity.Prospect, error)
	MarkContacted(ctx context.Context, id string, at time.Time) error
}

type CampaignRepositoryInterface interface {
	FindActive(ctx context.Context) ([]*entity.Campaign, error)
	// IncrementEmailsSent bumps the cumulative (not daily) counter.
	IncrementEmailsSent(ctx context.Context, id string) error
}

type MailboxRepositoryInterface interface {
	FindByStatus(ctx context.Context, status string) ([]*entity.Mailbox, error)
	// IncrementSentToday bumps sent_today and last_used_at only while
	// sent_today < daily_limit; returns false when the quota was already
	// consumed by a concurrent invocation.
	IncrementSentToday(ctx context.Context, id string, at time.Time) (bool, error)
	UpdateHealth(ctx context.Context, id string, healthScore int, status string) error
}

type EmailRepositoryInterface interface {
	Create(ctx context.Context, e *entity.Email) error
	// OutboundProspectIDs returns the set of prospects this engine has ever
	// sent to. The email records are the single source of truth for the
	// at-most-once guarantee.
	OutboundProspectIDs(ctx context.Context) (map[string]bool, error)
	CountForCampaignSince(ctx context.Context, campaignID string, since time.Time) (int, error)
}

type ActivityRepositoryInterface interface {
	Create(ctx context.Context, a *entity.Activity) error
}

// ContentGenerator is the external AI collaborator. The engine never
// interprets the prose, only its presence.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (*GeneratedContent, error)
}

type GeneratedContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MailTransport is the SMTP collaborator. Bounce detection after acceptance
// belongs to the external bounce pipeline, not here.
type MailTransport interface {
	Send(ctx context.Context, creds config.MailboxCredentials, to, subject, body string) (string, error)
}

type EventPublisherInterface interface {
	PublishDispatch(ctx context.Context, payload queue.DispatchPayload) error
}
