package usecase

import (
	"context"
	"time"

	"github.com/stayfront/outreach/internal/entity"
	"github.com/stayfront/outreach/internal/logging"
)

// MailboxPool picks the sender identity for the current send and owns the
// counter and health mutations that follow it. It never deletes a mailbox.
type MailboxPool struct {
	Mailboxes MailboxRepositoryInterface
	Health    HealthTracker
	MinHealth int // selection circuit breaker

	Now func() time.Time
}

func NewMailboxPool(mailboxes MailboxRepositoryInterface, health HealthTracker, minHealth int) *MailboxPool {
	return &MailboxPool{
		Mailboxes: mailboxes,
		Health:    health,
		MinHealth: minHealth,
		Now:       time.Now,
	}
}

// Pick returns the one usable mailbox for this send, or nil when the pool
// has no capacity. Selection is deterministic: active, under quota, health
// at or above the floor, then lowest usage ratio; ties go to the mailbox
// idle longest, then the lowest id.
//
// exclude lists mailboxes already rejected this invocation (e.g. missing
// credentials) so a configuration error only costs that one mailbox.
func (p *MailboxPool) Pick(ctx context.Context, exclude map[string]bool) (*entity.Mailbox, error) {
	active, err := p.Mailboxes.FindByStatus(ctx, entity.MailboxActive)
	if err != nil {
		return nil, err
	}

	var best *entity.Mailbox
	for _, m := range active {
		if exclude[m.ID] {
			continue
		}
		if !m.HasCapacity() {
			continue
		}
		if m.HealthScore < p.MinHealth {
			continue
		}
		if best == nil || lessUsed(m, best) {
			best = m
		}
	}
	return best, nil
}

func lessUsed(a, b *entity.Mailbox) bool {
	ra, rb := a.UsageRatio(), b.UsageRatio()
	if ra != rb {
		return ra < rb
	}
	// Never-used sorts before any timestamp.
	switch {
	case a.LastUsedAt == nil && b.LastUsedAt != nil:
		return true
	case a.LastUsedAt != nil && b.LastUsedAt == nil:
		return false
	case a.LastUsedAt != nil && b.LastUsedAt != nil && !a.LastUsedAt.Equal(*b.LastUsedAt):
		return a.LastUsedAt.Before(*b.LastUsedAt)
	}
	return a.ID < b.ID
}

// RecordSuccess bumps sent_today and last_used_at with the conditional
// update that keeps sent_today <= daily_limit even under racing ticks.
func (p *MailboxPool) RecordSuccess(ctx context.Context, m *entity.Mailbox) error {
	ok, err := p.Mailboxes.IncrementSentToday(ctx, m.ID, p.Now())
	if err != nil {
		return err
	}
	if !ok {
		// The email went out but a concurrent invocation consumed the last
		// quota slot. The counter stays within its limit; flag it.
		logging.Logger.Warn().
			Str("mailbox", m.Email).
			Msg("sent_today increment rejected at quota ceiling")
	}
	return nil
}

// RecordFailure applies the health penalty for a mailbox-attributable
// failure and auto-pauses when the score crosses the floor.
func (p *MailboxPool) RecordFailure(ctx context.Context, m *entity.Mailbox) error {
	score, status := p.Health.Penalize(m)
	if status != m.Status {
		logging.Logger.Warn().
			Str("mailbox", m.Email).
			Int("health_score", score).
			Msg("mailbox auto-paused")
	}
	return p.Mailboxes.UpdateHealth(ctx, m.ID, score, status)
}
