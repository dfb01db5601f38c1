package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/stayfront/outreach/internal/config"
	"github.com/stayfront/outreach/internal/entity"
)

type MailboxRepository struct {
	DB *sql.DB
}

func NewMailboxRepository(db *sql.DB) *MailboxRepository {
	return &MailboxRepository{DB: db}
}

func (r *MailboxRepository) FindByStatus(ctx context.Context, status string) ([]*entity.Mailbox, error) {
	query := `
		SELECT id, email, warmup_stage, daily_limit, sent_today, health_score, status, last_used_at, created_at, updated_at
		FROM mailboxes
		WHERE status = $1
		ORDER BY email ASC
	`

	rows, err := r.DB.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mailboxes []*entity.Mailbox
	for rows.Next() {
		var m entity.Mailbox
		var lastUsed sql.NullTime
		err := rows.Scan(&m.ID, &m.Email, &m.WarmupStage, &m.DailyLimit, &m.SentToday, &m.HealthScore, &m.Status, &lastUsed, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			m.LastUsedAt = &t
		}
		mailboxes = append(mailboxes, &m)
	}
	return mailboxes, rows.Err()
}

func (r *MailboxRepository) FindAll(ctx context.Context) ([]*entity.Mailbox, error) {
	query := `
		SELECT id, email, warmup_stage, daily_limit, sent_today, health_score, status, last_used_at, created_at, updated_at
		FROM mailboxes
		ORDER BY email ASC
	`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mailboxes []*entity.Mailbox
	for rows.Next() {
		var m entity.Mailbox
		var lastUsed sql.NullTime
		err := rows.Scan(&m.ID, &m.Email, &m.WarmupStage, &m.DailyLimit, &m.SentToday, &m.HealthScore, &m.Status, &lastUsed, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			m.LastUsedAt = &t
		}
		mailboxes = append(mailboxes, &m)
	}
	return mailboxes, rows.Err()
}

// IncrementSentToday is the conditional quota write: it only lands while
// sent_today is below daily_limit, so racing invocations cannot overshoot.
func (r *MailboxRepository) IncrementSentToday(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE mailboxes
		SET sent_today = sent_today + 1, last_used_at = $2, updated_at = NOW()
		WHERE id = $1 AND sent_today < daily_limit
	`

	res, err := r.DB.ExecContext(ctx, query, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *MailboxRepository) UpdateHealth(ctx context.Context, id string, healthScore int, status string) error {
	query := `
		UPDATE mailboxes
		SET health_score = $2, status = $3, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.DB.ExecContext(ctx, query, id, healthScore, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrMailboxNotFound
	}
	return nil
}

// ResetSentToday zeroes the daily counters. Called by the external daily
// reset job, never by the engine.
func (r *MailboxRepository) ResetSentToday(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE mailboxes SET sent_today = 0, updated_at = NOW()`)
	return err
}

// SyncDailyLimits realigns every mailbox's daily_limit with the warm-up
// ladder at startup. Stage advancement itself stays administrative.
func (r *MailboxRepository) SyncDailyLimits(ctx context.Context, cfg *config.Config) error {
	query := `
		UPDATE mailboxes
		SET daily_limit = $2, updated_at = NOW()
		WHERE warmup_stage = $1 AND daily_limit <> $2
	`

	for stage := entity.WarmupStageMin; stage <= entity.WarmupStageMax; stage++ {
		if _, err := r.DB.ExecContext(ctx, query, stage, cfg.DailyLimitForStage(stage)); err != nil {
			return err
		}
	}
	return nil
}
