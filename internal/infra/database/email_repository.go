package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/stayfront/outreach/internal/entity"
)

type EmailRepository struct {
	DB *sql.DB
}

func NewEmailRepository(db *sql.DB) *EmailRepository {
	return &EmailRepository{DB: db}
}

func (r *EmailRepository) Create(ctx context.Context, e *entity.Email) error {
	query := `
		INSERT INTO emails (id, prospect_id, campaign_id, from_email, to_email, subject, body, direction, status, message_id, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.DB.ExecContext(ctx, query,
		e.ID,
		e.ProspectID,
		e.CampaignID,
		e.FromEmail,
		e.ToEmail,
		e.Subject,
		e.Body,
		e.Direction,
		e.Status,
		e.MessageID,
		e.SentAt,
		e.CreatedAt,
	)
	return err
}

// OutboundProspectIDs backs the at-most-once check. Ever-sent, not just
// today: this engine never emails the same prospect twice.
func (r *EmailRepository) OutboundProspectIDs(ctx context.Context) (map[string]bool, error) {
	query := `
		SELECT DISTINCT prospect_id
		FROM emails
		WHERE direction = $1
	`

	rows, err := r.DB.QueryContext(ctx, query, entity.DirectionOutbound)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// CountForCampaignSince derives the campaign's daily usage from the send
// records themselves.
func (r *EmailRepository) CountForCampaignSince(ctx context.Context, campaignID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM emails
		WHERE campaign_id = $1
		  AND direction = $2
		  AND sent_at >= $3
	`

	var count int
	err := r.DB.QueryRowContext(ctx, query, campaignID, entity.DirectionOutbound, since).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

type ActivityRepository struct {
	DB *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *entity.Activity) error {
	query := `
		INSERT INTO activities (id, prospect_id, kind, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.DB.ExecContext(ctx, query, a.ID, a.ProspectID, a.Kind, a.Detail, a.CreatedAt)
	return err
}
