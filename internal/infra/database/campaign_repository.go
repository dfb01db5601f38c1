package database

import (
	"context"
	"database/sql"

	"github.com/stayfront/outreach/internal/entity"
)

type CampaignRepository struct {
	DB *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

func (r *CampaignRepository) FindActive(ctx context.Context) ([]*entity.Campaign, error) {
	query := `
		SELECT id, name, strategy_key, active, daily_limit, emails_sent, timezone, created_at, updated_at
		FROM campaigns
		WHERE active = true
		ORDER BY created_at ASC
	`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*entity.Campaign
	for rows.Next() {
		var c entity.Campaign
		var tz sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.StrategyKey, &c.Active, &c.DailyLimit, &c.EmailsSent, &tz, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Timezone = tz.String
		campaigns = append(campaigns, &c)
	}
	return campaigns, rows.Err()
}

// IncrementEmailsSent bumps the cumulative counter. The daily quota never
// reads this; it counts email records instead.
func (r *CampaignRepository) IncrementEmailsSent(ctx context.Context, id string) error {
	query := `
		UPDATE campaigns
		SET emails_sent = emails_sent + 1, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrCampaignNotFound
	}
	return nil
}
