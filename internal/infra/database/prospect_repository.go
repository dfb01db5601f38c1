package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/stayfront/outreach/internal/entity"
)

type ProspectRepository struct {
	DB *sql.DB
}

func NewProspectRepository(db *sql.DB) *ProspectRepository {
	return &ProspectRepository{DB: db}
}

// FindCandidates pulls the raw eligibility pool: early-stage, unarchived,
// addressable prospects at or above the score cut, best first.
func (r *ProspectRepository) FindCandidates(ctx context.Context, minScore int) ([]*entity.Prospect, error) {
	query := `
		SELECT id, name, company, email, stage, score, archived, tags, contacted_at, created_at, updated_at
		FROM prospects
		WHERE stage IN ($1, $2)
		  AND archived = false
		  AND email IS NOT NULL
		  AND score >= $3
		ORDER BY score DESC, created_at ASC
	`

	rows, err := r.DB.QueryContext(ctx, query, entity.StageNew, entity.StageResearching, minScore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prospects []*entity.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		prospects = append(prospects, p)
	}
	return prospects, rows.Err()
}

// MarkContacted flips the stage and stamps the send. Only successful
// dispatches call this.
func (r *ProspectRepository) MarkContacted(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE prospects
		SET stage = $2, contacted_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.DB.ExecContext(ctx, query, id, entity.StageContacted, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrProspectNotFound
	}
	return nil
}

func scanProspect(rows *sql.Rows) (*entity.Prospect, error) {
	var p entity.Prospect
	var company sql.NullString
	var email sql.NullString
	var contactedAt sql.NullTime

	err := rows.Scan(
		&p.ID,
		&p.Name,
		&company,
		&email,
		&p.Stage,
		&p.Score,
		&p.Archived,
		pq.Array(&p.Tags),
		&contactedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Company = company.String
	if email.Valid {
		p.Email = &email.String
	}
	if contactedAt.Valid {
		t := contactedAt.Time
		p.ContactedAt = &t
	}
	return &p, nil
}
