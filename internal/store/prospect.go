package store

import (
	"context"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProspectStore struct {
	db *pgxpool.Pool
}

func NewProspectStore(db *pgxpool.Pool) *ProspectStore {
	return &ProspectStore{db: db}
}

func (s *ProspectStore) ListAnalyzedInBand(ctx context.Context, accountID uuid.UUID, minScore, maxScore float64, limit int) ([]domain.AnalyzedProspect, error) {
	var analyzed []domain.AnalyzedProspect
	err := selectAll(ctx, s.db, &analyzed,
		`SELECT up_id, account_id, score, reasoning FROM analyzed_prospects
		 WHERE account_id = $1 AND score >= $2 AND score <= $3
		 ORDER BY score DESC
		 LIMIT $4`,
		accountID, minScore, maxScore, limit,
	)
	if err != nil {
		return nil, err
	}
	return analyzed, nil
}

func (s *ProspectStore) ListByUpIDs(ctx context.Context, accountID uuid.UUID, upIDs []string) ([]domain.Prospect, error) {
	if len(upIDs) == 0 {
		return nil, nil
	}
	var prospects []domain.Prospect
	err := selectAll(ctx, s.db, &prospects,
		`SELECT up_id, account_id, first_name, last_name, email, linkedin_url, job_title, company_name
		 FROM prospects WHERE account_id = $1 AND up_id = ANY($2)`,
		accountID, upIDs,
	)
	if err != nil {
		return nil, err
	}
	return prospects, nil
}
