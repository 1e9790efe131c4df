package store

import (
	"context"
	"time"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const artifactColumns = `id, account_id, agent_id, parent_artifact_id, type, properties,
	analysis_result, review_status, created_on, updated_on`

type ArtifactStore struct {
	db *pgxpool.Pool
}

func NewArtifactStore(db *pgxpool.Pool) *ArtifactStore {
	return &ArtifactStore{db: db}
}

func (s *ArtifactStore) ListByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) ([]domain.Artifact, error) {
	var artifacts []domain.Artifact
	err := selectAll(ctx, s.db, &artifacts,
		`SELECT `+artifactColumns+` FROM agent_artifacts
		 WHERE agent_id = $1 AND account_id = $2
		 ORDER BY created_on ASC`,
		agentID, accountID,
	)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (s *ArtifactStore) ListPendingByAgents(ctx context.Context, agentIDs []uuid.UUID, accountID uuid.UUID) ([]domain.Artifact, error) {
	if len(agentIDs) == 0 {
		return nil, nil
	}
	var artifacts []domain.Artifact
	err := selectAll(ctx, s.db, &artifacts,
		`SELECT `+artifactColumns+` FROM agent_artifacts
		 WHERE agent_id = ANY($1) AND account_id = $2 AND review_status->>'status' = $3
		 ORDER BY created_on ASC`,
		agentIDs, accountID, domain.ReviewPending,
	)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (s *ArtifactStore) CountPendingByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM agent_artifacts WHERE account_id = $1 AND review_status->>'status' = $2`,
		accountID, domain.ReviewPending,
	).Scan(&n)
	return n, err
}

func (s *ArtifactStore) UpdateReviewStatus(ctx context.Context, id uuid.UUID, accountID uuid.UUID, status domain.ReviewState) (*domain.Artifact, error) {
	now := time.Now().UTC()
	review := domain.ArtifactReview{Status: status, UpdatedOn: now}

	a := &domain.Artifact{}
	err := getOne(ctx, s.db, a,
		`UPDATE agent_artifacts SET review_status = $1, updated_on = $2
		 WHERE id = $3 AND account_id = $4
		 RETURNING `+artifactColumns,
		review, now, id, accountID,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ArtifactStore) DeleteByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM agent_artifacts WHERE agent_id = $1 AND account_id = $2`,
		agentID, accountID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
