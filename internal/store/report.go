package store

import (
	"context"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AgentReportStore reads reports written by the AI backend.
type AgentReportStore struct {
	db *pgxpool.Pool
}

func NewAgentReportStore(db *pgxpool.Pool) *AgentReportStore {
	return &AgentReportStore{db: db}
}

func (s *AgentReportStore) ListByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) ([]domain.AgentReport, error) {
	var reports []domain.AgentReport
	err := selectAll(ctx, s.db, &reports,
		`SELECT id, account_id, agent_id, report, created_on FROM agent_reports
		 WHERE agent_id = $1 AND account_id = $2
		 ORDER BY created_on DESC`,
		agentID, accountID,
	)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *AgentReportStore) DeleteByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM agent_reports WHERE agent_id = $1 AND account_id = $2`,
		agentID, accountID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
