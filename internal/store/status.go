package store

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const statusColumns = `id, account_id, agent_id, name, state, result_data, message, progress_percentage, created_on`

// AgentStatusStore is the append-only agent status log.
type AgentStatusStore struct {
	db *pgxpool.Pool
}

func NewAgentStatusStore(db *pgxpool.Pool) *AgentStatusStore {
	return &AgentStatusStore{db: db}
}

// Append inserts e. A repeated id of the same agent leaves the log untouched and
// reports false; an id already used by another agent or account is ErrConflict.
// ErrNotFound means the agent no longer exists.
func (s *AgentStatusStore) Append(ctx context.Context, e *domain.AgentStatusEvent) (bool, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedOn.IsZero() {
		e.CreatedOn = time.Now().UTC()
	}

	var resultData any
	if len(e.ResultData) > 0 {
		resultData = e.ResultData
	}

	tag, err := s.db.Exec(ctx,
		`INSERT INTO agent_statuses (id, account_id, agent_id, name, state, result_data, message, progress_percentage, created_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.AccountID, e.AgentID, e.Name, e.State, resultData, e.Message, e.ProgressPercentage, e.CreatedOn,
	)
	if err != nil {
		return false, appendError(err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var sameAgent bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM agent_statuses WHERE id = $1 AND agent_id = $2 AND account_id = $3)`,
		e.ID, e.AgentID, e.AccountID,
	).Scan(&sameAgent)
	if err != nil {
		return false, err
	}
	if !sameAgent {
		return false, ErrConflict
	}
	return false, nil
}

// appendError maps a foreign key violation on agent_id to ErrNotFound.
func appendError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrNotFound
	}
	return err
}

func (s *AgentStatusStore) ListByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) ([]domain.AgentStatusEvent, error) {
	var events []domain.AgentStatusEvent
	err := selectAll(ctx, s.db, &events,
		`SELECT `+statusColumns+` FROM agent_statuses
		 WHERE agent_id = $1 AND account_id = $2
		 ORDER BY created_on ASC`,
		agentID, accountID,
	)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *AgentStatusStore) ListTerminalByAgents(ctx context.Context, agentIDs []uuid.UUID, accountID uuid.UUID) ([]domain.AgentStatusEvent, error) {
	if len(agentIDs) == 0 {
		return nil, nil
	}
	var events []domain.AgentStatusEvent
	err := selectAll(ctx, s.db, &events,
		`SELECT `+statusColumns+` FROM agent_statuses
		 WHERE agent_id = ANY($1) AND account_id = $2 AND state = ANY($3)
		 ORDER BY created_on DESC`,
		agentIDs, accountID, terminalStates(),
	)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListFinishedByNames returns the finished events with one of names, oldest first.
func (s *AgentStatusStore) ListFinishedByNames(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID, names []string) ([]domain.AgentStatusEvent, error) {
	var events []domain.AgentStatusEvent
	err := selectAll(ctx, s.db, &events,
		`SELECT `+statusColumns+` FROM agent_statuses
		 WHERE agent_id = $1 AND account_id = $2 AND state = $3 AND name = ANY($4)
		 ORDER BY created_on ASC`,
		agentID, accountID, domain.StateFinished, names,
	)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *AgentStatusStore) DeleteByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM agent_statuses WHERE agent_id = $1 AND account_id = $2`,
		agentID, accountID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func terminalStates() []string {
	out := make([]string, len(domain.TerminalStates))
	for i, st := range domain.TerminalStates {
		out[i] = string(st)
	}
	return out
}
