package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const agentColumns = `id, account_id, created_by, name, description, type, is_archived,
	is_sharing_enabled, uploaded_file_s3_link, execution_result_review_status, created_on, updated_on`

type AgentStore struct {
	db *pgxpool.Pool
}

func NewAgentStore(db *pgxpool.Pool) *AgentStore {
	return &AgentStore{db: db}
}

func (s *AgentStore) Create(ctx context.Context, a *domain.Agent) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO agents (id, account_id, created_by, name, description, type,
			is_archived, is_sharing_enabled, uploaded_file_s3_link, execution_result_review_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_on, updated_on`,
		a.ID, a.AccountID, a.CreatedBy, a.Name, a.Description, a.Type,
		a.IsArchived, a.IsSharingEnabled, a.UploadedFileS3Link, a.ExecutionResultReviewStatus,
	).Scan(&a.CreatedOn, &a.UpdatedOn)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *AgentStore) GetByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*domain.Agent, error) {
	a := &domain.Agent{}
	err := getOne(ctx, s.db, a,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1 AND account_id = $2`,
		id, accountID,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AgentStore) GetUnscoped(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	a := &domain.Agent{}
	if err := getOne(ctx, s.db, a, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AgentStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Agent, error) {
	var agents []domain.Agent
	err := selectAll(ctx, s.db, &agents,
		`SELECT `+agentColumns+` FROM agents WHERE account_id = $1 ORDER BY created_on DESC`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (s *AgentStore) ListIDsByAccount(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM agents WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// Update applies the non-nil fields of u and always bumps updated_on.
func (s *AgentStore) Update(ctx context.Context, id uuid.UUID, accountID uuid.UUID, u domain.AgentUpdate) (*domain.Agent, error) {
	set, args := agentUpdateClause(u, time.Now().UTC())
	args = append(args, id, accountID)
	query := fmt.Sprintf(`UPDATE agents SET %s WHERE id = $%d AND account_id = $%d RETURNING %s`,
		set, len(args)-1, len(args), agentColumns)

	a := &domain.Agent{}
	if err := getOne(ctx, s.db, a, query, args...); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes the agent row and returns what was deleted.
func (s *AgentStore) Delete(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*domain.Agent, error) {
	a := &domain.Agent{}
	err := getOne(ctx, s.db, a,
		`DELETE FROM agents WHERE id = $1 AND account_id = $2 RETURNING `+agentColumns,
		id, accountID,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func agentUpdateClause(u domain.AgentUpdate, now time.Time) (string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Type != nil {
		add("type", *u.Type)
	}
	if u.IsArchived != nil {
		add("is_archived", *u.IsArchived)
	}
	if u.IsSharingEnabled != nil {
		add("is_sharing_enabled", *u.IsSharingEnabled)
	}
	if u.UploadedFileS3Link != nil {
		add("uploaded_file_s3_link", *u.UploadedFileS3Link)
	}
	if u.ExecutionResultReviewStatus != nil {
		add("execution_result_review_status", *u.ExecutionResultReviewStatus)
	}
	add("updated_on", now)

	return strings.Join(sets, ", "), args
}
