package store

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sequenceColumns = `id, account_id, created_by, conversation_id, name, status,
	uploaded_file_name, default_timezone, activities, created_on, updated_on`

type SequenceStore struct {
	db *pgxpool.Pool
}

func NewSequenceStore(db *pgxpool.Pool) *SequenceStore {
	return &SequenceStore{db: db}
}

// Create inserts the sequence and its steps in one transaction.
func (s *SequenceStore) Create(ctx context.Context, seq *domain.Sequence) error {
	if seq.ID == uuid.Nil {
		seq.ID = uuid.New()
	}
	if seq.Activities == nil {
		seq.Activities = []domain.SequenceActivity{}
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO sequences (id, account_id, created_by, conversation_id, name, status,
				uploaded_file_name, default_timezone, activities)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING created_on, updated_on`,
			seq.ID, seq.AccountID, seq.CreatedBy, seq.ConversationID, seq.Name, seq.Status,
			seq.UploadedFileName, seq.DefaultTimezone, seq.Activities,
		).Scan(&seq.CreatedOn, &seq.UpdatedOn)
		if err != nil {
			return fmt.Errorf("insert sequence: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range seq.Steps {
			step := &seq.Steps[i]
			if step.ID == uuid.Nil {
				step.ID = uuid.New()
			}
			step.SequenceID = seq.ID
			step.AccountID = seq.AccountID
			batch.Queue(
				`INSERT INTO sequence_steps (id, sequence_id, account_id, step_order, channel, subject, body, wait_days)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				step.ID, step.SequenceID, step.AccountID, step.StepOrder, step.Channel, step.Subject, step.Body, step.WaitDays,
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert sequence steps: %w", err)
		}
		return nil
	})
}

func (s *SequenceStore) GetByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*domain.Sequence, error) {
	seq := &domain.Sequence{}
	err := getOne(ctx, s.db, seq,
		`SELECT `+sequenceColumns+` FROM sequences WHERE id = $1 AND account_id = $2`,
		id, accountID,
	)
	if err != nil {
		return nil, err
	}

	err = selectAll(ctx, s.db, &seq.Steps,
		`SELECT id, sequence_id, account_id, step_order, channel, subject, body, wait_days
		 FROM sequence_steps WHERE sequence_id = $1 AND account_id = $2
		 ORDER BY step_order ASC`,
		id, accountID,
	)
	if err != nil {
		return nil, err
	}
	return seq, nil
}

func (s *SequenceStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Sequence, error) {
	var seqs []domain.Sequence
	err := selectAll(ctx, s.db, &seqs,
		`SELECT `+sequenceColumns+` FROM sequences WHERE account_id = $1 ORDER BY created_on DESC`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	return seqs, nil
}
