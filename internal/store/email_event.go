package store

import (
	"context"
	"time"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EmailEventStore struct {
	db *pgxpool.Pool
}

func NewEmailEventStore(db *pgxpool.Pool) *EmailEventStore {
	return &EmailEventStore{db: db}
}

func (s *EmailEventStore) Record(ctx context.Context, e *domain.SequenceEmailEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedOn.IsZero() {
		e.CreatedOn = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO sequence_email_events (id, account_id, sequence_id, step_id, prospect_email, event, created_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.AccountID, e.SequenceID, e.StepID, e.ProspectEmail, e.Event, e.CreatedOn,
	)
	return err
}

// CountDistinct counts distinct prospect emails with event; a nil stepID covers the whole sequence.
func (s *EmailEventStore) CountDistinct(ctx context.Context, accountID uuid.UUID, sequenceID uuid.UUID, stepID *uuid.UUID, event domain.EmailEventType) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT prospect_email) FROM sequence_email_events
		 WHERE account_id = $1 AND sequence_id = $2 AND event = $3
		   AND ($4::uuid IS NULL OR step_id = $4)`,
		accountID, sequenceID, event, stepID,
	).Scan(&n)
	return n, err
}

func (s *EmailEventStore) CountByAccount(ctx context.Context, accountID uuid.UUID, event domain.EmailEventType) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM sequence_email_events WHERE account_id = $1 AND event = $2`,
		accountID, event,
	).Scan(&n)
	return n, err
}
