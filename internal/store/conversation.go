package store

import (
	"context"
	"time"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationStore struct {
	db *pgxpool.Pool
}

func NewConversationStore(db *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{db: db}
}

func (s *ConversationStore) Create(ctx context.Context, c *domain.Conversation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Messages == nil {
		c.Messages = []domain.ConversationMessage{}
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO qai_conversations (id, account_id, user_id, title, is_demo, messages)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_on, updated_on`,
		c.ID, c.AccountID, c.UserID, c.Title, c.IsDemo, c.Messages,
	).Scan(&c.CreatedOn, &c.UpdatedOn)
}

func (s *ConversationStore) GetByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID, userID uuid.UUID) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := getOne(ctx, s.db, c,
		`SELECT id, account_id, user_id, title, is_demo, messages, created_on, updated_on
		 FROM qai_conversations WHERE id = $1 AND account_id = $2 AND user_id = $3`,
		id, accountID, userID,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByUser returns the user's conversations, newest activity first, without messages.
func (s *ConversationStore) ListByUser(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	err := selectAll(ctx, s.db, &convs,
		`SELECT id, account_id, user_id, title, is_demo, created_on, updated_on
		 FROM qai_conversations WHERE account_id = $1 AND user_id = $2
		 ORDER BY updated_on DESC`,
		accountID, userID,
	)
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (s *ConversationStore) AppendMessage(ctx context.Context, id uuid.UUID, accountID uuid.UUID, m domain.ConversationMessage) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE qai_conversations SET messages = messages || $1::jsonb, updated_on = $2
		 WHERE id = $3 AND account_id = $4`,
		[]domain.ConversationMessage{m}, time.Now().UTC(), id, accountID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ConversationStore) UpdateTitle(ctx context.Context, id uuid.UUID, accountID uuid.UUID, title string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE qai_conversations SET title = $1 WHERE id = $2 AND account_id = $3`,
		title, id, accountID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ConversationStore) Delete(ctx context.Context, id uuid.UUID, accountID uuid.UUID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM qai_conversations WHERE id = $1 AND account_id = $2 AND user_id = $3`,
		id, accountID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
