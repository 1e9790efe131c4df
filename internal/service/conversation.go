package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssistantErrorMessage is stored in place of a reply when the AI backend fails.
const AssistantErrorMessage = "Sorry, I ran into a problem while working on that. Please try again in a moment."

type ConversationService struct {
	conversations domain.ConversationStore
	sequences     domain.SequenceStore
	emailEvents   domain.EmailEventStore
	artifacts     domain.ArtifactStore
	bot           domain.ConverseClient
	llm           domain.LLMClient
	secretKey     string
	now           func() time.Time
	logger        *zap.Logger
}

func NewConversationService(cs domain.ConversationStore, ss domain.SequenceStore, es domain.EmailEventStore, as domain.ArtifactStore, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		conversations: cs,
		sequences:     ss,
		emailEvents:   es,
		artifacts:     as,
		now:           time.Now,
		logger:        logger,
	}
}

// SetConverseClient wires the AI backend. secretKey is sent with every turn.
func (s *ConversationService) SetConverseClient(c domain.ConverseClient, secretKey string) {
	s.bot = c
	s.secretKey = secretKey
}

func (s *ConversationService) SetLLMClient(c domain.LLMClient) {
	s.llm = c
}

func (s *ConversationService) Create(ctx context.Context, accountID, userID uuid.UUID, isDemo bool) (*domain.Conversation, error) {
	if err := requireOwner(accountID, userID); err != nil {
		return nil, err
	}
	c := &domain.Conversation{
		ID:        uuid.New(),
		AccountID: accountID,
		UserID:    userID,
		IsDemo:    isDemo,
		Messages:  []domain.ConversationMessage{},
	}
	if err := s.conversations.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationService) List(ctx context.Context, accountID, userID uuid.UUID) ([]domain.Conversation, error) {
	if err := requireOwner(accountID, userID); err != nil {
		return nil, err
	}
	convs, err := s.conversations.ListByUser(ctx, accountID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// Get loads a conversation. An untitled thread with a user message gets a
// generated title; a title failure is logged and the thread returned as is.
func (s *ConversationService) Get(ctx context.Context, accountID, userID, id uuid.UUID) (*domain.Conversation, error) {
	c, err := s.get(ctx, accountID, userID, id)
	if err != nil {
		return nil, err
	}
	if c.Title != "" || s.llm == nil || c.FirstUserQuery() == "" {
		return c, nil
	}

	logger := s.logger.With(zap.String("conversation_id", id.String()), zap.String("account_id", accountID.String()))
	title, err := s.llm.Title(ctx, c.History())
	if err != nil {
		logger.Warn("failed to generate conversation title", zap.Error(err))
		return c, nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return c, nil
	}
	if err := s.conversations.UpdateTitle(ctx, id, accountID, title); err != nil {
		logger.Warn("failed to store conversation title", zap.Error(err))
		return c, nil
	}
	c.Title = title
	return c, nil
}

func (s *ConversationService) Delete(ctx context.Context, accountID, userID, id uuid.UUID) error {
	if err := requireOwner(accountID, userID); err != nil {
		return err
	}
	if id == uuid.Nil {
		return missing("conversation_id")
	}
	if err := s.conversations.Delete(ctx, id, accountID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

type ConverseInput struct {
	AccountID      uuid.UUID
	UserID         uuid.UUID
	ConversationID uuid.UUID
	Query          string
	UploadedData   []map[string]string
	// CSV, when set, replaces UploadedData with its parsed rows.
	CSV    io.Reader
	IsDemo bool
}

// Converse relays one user turn to the AI backend and records both sides of it.
// A campaign announced in the reply is persisted as a new sequence.
func (s *ConversationService) Converse(ctx context.Context, in ConverseInput) (*domain.ConverseResponse, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, missing("query")
	}
	if s.bot == nil {
		return nil, fmt.Errorf("%w: AI bot client not configured", ErrUpstream)
	}

	uploaded := in.UploadedData
	if in.CSV != nil {
		rows, err := ParseCSVRows(in.CSV)
		if err != nil {
			return nil, err
		}
		uploaded = rows
	}

	c, err := s.get(ctx, in.AccountID, in.UserID, in.ConversationID)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("conversation_id", c.ID.String()), zap.String("account_id", in.AccountID.String()))

	history := c.History()
	if err := s.appendMessage(ctx, c, domain.ConversationMessage{Role: domain.RoleUser, Content: in.Query}); err != nil {
		return nil, err
	}

	resp, err := s.bot.Converse(ctx, domain.ConverseRequest{
		SecretKey:      s.secretKey,
		ConversationID: c.ID.String(),
		Query:          in.Query,
		Messages:       history,
		UploadedData:   uploaded,
		AccountID:      in.AccountID.String(),
		UserID:         in.UserID.String(),
		IsDemo:         in.IsDemo || c.IsDemo,
	})
	if err != nil {
		logger.Error("qai converse failed", zap.Error(err))
		apology := domain.ConversationMessage{Role: domain.RoleAssistant, Content: AssistantErrorMessage, IsError: true}
		if appendErr := s.appendMessage(ctx, c, apology); appendErr != nil {
			logger.Error("failed to store error reply", zap.Error(appendErr))
		}
		return nil, fmt.Errorf("%w: converse: %v", ErrUpstream, err)
	}

	if details := resp.CreatedSequence(); details != nil {
		seq, err := s.createSequence(ctx, c, in, details, len(uploaded) > 0)
		if err != nil {
			return nil, err
		}
		logger.Info("campaign created from conversation",
			zap.String("sequence_id", seq.ID.String()),
			zap.Int("steps", len(seq.Steps)))
	}

	reply := domain.ConversationMessage{Role: domain.RoleAssistant, Content: resp.Message, Data: resp.Data}
	if err := s.appendMessage(ctx, c, reply); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *ConversationService) createSequence(ctx context.Context, c *domain.Conversation, in ConverseInput, d *domain.SequenceDetails, hasProspects bool) (*domain.Sequence, error) {
	now := s.now().UTC()
	convID := c.ID
	seq := &domain.Sequence{
		ID:              uuid.New(),
		AccountID:       in.AccountID,
		CreatedBy:       in.UserID,
		ConversationID:  &convID,
		Name:            d.Name,
		Status:          domain.SequenceStatusDraft,
		DefaultTimezone: d.DefaultTimezone,
		Activities:      []domain.SequenceActivity{},
	}
	if seq.Name == "" {
		seq.Name = in.Query
	}
	if hasProspects {
		seq.Activities = append(seq.Activities, domain.SequenceActivity{Type: domain.ActivityProspectsAdded, Time: now})
	}
	for i, step := range d.Steps {
		channel := step.Channel
		if channel == "" {
			channel = domain.ChannelEmail
		}
		seq.Steps = append(seq.Steps, domain.SequenceStep{
			ID:        uuid.New(),
			StepOrder: i + 1,
			Channel:   channel,
			Subject:   step.Subject,
			Body:      step.Body,
			WaitDays:  step.WaitDays,
		})
	}

	if err := s.sequences.Create(ctx, seq); err != nil {
		return nil, fmt.Errorf("create sequence: %w", err)
	}
	return seq, nil
}

// ReviewUpdates summarises what is waiting for the user's attention.
func (s *ConversationService) ReviewUpdates(ctx context.Context, accountID, userID uuid.UUID) ([]domain.ReviewUpdate, error) {
	if err := requireOwner(accountID, userID); err != nil {
		return nil, err
	}
	replies, err := s.emailEvents.CountByAccount(ctx, accountID, domain.EmailEventReply)
	if err != nil {
		return nil, fmt.Errorf("count email replies: %w", err)
	}
	pending, err := s.artifacts.CountPendingByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("count pending artifacts: %w", err)
	}
	return []domain.ReviewUpdate{
		{Type: domain.ReviewUpdateEmailReplies, Value: domain.ReviewUpdateValue{Count: replies}},
		{Type: domain.ReviewUpdateNewProspects, Value: domain.ReviewUpdateValue{Count: pending}},
	}, nil
}

func (s *ConversationService) get(ctx context.Context, accountID, userID, id uuid.UUID) (*domain.Conversation, error) {
	if err := requireOwner(accountID, userID); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, missing("conversation_id")
	}
	c, err := s.conversations.GetByID(ctx, id, accountID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationService) appendMessage(ctx context.Context, c *domain.Conversation, m domain.ConversationMessage) error {
	m.ID = uuid.New()
	m.CreatedOn = s.now().UTC()
	if err := s.conversations.AppendMessage(ctx, c.ID, c.AccountID, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("append conversation message: %w", err)
	}
	c.Messages = append(c.Messages, m)
	return nil
}

func requireOwner(accountID, userID uuid.UUID) error {
	if accountID == uuid.Nil {
		return missing("account_id")
	}
	if userID == uuid.Nil {
		return missing("user")
	}
	return nil
}
