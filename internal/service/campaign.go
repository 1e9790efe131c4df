package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CampaignService struct {
	sequences   domain.SequenceStore
	emailEvents domain.EmailEventStore
	logger      *zap.Logger
}

func NewCampaignService(ss domain.SequenceStore, es domain.EmailEventStore, logger *zap.Logger) *CampaignService {
	return &CampaignService{sequences: ss, emailEvents: es, logger: logger}
}

func (s *CampaignService) ListSequences(ctx context.Context, accountID uuid.UUID) ([]domain.Sequence, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	seqs, err := s.sequences.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	if seqs == nil {
		seqs = []domain.Sequence{}
	}
	return seqs, nil
}

func (s *CampaignService) GetSequence(ctx context.Context, accountID, sequenceID uuid.UUID) (*domain.Sequence, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	if sequenceID == uuid.Nil {
		return nil, missing("sequence_id")
	}
	seq, err := s.sequences.GetByID(ctx, sequenceID, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSequenceNotFound
		}
		return nil, fmt.Errorf("get sequence: %w", err)
	}
	return seq, nil
}

type EmailEventInput struct {
	AccountID  uuid.UUID
	SequenceID uuid.UUID
	StepID     *uuid.UUID
	Email      string
}

// RecordEmailOpen stores a tracking pixel hit. The sequence, and the step when
// given, must belong to the account.
func (s *CampaignService) RecordEmailOpen(ctx context.Context, in EmailEventInput) error {
	return s.recordEvent(ctx, in, domain.EmailEventOpen)
}

// RecordEmailReply stores a reply reported by the sending system.
func (s *CampaignService) RecordEmailReply(ctx context.Context, in EmailEventInput) error {
	return s.recordEvent(ctx, in, domain.EmailEventReply)
}

func (s *CampaignService) recordEvent(ctx context.Context, in EmailEventInput, event domain.EmailEventType) error {
	switch {
	case in.AccountID == uuid.Nil:
		return missing("account_id")
	case in.SequenceID == uuid.Nil:
		return missing("sequence_id")
	case strings.TrimSpace(in.Email) == "":
		return missing("email")
	}

	seq, err := s.GetSequence(ctx, in.AccountID, in.SequenceID)
	if err != nil {
		return err
	}
	if in.StepID != nil && !hasStep(seq, *in.StepID) {
		return fmt.Errorf("sequence step %w", ErrNotFound)
	}

	err = s.emailEvents.Record(ctx, &domain.SequenceEmailEvent{
		AccountID:     in.AccountID,
		SequenceID:    in.SequenceID,
		StepID:        in.StepID,
		ProspectEmail: strings.ToLower(strings.TrimSpace(in.Email)),
		Event:         event,
	})
	if err != nil {
		return fmt.Errorf("record %s event: %w", event, err)
	}
	return nil
}

// SequenceAnalytics reports distinct recipients with event relative to those sent.
// A non-nil stepID narrows the figures to that step.
func (s *CampaignService) SequenceAnalytics(ctx context.Context, accountID, sequenceID uuid.UUID, stepID *uuid.UUID, event domain.EmailEventType) (*domain.EngagementAnalytics, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	if sequenceID == uuid.Nil {
		return nil, missing("sequence_id")
	}
	if event != domain.EmailEventOpen && event != domain.EmailEventReply {
		return nil, fmt.Errorf("%w: unsupported analytics event %q", ErrInvalidInput, event)
	}

	seq, err := s.GetSequence(ctx, accountID, sequenceID)
	if err != nil {
		return nil, err
	}
	if stepID != nil && !hasStep(seq, *stepID) {
		return nil, fmt.Errorf("sequence step %w", ErrNotFound)
	}

	sent, err := s.emailEvents.CountDistinct(ctx, accountID, sequenceID, stepID, domain.EmailEventSent)
	if err != nil {
		return nil, fmt.Errorf("count sent emails: %w", err)
	}
	count, err := s.emailEvents.CountDistinct(ctx, accountID, sequenceID, stepID, event)
	if err != nil {
		return nil, fmt.Errorf("count %s events: %w", event, err)
	}

	return &domain.EngagementAnalytics{
		SequenceID: sequenceID,
		StepID:     stepID,
		Event:      event,
		Sent:       sent,
		Count:      count,
		Rate:       domain.EngagementRate(count, sent),
	}, nil
}

func hasStep(seq *domain.Sequence, stepID uuid.UUID) bool {
	for _, st := range seq.Steps {
		if st.ID == stepID {
			return true
		}
	}
	return false
}
