package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProspectService struct {
	store  domain.ProspectStore
	logger *zap.Logger
}

func NewProspectService(ps domain.ProspectStore, logger *zap.Logger) *ProspectService {
	return &ProspectService{store: ps, logger: logger}
}

// DailyUpdates returns the best analyzed prospects of the account inside the
// digest confidence band.
func (s *ProspectService) DailyUpdates(ctx context.Context, accountID uuid.UUID) ([]domain.ProspectUpdate, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}

	analyzed, err := s.store.ListAnalyzedInBand(ctx, accountID, domain.DigestMinScore, domain.DigestMaxScore, domain.DigestLimit)
	if err != nil {
		return nil, fmt.Errorf("list analyzed prospects: %w", err)
	}
	if len(analyzed) == 0 {
		return []domain.ProspectUpdate{}, nil
	}

	upIDs := make([]string, len(analyzed))
	for i, ap := range analyzed {
		upIDs[i] = ap.UpID
	}
	prospects, err := s.store.ListByUpIDs(ctx, accountID, upIDs)
	if err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}

	updates := domain.MatchProspects(analyzed, prospects)
	s.logger.Debug("daily prospect updates",
		zap.String("account_id", accountID.String()),
		zap.Int("analyzed", len(analyzed)),
		zap.Int("matched", len(updates)))
	return updates, nil
}
