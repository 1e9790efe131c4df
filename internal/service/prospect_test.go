package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProspectService_DailyUpdates(t *testing.T) {
	accountID := uuid.New()
	ps := &mockProspectStore{
		analyzed: []domain.AnalyzedProspect{
			{UpID: "p1", AccountID: accountID, Score: 0.91, Reasoning: []domain.ProspectReason{{Reason: "Hiring SDRs", SourceText: "Careers page"}}},
			{UpID: "p2", AccountID: accountID, Score: 0.97},
			{UpID: "p3", AccountID: accountID, Score: 0.94},
			{UpID: "p4", AccountID: accountID, Score: 0.93},
		},
		prospects: []domain.Prospect{
			{UpID: "p1", AccountID: accountID, FirstName: "Ada", LastName: "Lovelace", LinkedInURL: "https://linkedin.com/in/ada"},
			{UpID: "p2", AccountID: accountID, FirstName: "Out", LinkedInURL: "https://linkedin.com/in/out"},
			{UpID: "p3", AccountID: accountID, FirstName: "Grace", LinkedInURL: "https://linkedin.com/in/grace"},
			{UpID: "p4", AccountID: accountID, FirstName: "NoLink"},
		},
	}
	svc := NewProspectService(ps, zap.NewNop())

	updates, err := svc.DailyUpdates(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, domain.DigestLimit, ps.limit)

	require.Len(t, updates, 2)
	assert.Equal(t, "p3", updates[0].UpID)
	assert.Equal(t, 94.0, updates[0].Score)
	assert.Equal(t, "p1", updates[1].UpID)
	assert.Equal(t, "Ada Lovelace", updates[1].Name)
	assert.Equal(t, "Hiring SDRs.", updates[1].Insights)
	assert.Equal(t, "Careers page.", updates[1].References)
}

func TestProspectService_DailyUpdates_Empty(t *testing.T) {
	svc := NewProspectService(&mockProspectStore{}, zap.NewNop())

	updates, err := svc.DailyUpdates(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, updates)
	assert.Empty(t, updates)

	_, err = svc.DailyUpdates(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrMissingInput)
}
