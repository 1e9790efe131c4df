package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Harshitk-cp/outreach/internal/api/middleware"
	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAgentService struct {
	mock.Mock
}

func agentOrNil(args mock.Arguments) *domain.Agent {
	a, _ := args.Get(0).(*domain.Agent)
	return a
}

func (m *MockAgentService) Create(ctx context.Context, in service.CreateAgentInput) (*domain.Agent, error) {
	args := m.Called(ctx, in)
	return agentOrNil(args), args.Error(1)
}

func (m *MockAgentService) Get(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error) {
	args := m.Called(ctx, accountID, agentID)
	return agentOrNil(args), args.Error(1)
}

func (m *MockAgentService) Update(ctx context.Context, in service.UpdateAgentInput) (*domain.Agent, error) {
	args := m.Called(ctx, in)
	return agentOrNil(args), args.Error(1)
}

func (m *MockAgentService) SetSharing(ctx context.Context, accountID, agentID uuid.UUID, enabled bool) (*domain.Agent, error) {
	args := m.Called(ctx, accountID, agentID, enabled)
	return agentOrNil(args), args.Error(1)
}

func (m *MockAgentService) List(ctx context.Context, accountID uuid.UUID, withStatus bool) ([]domain.Agent, error) {
	args := m.Called(ctx, accountID, withStatus)
	agents, _ := args.Get(0).([]domain.Agent)
	return agents, args.Error(1)
}

func (m *MockAgentService) Pause(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error) {
	args := m.Called(ctx, accountID, agentID)
	return agentOrNil(args), args.Error(1)
}

func (m *MockAgentService) Resume(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error) {
	args := m.Called(ctx, accountID, agentID)
	return agentOrNil(args), args.Error(1)
}

func (m *MockAgentService) Archive(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error) {
	args := m.Called(ctx, accountID, agentID)
	return agentOrNil(args), args.Error(1)
}

func (m *MockAgentService) Delete(ctx context.Context, accountID, agentID uuid.UUID) error {
	return m.Called(ctx, accountID, agentID).Error(0)
}

func (m *MockAgentService) Execute(ctx context.Context, in service.ExecuteInput) (*domain.Agent, error) {
	args := m.Called(ctx, in)
	return agentOrNil(args), args.Error(1)
}

func (m *MockAgentService) HandleExecutionUpdate(ctx context.Context, u service.ExecutionUpdate) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockAgentService) StatusUpdates(ctx context.Context, accountID, agentID uuid.UUID) (*service.StatusUpdates, error) {
	args := m.Called(ctx, accountID, agentID)
	su, _ := args.Get(0).(*service.StatusUpdates)
	return su, args.Error(1)
}

func (m *MockAgentService) ReviewArtifact(ctx context.Context, accountID, artifactID uuid.UUID, status string) (*domain.Artifact, error) {
	args := m.Called(ctx, accountID, artifactID, status)
	a, _ := args.Get(0).(*domain.Artifact)
	return a, args.Error(1)
}

func (m *MockAgentService) PendingArtifacts(ctx context.Context, accountID uuid.UUID) (domain.ArtifactGroups, error) {
	args := m.Called(ctx, accountID)
	g, _ := args.Get(0).(domain.ArtifactGroups)
	return g, args.Error(1)
}

func (m *MockAgentService) GetPublic(ctx context.Context, agentID uuid.UUID) (*domain.PublicAgent, error) {
	args := m.Called(ctx, agentID)
	p, _ := args.Get(0).(*domain.PublicAgent)
	return p, args.Error(1)
}

func (m *MockAgentService) PublicStatusUpdates(ctx context.Context, agentID uuid.UUID) (*service.StatusUpdates, error) {
	args := m.Called(ctx, agentID)
	su, _ := args.Get(0).(*service.StatusUpdates)
	return su, args.Error(1)
}

type MockProspectService struct {
	mock.Mock
}

func (m *MockProspectService) DailyUpdates(ctx context.Context, accountID uuid.UUID) ([]domain.ProspectUpdate, error) {
	args := m.Called(ctx, accountID)
	u, _ := args.Get(0).([]domain.ProspectUpdate)
	return u, args.Error(1)
}

type MockConversationService struct {
	mock.Mock
}

func (m *MockConversationService) Create(ctx context.Context, accountID, userID uuid.UUID, isDemo bool) (*domain.Conversation, error) {
	args := m.Called(ctx, accountID, userID, isDemo)
	c, _ := args.Get(0).(*domain.Conversation)
	return c, args.Error(1)
}

func (m *MockConversationService) List(ctx context.Context, accountID, userID uuid.UUID) ([]domain.Conversation, error) {
	args := m.Called(ctx, accountID, userID)
	c, _ := args.Get(0).([]domain.Conversation)
	return c, args.Error(1)
}

func (m *MockConversationService) Get(ctx context.Context, accountID, userID, id uuid.UUID) (*domain.Conversation, error) {
	args := m.Called(ctx, accountID, userID, id)
	c, _ := args.Get(0).(*domain.Conversation)
	return c, args.Error(1)
}

func (m *MockConversationService) Delete(ctx context.Context, accountID, userID, id uuid.UUID) error {
	return m.Called(ctx, accountID, userID, id).Error(0)
}

func (m *MockConversationService) Converse(ctx context.Context, in service.ConverseInput) (*domain.ConverseResponse, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*domain.ConverseResponse)
	return r, args.Error(1)
}

func (m *MockConversationService) ReviewUpdates(ctx context.Context, accountID, userID uuid.UUID) ([]domain.ReviewUpdate, error) {
	args := m.Called(ctx, accountID, userID)
	u, _ := args.Get(0).([]domain.ReviewUpdate)
	return u, args.Error(1)
}

type MockCampaignService struct {
	mock.Mock
}

func (m *MockCampaignService) ListSequences(ctx context.Context, accountID uuid.UUID) ([]domain.Sequence, error) {
	args := m.Called(ctx, accountID)
	s, _ := args.Get(0).([]domain.Sequence)
	return s, args.Error(1)
}

func (m *MockCampaignService) GetSequence(ctx context.Context, accountID, sequenceID uuid.UUID) (*domain.Sequence, error) {
	args := m.Called(ctx, accountID, sequenceID)
	s, _ := args.Get(0).(*domain.Sequence)
	return s, args.Error(1)
}

func (m *MockCampaignService) RecordEmailOpen(ctx context.Context, in service.EmailEventInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockCampaignService) SequenceAnalytics(ctx context.Context, accountID, sequenceID uuid.UUID, stepID *uuid.UUID, event domain.EmailEventType) (*domain.EngagementAnalytics, error) {
	args := m.Called(ctx, accountID, sequenceID, stepID, event)
	a, _ := args.Get(0).(*domain.EngagementAnalytics)
	return a, args.Error(1)
}

type fakeUserStore struct {
	users map[string]*domain.User
	err   error
}

func (f *fakeUserStore) Create(_ context.Context, u *domain.User) error {
	if f.err != nil {
		return f.err
	}
	u.ID = uuid.New()
	f.users[u.APIKeyHash] = u
	return nil
}

func (f *fakeUserStore) GetByAPIKeyHash(_ context.Context, hash string) (*domain.User, error) {
	u, ok := f.users[hash]
	if !ok {
		return nil, io.EOF
	}
	return u, nil
}

var testUser = &domain.User{ID: uuid.MustParse("7b4f1c2e-8d5a-4e3b-9f60-1a2b3c4d5e6f"), Email: "owner@example.com"}

// authed builds a request that already carries testUser.
func authed(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUser(req.Context(), testUser))
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
