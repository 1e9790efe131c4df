package service

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// callLog records store calls in order across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type mockAgentStore struct {
	agents map[uuid.UUID]*domain.Agent
	log    *callLog
	// afterUpdate runs once an update has been applied.
	afterUpdate func(id uuid.UUID)
	// onDelete runs after the agent row is removed, the way ON DELETE CASCADE does.
	onDelete func(id uuid.UUID)
}

func newMockAgentStore(log *callLog) *mockAgentStore {
	return &mockAgentStore{agents: make(map[uuid.UUID]*domain.Agent), log: log}
}

func (m *mockAgentStore) Create(ctx context.Context, a *domain.Agent) error {
	m.log.add("agents.create")
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedOn = time.Now()
	a.UpdatedOn = a.CreatedOn
	cp := *a
	m.agents[a.ID] = &cp
	return nil
}

func (m *mockAgentStore) GetByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*domain.Agent, error) {
	m.log.add("agents.get")
	a, ok := m.agents[id]
	if !ok || a.AccountID != accountID {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAgentStore) GetUnscoped(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	a, ok := m.agents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAgentStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Agent, error) {
	var out []domain.Agent
	for _, a := range m.agents {
		if a.AccountID == accountID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockAgentStore) ListIDsByAccount(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for id, a := range m.agents {
		if a.AccountID == accountID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockAgentStore) Update(ctx context.Context, id uuid.UUID, accountID uuid.UUID, u domain.AgentUpdate) (*domain.Agent, error) {
	m.log.add("agents.update")
	a, ok := m.agents[id]
	if !ok || a.AccountID != accountID {
		return nil, store.ErrNotFound
	}
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Description != nil {
		a.Description = *u.Description
	}
	if u.Type != nil {
		a.Type = *u.Type
	}
	if u.IsArchived != nil {
		a.IsArchived = *u.IsArchived
	}
	if u.IsSharingEnabled != nil {
		a.IsSharingEnabled = *u.IsSharingEnabled
	}
	if u.UploadedFileS3Link != nil {
		link := *u.UploadedFileS3Link
		a.UploadedFileS3Link = &link
	}
	if u.ExecutionResultReviewStatus != nil {
		marker := *u.ExecutionResultReviewStatus
		a.ExecutionResultReviewStatus = &marker
	}
	a.UpdatedOn = time.Now().Add(time.Millisecond)
	cp := *a
	if m.afterUpdate != nil {
		m.afterUpdate(id)
	}
	return &cp, nil
}

func (m *mockAgentStore) Delete(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*domain.Agent, error) {
	m.log.add("agents.delete")
	a, ok := m.agents[id]
	if !ok || a.AccountID != accountID {
		return nil, store.ErrNotFound
	}
	delete(m.agents, id)
	if m.onDelete != nil {
		m.onDelete(id)
	}
	return a, nil
}

type mockStatusStore struct {
	events []domain.AgentStatusEvent
	log    *callLog
	// agents enforces the agent reference when set.
	agents *mockAgentStore
	// afterDelete runs once DeleteByAgent has removed the rows.
	afterDelete func(agentID uuid.UUID)
}

func newMockStatusStore(log *callLog) *mockStatusStore {
	return &mockStatusStore{log: log}
}

func (m *mockStatusStore) Append(ctx context.Context, e *domain.AgentStatusEvent) (bool, error) {
	m.log.add("statuses.append")
	if m.agents != nil {
		if _, ok := m.agents.agents[e.AgentID]; !ok {
			return false, store.ErrNotFound
		}
	}
	for _, existing := range m.events {
		if existing.ID == e.ID {
			if existing.AgentID != e.AgentID || existing.AccountID != e.AccountID {
				return false, store.ErrConflict
			}
			return false, nil
		}
	}
	if e.CreatedOn.IsZero() {
		e.CreatedOn = time.Now()
	}
	m.events = append(m.events, *e)
	return true, nil
}

func (m *mockStatusStore) ListByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) ([]domain.AgentStatusEvent, error) {
	m.log.add("statuses.list")
	var out []domain.AgentStatusEvent
	for _, e := range m.events {
		if e.AgentID == agentID && e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStatusStore) ListTerminalByAgents(ctx context.Context, agentIDs []uuid.UUID, accountID uuid.UUID) ([]domain.AgentStatusEvent, error) {
	want := make(map[uuid.UUID]bool, len(agentIDs))
	for _, id := range agentIDs {
		want[id] = true
	}
	var out []domain.AgentStatusEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if want[e.AgentID] && e.AccountID == accountID && e.State.Terminal() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStatusStore) ListFinishedByNames(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID, names []string) ([]domain.AgentStatusEvent, error) {
	var out []domain.AgentStatusEvent
	for _, e := range m.events {
		if e.AgentID != agentID || e.AccountID != accountID || e.State != domain.StateFinished {
			continue
		}
		for _, n := range names {
			if e.Name == n {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (m *mockStatusStore) DeleteByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) (int64, error) {
	m.log.add("statuses.delete")
	kept := m.events[:0]
	var n int64
	for _, e := range m.events {
		if e.AgentID == agentID && e.AccountID == accountID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	if m.afterDelete != nil {
		m.afterDelete(agentID)
	}
	return n, nil
}

// removeAgent drops every status row of the agent regardless of account.
func (m *mockStatusStore) removeAgent(agentID uuid.UUID) {
	kept := m.events[:0]
	for _, e := range m.events {
		if e.AgentID != agentID {
			kept = append(kept, e)
		}
	}
	m.events = kept
}

type mockArtifactStore struct {
	artifacts []domain.Artifact
	log       *callLog
}

func newMockArtifactStore(log *callLog) *mockArtifactStore {
	return &mockArtifactStore{log: log}
}

func (m *mockArtifactStore) ListByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) ([]domain.Artifact, error) {
	var out []domain.Artifact
	for _, a := range m.artifacts {
		if a.AgentID == agentID && a.AccountID == accountID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockArtifactStore) ListPendingByAgents(ctx context.Context, agentIDs []uuid.UUID, accountID uuid.UUID) ([]domain.Artifact, error) {
	want := make(map[uuid.UUID]bool, len(agentIDs))
	for _, id := range agentIDs {
		want[id] = true
	}
	var out []domain.Artifact
	for _, a := range m.artifacts {
		if want[a.AgentID] && a.AccountID == accountID && a.ReviewStatus.Status == domain.ReviewPending {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockArtifactStore) CountPendingByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	n := 0
	for _, a := range m.artifacts {
		if a.AccountID == accountID && a.ReviewStatus.Status == domain.ReviewPending {
			n++
		}
	}
	return n, nil
}

func (m *mockArtifactStore) UpdateReviewStatus(ctx context.Context, id uuid.UUID, accountID uuid.UUID, status domain.ReviewState) (*domain.Artifact, error) {
	for i := range m.artifacts {
		if m.artifacts[i].ID == id && m.artifacts[i].AccountID == accountID {
			m.artifacts[i].ReviewStatus = domain.ArtifactReview{Status: status, UpdatedOn: time.Now()}
			cp := m.artifacts[i]
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockArtifactStore) DeleteByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) (int64, error) {
	m.log.add("artifacts.delete")
	kept := m.artifacts[:0]
	var n int64
	for _, a := range m.artifacts {
		if a.AgentID == agentID && a.AccountID == accountID {
			n++
			continue
		}
		kept = append(kept, a)
	}
	m.artifacts = kept
	return n, nil
}

type mockReportStore struct {
	reports []domain.AgentReport
	log     *callLog
}

func (m *mockReportStore) ListByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) ([]domain.AgentReport, error) {
	var out []domain.AgentReport
	for _, r := range m.reports {
		if r.AgentID == agentID && r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReportStore) DeleteByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) (int64, error) {
	m.log.add("reports.delete")
	kept := m.reports[:0]
	var n int64
	for _, r := range m.reports {
		if r.AgentID == agentID && r.AccountID == accountID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.reports = kept
	return n, nil
}

// MockResearchClient mocks domain.ResearchClient.
type MockResearchClient struct {
	mock.Mock
}

func (m *MockResearchClient) SubmitResearch(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchAck, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResearchAck), args.Error(1)
}

// MockObjectStorage mocks domain.ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) Delete(ctx context.Context, link string) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

type recordingBroadcaster struct {
	calls [][]domain.AgentStatusEvent
	err   error
}

func (b *recordingBroadcaster) BroadcastAgentStatus(ctx context.Context, agentID uuid.UUID, events []domain.AgentStatusEvent) error {
	b.calls = append(b.calls, events)
	return b.err
}

type mockProspectStore struct {
	analyzed  []domain.AnalyzedProspect
	prospects []domain.Prospect
	limit     int
}

func (m *mockProspectStore) ListAnalyzedInBand(ctx context.Context, accountID uuid.UUID, minScore, maxScore float64, limit int) ([]domain.AnalyzedProspect, error) {
	m.limit = limit
	var out []domain.AnalyzedProspect
	for _, ap := range m.analyzed {
		if ap.AccountID == accountID && ap.Score >= minScore && ap.Score <= maxScore {
			out = append(out, ap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProspectStore) ListByUpIDs(ctx context.Context, accountID uuid.UUID, upIDs []string) ([]domain.Prospect, error) {
	want := make(map[string]bool, len(upIDs))
	for _, id := range upIDs {
		want[id] = true
	}
	var out []domain.Prospect
	for _, p := range m.prospects {
		if p.AccountID == accountID && want[p.UpID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockConversationStore struct {
	convs map[uuid.UUID]*domain.Conversation
}

func newMockConversationStore() *mockConversationStore {
	return &mockConversationStore{convs: make(map[uuid.UUID]*domain.Conversation)}
}

func (m *mockConversationStore) Create(ctx context.Context, c *domain.Conversation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedOn = time.Now()
	c.UpdatedOn = c.CreatedOn
	cp := *c
	m.convs[c.ID] = &cp
	return nil
}

func (m *mockConversationStore) GetByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID, userID uuid.UUID) (*domain.Conversation, error) {
	c, ok := m.convs[id]
	if !ok || c.AccountID != accountID || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *c
	cp.Messages = append([]domain.ConversationMessage(nil), c.Messages...)
	return &cp, nil
}

func (m *mockConversationStore) ListByUser(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range m.convs {
		if c.AccountID == accountID && c.UserID == userID {
			cp := *c
			cp.Messages = nil
			out = append(out, cp)
		}
	}
	return out, nil
}

func (m *mockConversationStore) AppendMessage(ctx context.Context, id uuid.UUID, accountID uuid.UUID, msg domain.ConversationMessage) error {
	c, ok := m.convs[id]
	if !ok || c.AccountID != accountID {
		return store.ErrNotFound
	}
	c.Messages = append(c.Messages, msg)
	return nil
}

func (m *mockConversationStore) UpdateTitle(ctx context.Context, id uuid.UUID, accountID uuid.UUID, title string) error {
	c, ok := m.convs[id]
	if !ok || c.AccountID != accountID {
		return store.ErrNotFound
	}
	c.Title = title
	return nil
}

func (m *mockConversationStore) Delete(ctx context.Context, id uuid.UUID, accountID uuid.UUID, userID uuid.UUID) error {
	c, ok := m.convs[id]
	if !ok || c.AccountID != accountID || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.convs, id)
	return nil
}

type mockSequenceStore struct {
	seqs map[uuid.UUID]*domain.Sequence
}

func newMockSequenceStore() *mockSequenceStore {
	return &mockSequenceStore{seqs: make(map[uuid.UUID]*domain.Sequence)}
}

func (m *mockSequenceStore) Create(ctx context.Context, s *domain.Sequence) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Steps {
		s.Steps[i].SequenceID = s.ID
		s.Steps[i].AccountID = s.AccountID
	}
	cp := *s
	m.seqs[s.ID] = &cp
	return nil
}

func (m *mockSequenceStore) GetByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*domain.Sequence, error) {
	s, ok := m.seqs[id]
	if !ok || s.AccountID != accountID {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSequenceStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Sequence, error) {
	var out []domain.Sequence
	for _, s := range m.seqs {
		if s.AccountID == accountID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type mockEmailEventStore struct {
	events []domain.SequenceEmailEvent
}

func (m *mockEmailEventStore) Record(ctx context.Context, e *domain.SequenceEmailEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *mockEmailEventStore) CountDistinct(ctx context.Context, accountID uuid.UUID, sequenceID uuid.UUID, stepID *uuid.UUID, event domain.EmailEventType) (int, error) {
	seen := map[string]bool{}
	for _, e := range m.events {
		if e.AccountID != accountID || e.SequenceID != sequenceID || e.Event != event {
			continue
		}
		if stepID != nil && (e.StepID == nil || *e.StepID != *stepID) {
			continue
		}
		seen[e.ProspectEmail] = true
	}
	return len(seen), nil
}

func (m *mockEmailEventStore) CountByAccount(ctx context.Context, accountID uuid.UUID, event domain.EmailEventType) (int, error) {
	n := 0
	for _, e := range m.events {
		if e.AccountID == accountID && e.Event == event {
			n++
		}
	}
	return n, nil
}

// MockConverseClient mocks domain.ConverseClient.
type MockConverseClient struct {
	mock.Mock
}

func (m *MockConverseClient) Converse(ctx context.Context, req domain.ConverseRequest) (*domain.ConverseResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConverseResponse), args.Error(1)
}

type stubLLM struct {
	title string
	err   error
	calls int
}

func (s *stubLLM) Title(ctx context.Context, conversation []domain.Message) (string, error) {
	s.calls++
	return s.title, s.err
}

func rawJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
