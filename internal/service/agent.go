package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecuteConfig holds what the service needs to hand a run to the AI backend.
type ExecuteConfig struct {
	AIBotServerURL   string
	AIBotServerToken string
	// CallbackBaseURL is prefixed to the execution callback path.
	CallbackBaseURL string
	ResourcePrefix  string
	TestUserIDs     []string
}

func (c ExecuteConfig) isTestUser(userID uuid.UUID) bool {
	for _, id := range c.TestUserIDs {
		if id == userID.String() {
			return true
		}
	}
	return false
}

// CallbackURL builds the async status callback handed to the AI backend.
func (c ExecuteConfig) CallbackURL(agentID uuid.UUID) string {
	return strings.TrimRight(c.CallbackBaseURL, "/") +
		"/api/agent/execution_update_async?secretKey=" + url.QueryEscape(c.AIBotServerToken) +
		"&agent_id=" + agentID.String()
}

type AgentService struct {
	agentStore    domain.AgentStore
	statusStore   domain.AgentStatusStore
	artifactStore domain.ArtifactStore
	reportStore   domain.AgentReportStore
	research      domain.ResearchClient
	objects       domain.ObjectStorage
	broadcaster   domain.StatusBroadcaster
	execCfg       ExecuteConfig
	now           func() time.Time
	logger        *zap.Logger
}

func NewAgentService(as domain.AgentStore, ss domain.AgentStatusStore, afs domain.ArtifactStore, rs domain.AgentReportStore, logger *zap.Logger) *AgentService {
	return &AgentService{
		agentStore:    as,
		statusStore:   ss,
		artifactStore: afs,
		reportStore:   rs,
		now:           time.Now,
		logger:        logger,
	}
}

func (s *AgentService) SetResearchClient(rc domain.ResearchClient) {
	s.research = rc
}

func (s *AgentService) SetObjectStorage(o domain.ObjectStorage) {
	s.objects = o
}

func (s *AgentService) SetBroadcaster(b domain.StatusBroadcaster) {
	s.broadcaster = b
}

func (s *AgentService) SetExecuteConfig(cfg ExecuteConfig) {
	s.execCfg = cfg
}

type CreateAgentInput struct {
	AccountID   uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	Type        string
}

func (in CreateAgentInput) validate() error {
	if in.AccountID == uuid.Nil {
		return missing("account_id")
	}
	if in.UserID == uuid.Nil {
		return missing("user")
	}
	return validateAgentFields(in.Name, in.Description, in.Type)
}

func validateAgentFields(name, description, typ string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return missing("name")
	case strings.TrimSpace(description) == "":
		return missing("description")
	case typ == "":
		return missing("type")
	case !domain.ValidAgentType(typ):
		return ErrInvalidAgentType
	}
	return nil
}

func (s *AgentService) Create(ctx context.Context, in CreateAgentInput) (*domain.Agent, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	a := &domain.Agent{
		ID:          uuid.New(),
		AccountID:   in.AccountID,
		CreatedBy:   in.UserID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Type:        domain.AgentType(in.Type),
	}
	if err := s.agentStore.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	ev, err := s.appendStatus(ctx, a, domain.StatusCreated)
	if err != nil {
		return nil, err
	}
	a.Status = ev.Label()

	s.logger.Info("agent created",
		zap.String("agent_id", a.ID.String()),
		zap.String("account_id", a.AccountID.String()),
		zap.String("type", string(a.Type)))
	return a, nil
}

func (s *AgentService) Get(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	if agentID == uuid.Nil {
		return nil, missing("agent_id")
	}
	return s.getAgent(ctx, accountID, agentID)
}

// GetPublic resolves an agent for unauthenticated viewers. The document is only
// exposed when sharing is enabled on it.
func (s *AgentService) GetPublic(ctx context.Context, agentID uuid.UUID) (*domain.PublicAgent, error) {
	if agentID == uuid.Nil {
		return nil, missing("agent_id")
	}
	a, err := s.agentStore.GetUnscoped(ctx, agentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &domain.PublicAgent{}, nil
		}
		return nil, err
	}

	out := &domain.PublicAgent{IsFound: true, IsPublic: a.IsSharingEnabled}
	if a.IsSharingEnabled {
		out.AgentDoc = a
	}
	return out, nil
}

type UpdateAgentInput struct {
	AccountID   uuid.UUID
	AgentID     uuid.UUID
	Name        string
	Description string
	Type        string
}

func (s *AgentService) Update(ctx context.Context, in UpdateAgentInput) (*domain.Agent, error) {
	if in.AccountID == uuid.Nil {
		return nil, missing("account_id")
	}
	if in.AgentID == uuid.Nil {
		return nil, missing("agent_id")
	}
	if err := validateAgentFields(in.Name, in.Description, in.Type); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	typ := domain.AgentType(in.Type)
	return s.updateAgent(ctx, in.AccountID, in.AgentID, domain.AgentUpdate{
		Name:        &name,
		Description: &desc,
		Type:        &typ,
	})
}

func (s *AgentService) SetSharing(ctx context.Context, accountID, agentID uuid.UUID, enabled bool) (*domain.Agent, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	if agentID == uuid.Nil {
		return nil, missing("agent_id")
	}
	return s.updateAgent(ctx, accountID, agentID, domain.AgentUpdate{IsSharingEnabled: &enabled})
}

// List returns the account's agents. With withStatus each agent carries the label
// of its latest terminal status event.
func (s *AgentService) List(ctx context.Context, accountID uuid.UUID, withStatus bool) ([]domain.Agent, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	agents, err := s.agentStore.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if agents == nil {
		agents = []domain.Agent{}
	}
	if !withStatus || len(agents) == 0 {
		return agents, nil
	}

	ids := make([]uuid.UUID, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
	}
	events, err := s.statusStore.ListTerminalByAgents(ctx, ids, accountID)
	if err != nil {
		return nil, fmt.Errorf("list agent statuses: %w", err)
	}

	labels := make(map[uuid.UUID]string, len(agents))
	for i := range events {
		if _, seen := labels[events[i].AgentID]; seen {
			continue
		}
		labels[events[i].AgentID] = events[i].Label()
	}
	for i := range agents {
		agents[i].Status = labels[agents[i].ID]
	}
	return agents, nil
}

func (s *AgentService) Pause(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error) {
	return s.transition(ctx, accountID, agentID, domain.StatusPaused, domain.AgentUpdate{})
}

func (s *AgentService) Resume(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error) {
	return s.transition(ctx, accountID, agentID, domain.StatusRunning, domain.AgentUpdate{})
}

func (s *AgentService) Archive(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error) {
	archived := true
	return s.transition(ctx, accountID, agentID, domain.StatusArchived, domain.AgentUpdate{IsArchived: &archived})
}

func (s *AgentService) transition(ctx context.Context, accountID, agentID uuid.UUID, status string, u domain.AgentUpdate) (*domain.Agent, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	if agentID == uuid.Nil {
		return nil, missing("agent_id")
	}

	a, err := s.updateAgent(ctx, accountID, agentID, u)
	if err != nil {
		return nil, err
	}
	ev, err := s.appendStatus(ctx, a, status)
	if err != nil {
		return nil, err
	}
	a.Status = ev.Label()
	return a, nil
}

// Delete removes the agent and everything it produced. Children go first; the
// uploaded file is removed last and its failure only logged.
func (s *AgentService) Delete(ctx context.Context, accountID, agentID uuid.UUID) error {
	if accountID == uuid.Nil {
		return missing("account_id")
	}
	if agentID == uuid.Nil {
		return missing("agent_id")
	}

	a, err := s.getAgent(ctx, accountID, agentID)
	if err != nil {
		return err
	}

	logger := s.logger.With(zap.String("agent_id", agentID.String()), zap.String("account_id", accountID.String()))

	artifacts, err := s.artifactStore.DeleteByAgent(ctx, agentID, accountID)
	if err != nil {
		return fmt.Errorf("delete agent artifacts: %w", err)
	}
	statuses, err := s.statusStore.DeleteByAgent(ctx, agentID, accountID)
	if err != nil {
		return fmt.Errorf("delete agent statuses: %w", err)
	}
	reports, err := s.reportStore.DeleteByAgent(ctx, agentID, accountID)
	if err != nil {
		return fmt.Errorf("delete agent reports: %w", err)
	}
	if _, err := s.agentStore.Delete(ctx, agentID, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAgentNotFound
		}
		return fmt.Errorf("delete agent: %w", err)
	}

	logger.Info("agent deleted",
		zap.Int64("artifacts", artifacts),
		zap.Int64("statuses", statuses),
		zap.Int64("reports", reports))

	if a.UploadedFileS3Link != nil && *a.UploadedFileS3Link != "" && s.objects != nil {
		if err := s.objects.Delete(ctx, *a.UploadedFileS3Link); err != nil {
			logger.Error("failed to delete uploaded agent file",
				zap.String("link", *a.UploadedFileS3Link), zap.Error(err))
		}
	}
	return nil
}

type ExecuteInput struct {
	AccountID uuid.UUID
	UserID    uuid.UUID
	AgentID   uuid.UUID
	// Agent skips the lookup when the caller already loaded it.
	Agent        *domain.Agent
	UserTimezone string
	// File is an optional CSV forwarded to the AI backend through object storage.
	File io.Reader
}

// Execute submits a run to the AI backend. Progress arrives later through
// HandleExecutionUpdate.
func (s *AgentService) Execute(ctx context.Context, in ExecuteInput) (*domain.Agent, error) {
	if in.AccountID == uuid.Nil {
		return nil, missing("account_id")
	}
	if in.UserID == uuid.Nil {
		return nil, missing("user")
	}
	if in.Agent == nil && in.AgentID == uuid.Nil {
		return nil, missing("agent_id")
	}

	a := in.Agent
	if a == nil {
		var err error
		if a, err = s.getAgent(ctx, in.AccountID, in.AgentID); err != nil {
			return nil, err
		}
	}

	if s.execCfg.AIBotServerURL == "" || s.execCfg.AIBotServerToken == "" || s.research == nil {
		return nil, ErrAIBotNotConfigured
	}

	logger := s.logger.With(zap.String("agent_id", a.ID.String()), zap.String("account_id", in.AccountID.String()))

	var link string
	if in.File != nil {
		if s.objects == nil {
			return nil, fmt.Errorf("%w: object storage not configured", ErrUpstream)
		}
		var err error
		link, err = s.objects.Upload(ctx, s.uploadKey(a.ID), in.File, "text/csv")
		if err != nil {
			return nil, fmt.Errorf("%w: upload agent file: %v", ErrUpstream, err)
		}
		if _, err := s.updateAgent(ctx, in.AccountID, a.ID, domain.AgentUpdate{UploadedFileS3Link: &link}); err != nil {
			return nil, err
		}
		logger.Info("agent file uploaded", zap.String("link", link))
	}

	req := domain.ResearchRequest{
		SecretKey:          s.execCfg.AIBotServerToken,
		AgentID:            a.ID.String(),
		Query:              researchQuery(a),
		UserTimezone:       in.UserTimezone,
		AsyncURL:           s.execCfg.CallbackURL(a.ID),
		UserID:             in.UserID.String(),
		AccountID:          in.AccountID.String(),
		UploadedFileS3Link: link,
	}
	if s.execCfg.isTestUser(in.UserID) {
		limit := false
		req.LimitOutput = &limit
	}

	ack, err := s.research.SubmitResearch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: submit research: %v", ErrUpstream, err)
	}
	logger.Info("agent execution submitted", zap.Bool("ack", ack != nil && ack.Success))

	updated, err := s.updateAgent(ctx, in.AccountID, a.ID, domain.AgentUpdate{})
	if err != nil {
		return nil, err
	}
	ev, err := s.appendStatus(ctx, updated, domain.StatusRunning)
	if err != nil {
		return nil, err
	}
	updated.Status = ev.Label()
	return updated, nil
}

func (s *AgentService) uploadKey(agentID uuid.UUID) string {
	name := strings.ReplaceAll(agentID.String(), "-", "_") + "_" + strconv.FormatInt(s.now().UnixMilli(), 10) + ".csv"
	prefix := strings.TrimRight(s.execCfg.ResourcePrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func researchQuery(a *domain.Agent) string {
	if a.Description != "" {
		return a.Description
	}
	return a.Name
}

// ExecutionUpdate is a phase report posted back by the AI backend.
type ExecutionUpdate struct {
	AgentID            string
	AccountID          string
	StatusID           string
	StatusName         string
	State              string
	ResultData         json.RawMessage
	Message            string
	ProgressPercentage *int
}

func (u ExecutionUpdate) parse() (agentID, accountID, statusID uuid.UUID, err error) {
	switch {
	case u.AgentID == "":
		return agentID, accountID, statusID, missing("agent_id")
	case u.AccountID == "":
		return agentID, accountID, statusID, missing("account_id")
	case u.StatusID == "":
		return agentID, accountID, statusID, missing("status_id")
	case u.StatusName == "":
		return agentID, accountID, statusID, missing("status_name")
	case u.State == "":
		return agentID, accountID, statusID, missing("state")
	case !domain.ValidStatusState(u.State):
		return agentID, accountID, statusID, ErrInvalidStatusState
	}
	if agentID, err = uuid.Parse(u.AgentID); err != nil {
		return agentID, accountID, statusID, invalid("agent_id")
	}
	if accountID, err = uuid.Parse(u.AccountID); err != nil {
		return agentID, accountID, statusID, invalid("account_id")
	}
	if statusID, err = uuid.Parse(u.StatusID); err != nil {
		return agentID, accountID, statusID, invalid("status_id")
	}
	return agentID, accountID, statusID, nil
}

// HandleExecutionUpdate records a phase report and pushes the agent's full status
// history to live clients. An agent deleted mid-run yields ErrAgentNotFound and
// nothing is written.
func (s *AgentService) HandleExecutionUpdate(ctx context.Context, u ExecutionUpdate) error {
	agentID, accountID, statusID, err := u.parse()
	if err != nil {
		return err
	}

	notSeen := domain.ReviewMarkerNotSeen
	if _, err := s.updateAgent(ctx, accountID, agentID, domain.AgentUpdate{ExecutionResultReviewStatus: &notSeen}); err != nil {
		return err
	}

	ev := &domain.AgentStatusEvent{
		ID:                 statusID,
		AccountID:          accountID,
		AgentID:            agentID,
		Name:               u.StatusName,
		State:              domain.StatusState(u.State),
		ResultData:         u.ResultData,
		Message:            u.Message,
		ProgressPercentage: u.ProgressPercentage,
		CreatedOn:          s.now().UTC(),
	}
	inserted, err := s.statusStore.Append(ctx, ev)
	if err != nil {
		return statusAppendError("agent", err)
	}

	logger := s.logger.With(zap.String("agent_id", agentID.String()), zap.String("account_id", accountID.String()))
	if !inserted {
		logger.Info("duplicate execution update ignored", zap.String("status_id", statusID.String()))
	}

	history, err := s.statusStore.ListByAgent(ctx, agentID, accountID)
	if err != nil {
		return fmt.Errorf("list agent statuses: %w", err)
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastAgentStatus(ctx, agentID, history); err != nil {
			logger.Warn("failed to broadcast agent status", zap.Error(err))
		}
	}
	logger.Debug("execution update handled",
		zap.String("status", u.StatusName),
		zap.String("state", u.State),
		zap.Int("history", len(history)))
	return nil
}

// StatusUpdates is the progress view of one agent run.
type StatusUpdates struct {
	ArtifactsInfo    *domain.ArtifactGroup `json:"artifacts_info"`
	CrawledWebsites  json.RawMessage       `json:"crawled_websites"`
	FoundProfiles    json.RawMessage       `json:"found_profiles"`
	MapSearchResults json.RawMessage       `json:"map_search_results"`
}

var emptyList = json.RawMessage("[]")

func (s *AgentService) StatusUpdates(ctx context.Context, accountID, agentID uuid.UUID) (*StatusUpdates, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	if agentID == uuid.Nil {
		return nil, missing("agent_id")
	}
	if _, err := s.getAgent(ctx, accountID, agentID); err != nil {
		return nil, err
	}
	return s.statusUpdates(ctx, accountID, agentID)
}

// PublicStatusUpdates serves the progress view of a shared agent.
func (s *AgentService) PublicStatusUpdates(ctx context.Context, agentID uuid.UUID) (*StatusUpdates, error) {
	if agentID == uuid.Nil {
		return nil, missing("agent_id")
	}
	a, err := s.agentStore.GetUnscoped(ctx, agentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	if !a.IsSharingEnabled {
		return nil, ErrAgentNotFound
	}
	return s.statusUpdates(ctx, a.AccountID, a.ID)
}

func (s *AgentService) statusUpdates(ctx context.Context, accountID, agentID uuid.UUID) (*StatusUpdates, error) {
	artifacts, err := s.artifactStore.ListByAgent(ctx, agentID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	events, err := s.statusStore.ListFinishedByNames(ctx, agentID, accountID,
		[]string{domain.StatusSearchOnline, domain.StatusFindProfiles, domain.StatusMapSearchOnline})
	if err != nil {
		return nil, fmt.Errorf("list agent statuses: %w", err)
	}

	out := &StatusUpdates{
		ArtifactsInfo:    domain.GroupArtifactsByType(artifacts).First(),
		CrawledWebsites:  firstResult(events, domain.StatusSearchOnline),
		FoundProfiles:    firstResult(events, domain.StatusFindProfiles),
		MapSearchResults: firstResult(events, domain.StatusMapSearchOnline),
	}
	return out, nil
}

func firstResult(events []domain.AgentStatusEvent, name string) json.RawMessage {
	for _, e := range events {
		if e.Name == name && len(e.ResultData) > 0 && string(e.ResultData) != "null" {
			return e.ResultData
		}
	}
	return emptyList
}

func (s *AgentService) ReviewArtifact(ctx context.Context, accountID, artifactID uuid.UUID, status string) (*domain.Artifact, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	if artifactID == uuid.Nil {
		return nil, missing("artifact_id")
	}
	if status == "" {
		return nil, missing("status")
	}
	if !domain.ValidReviewDecision(status) {
		return nil, ErrInvalidReviewStatus
	}

	a, err := s.artifactStore.UpdateReviewStatus(ctx, artifactID, accountID, domain.ReviewState(status))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("update artifact review: %w", err)
	}
	return a, nil
}

// PendingArtifacts groups every unreviewed artifact of the account's agents by type.
func (s *AgentService) PendingArtifacts(ctx context.Context, accountID uuid.UUID) (domain.ArtifactGroups, error) {
	if accountID == uuid.Nil {
		return nil, missing("account_id")
	}
	ids, err := s.agentStore.ListIDsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list agent ids: %w", err)
	}
	artifacts, err := s.artifactStore.ListPendingByAgents(ctx, ids, accountID)
	if err != nil {
		return nil, fmt.Errorf("list pending artifacts: %w", err)
	}
	return domain.GroupArtifactsByType(artifacts), nil
}

func (s *AgentService) getAgent(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error) {
	a, err := s.agentStore.GetByID(ctx, agentID, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

func (s *AgentService) updateAgent(ctx context.Context, accountID, agentID uuid.UUID, u domain.AgentUpdate) (*domain.Agent, error) {
	a, err := s.agentStore.Update(ctx, agentID, accountID, u)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("update agent: %w", err)
	}
	return a, nil
}

func (s *AgentService) appendStatus(ctx context.Context, a *domain.Agent, name string) (*domain.AgentStatusEvent, error) {
	ev := &domain.AgentStatusEvent{
		ID:        uuid.New(),
		AccountID: a.AccountID,
		AgentID:   a.ID,
		Name:      name,
		State:     domain.StateNotApplicable,
		CreatedOn: s.now().UTC(),
	}
	if _, err := s.statusStore.Append(ctx, ev); err != nil {
		return nil, statusAppendError(name, err)
	}
	return ev, nil
}

// statusAppendError translates store failures of a status append. The log
// references its agent, so a missing agent surfaces as ErrAgentNotFound.
func statusAppendError(name string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrAgentNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrStatusIDTaken
	}
	return fmt.Errorf("append %s status: %w", name, err)
}
