package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AgentService is the agent lifecycle surface the handlers need.
type AgentService interface {
	Create(ctx context.Context, in service.CreateAgentInput) (*domain.Agent, error)
	Get(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error)
	Update(ctx context.Context, in service.UpdateAgentInput) (*domain.Agent, error)
	SetSharing(ctx context.Context, accountID, agentID uuid.UUID, enabled bool) (*domain.Agent, error)
	List(ctx context.Context, accountID uuid.UUID, withStatus bool) ([]domain.Agent, error)
	Pause(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error)
	Resume(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error)
	Archive(ctx context.Context, accountID, agentID uuid.UUID) (*domain.Agent, error)
	Delete(ctx context.Context, accountID, agentID uuid.UUID) error
	Execute(ctx context.Context, in service.ExecuteInput) (*domain.Agent, error)
	HandleExecutionUpdate(ctx context.Context, u service.ExecutionUpdate) error
	StatusUpdates(ctx context.Context, accountID, agentID uuid.UUID) (*service.StatusUpdates, error)
	ReviewArtifact(ctx context.Context, accountID, artifactID uuid.UUID, status string) (*domain.Artifact, error)
	PendingArtifacts(ctx context.Context, accountID uuid.UUID) (domain.ArtifactGroups, error)
}

type ProspectService interface {
	DailyUpdates(ctx context.Context, accountID uuid.UUID) ([]domain.ProspectUpdate, error)
}

type AgentHandler struct {
	svc       AgentService
	prospects ProspectService
	// callbackSecret authenticates the AI backend on the execution callback.
	callbackSecret string
	logger         *zap.Logger
}

func NewAgentHandler(svc AgentService, prospects ProspectService, callbackSecret string, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{svc: svc, prospects: prospects, callbackSecret: callbackSecret, logger: logger}
}

type agentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	accountID, ok := queryUUID(w, r, "account_id")
	if !ok {
		return
	}
	var req agentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	agent, err := h.svc.Create(r.Context(), service.CreateAgentInput{
		AccountID:   accountID,
		UserID:      user.ID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error creating agent")
		return
	}
	writeOK(w, "Agent created successfully", agent)
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, agentID, ok := h.agentParams(w, r)
	if !ok {
		return
	}
	agent, err := h.svc.Get(r.Context(), accountID, agentID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching agent")
		return
	}
	writeOK(w, "Agent fetched successfully", agent)
}

func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, agentID, ok := h.agentParams(w, r)
	if !ok {
		return
	}
	var req agentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	agent, err := h.svc.Update(r.Context(), service.UpdateAgentInput{
		AccountID:   accountID,
		AgentID:     agentID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error updating agent")
		return
	}
	writeOK(w, "Agent updated successfully", agent)
}

func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, agentID, ok := h.agentParams(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), accountID, agentID); err != nil {
		writeServiceError(w, r, h.logger, err, "Error deleting agent")
		return
	}
	writeOK(w, "Agent deleted successfully", nil)
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	accountID, ok := queryUUID(w, r, "account_id")
	if !ok {
		return
	}
	withStatus, _ := strconv.ParseBool(r.URL.Query().Get("with_status"))

	agents, err := h.svc.List(r.Context(), accountID, withStatus)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error listing agents")
		return
	}
	writeOK(w, "Agents fetched successfully", agents)
}

func (h *AgentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Archive, "Agent archived successfully", "Error archiving agent")
}

func (h *AgentHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Pause, "Agent paused successfully", "Error pausing agent")
}

func (h *AgentHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Resume, "Agent resumed successfully", "Error resuming agent")
}

func (h *AgentHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, uuid.UUID) (*domain.Agent, error), okMsg, errMsg string) {
	accountID, agentID, ok := h.agentParams(w, r)
	if !ok {
		return
	}
	agent, err := fn(r.Context(), accountID, agentID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, errMsg)
		return
	}
	writeOK(w, okMsg, agent)
}

type shareRequest struct {
	IsSharingEnabled *bool `json:"is_sharing_enabled"`
}

func (h *AgentHandler) Share(w http.ResponseWriter, r *http.Request) {
	accountID, agentID, ok := h.agentParams(w, r)
	if !ok {
		return
	}
	var req shareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsSharingEnabled == nil {
		writeError(w, http.StatusBadRequest, "is_sharing_enabled is required")
		return
	}
	agent, err := h.svc.SetSharing(r.Context(), accountID, agentID, *req.IsSharingEnabled)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error updating agent sharing")
		return
	}
	writeOK(w, "Agent sharing updated successfully", agent)
}

type executeRequest struct {
	UserTimezone string `json:"user_timezone"`
}

// Execute accepts JSON or a multipart form whose optional "file" part is the
// CSV handed to the run.
func (h *AgentHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	accountID, ok := queryUUID(w, r, "account_id")
	if !ok {
		return
	}
	agentID, ok := queryUUID(w, r, "agent_id")
	if !ok {
		return
	}

	in := service.ExecuteInput{AccountID: accountID, UserID: user.ID, AgentID: agentID}
	if isMultipart(r) {
		file, ok := multipartFile(w, r)
		if !ok {
			return
		}
		if file != nil {
			defer file.Close()
			in.File = file
		}
		in.UserTimezone = r.FormValue("user_timezone")
	} else {
		var req executeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in.UserTimezone = req.UserTimezone
	}

	agent, err := h.svc.Execute(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error executing agent")
		return
	}
	writeOK(w, "Agent execution started successfully", agent)
}

type executionUpdateRequest struct {
	AgentID            string          `json:"agent_id"`
	AccountID          string          `json:"account_id"`
	StatusID           string          `json:"status_id"`
	StatusName         string          `json:"status_name"`
	State              string          `json:"state"`
	ResultData         json.RawMessage `json:"result_data"`
	Message            string          `json:"message"`
	ProgressPercentage *int            `json:"progress_percentage"`
}

// ExecutionUpdateAsync receives phase reports from the AI backend. The caller
// proves itself with the shared secret in the secretKey query parameter.
func (h *AgentHandler) ExecutionUpdateAsync(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if h.callbackSecret == "" || subtle.ConstantTimeCompare([]byte(q.Get("secretKey")), []byte(h.callbackSecret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid secret key")
		return
	}

	var req executionUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if id := q.Get("agent_id"); id != "" {
		req.AgentID = id
	}
	if id := q.Get("account_id"); id != "" && req.AccountID == "" {
		req.AccountID = id
	}

	err := h.svc.HandleExecutionUpdate(r.Context(), service.ExecutionUpdate{
		AgentID:            req.AgentID,
		AccountID:          req.AccountID,
		StatusID:           req.StatusID,
		StatusName:         req.StatusName,
		State:              req.State,
		ResultData:         req.ResultData,
		Message:            req.Message,
		ProgressPercentage: req.ProgressPercentage,
	})
	if err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			h.logger.Info("execution update for missing agent",
				zap.String("agent_id", req.AgentID),
				zap.String("account_id", req.AccountID),
				zap.String("status_name", req.StatusName))
		}
		writeServiceError(w, r, h.logger, err, "Error handling execution update")
		return
	}
	writeOK(w, "Execution update recorded successfully", nil)
}

func (h *AgentHandler) StatusUpdates(w http.ResponseWriter, r *http.Request) {
	accountID, agentID, ok := h.agentParams(w, r)
	if !ok {
		return
	}
	updates, err := h.svc.StatusUpdates(r.Context(), accountID, agentID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching agent status updates")
		return
	}
	writeOK(w, "Agent status updates fetched successfully", updates)
}

func (h *AgentHandler) DailyProspectUpdates(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	accountID, ok := queryUUID(w, r, "account_id")
	if !ok {
		return
	}
	updates, err := h.prospects.DailyUpdates(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching daily prospect updates")
		return
	}
	writeOK(w, "Daily prospect updates fetched successfully", updates)
}

func (h *AgentHandler) PendingArtifacts(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	accountID, ok := queryUUID(w, r, "account_id")
	if !ok {
		return
	}
	groups, err := h.svc.PendingArtifacts(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching pending artifacts")
		return
	}
	writeOK(w, "Pending artifacts fetched successfully", groups)
}

type reviewArtifactRequest struct {
	Status string `json:"status"`
}

func (h *AgentHandler) ReviewArtifact(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	accountID, ok := queryUUID(w, r, "account_id")
	if !ok {
		return
	}
	artifactID, ok := queryUUID(w, r, "artifact_id")
	if !ok {
		return
	}
	var req reviewArtifactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	artifact, err := h.svc.ReviewArtifact(r.Context(), accountID, artifactID, req.Status)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error reviewing artifact")
		return
	}
	writeOK(w, "Artifact reviewed successfully", artifact)
}

func (h *AgentHandler) agentParams(w http.ResponseWriter, r *http.Request) (accountID, agentID uuid.UUID, ok bool) {
	if _, ok = requireUser(w, r); !ok {
		return
	}
	if accountID, ok = queryUUID(w, r, "account_id"); !ok {
		return
	}
	agentID, ok = queryUUID(w, r, "agent_id")
	return
}

