package handlers

import (
	"context"
	"net/http"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PublicAgentService serves agents whose owners turned sharing on.
type PublicAgentService interface {
	GetPublic(ctx context.Context, agentID uuid.UUID) (*domain.PublicAgent, error)
	PublicStatusUpdates(ctx context.Context, agentID uuid.UUID) (*service.StatusUpdates, error)
}

// PublicHandler runs without authentication.
type PublicHandler struct {
	svc    PublicAgentService
	logger *zap.Logger
}

func NewPublicHandler(svc PublicAgentService, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{svc: svc, logger: logger}
}

func (h *PublicHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	agentID, ok := queryUUID(w, r, "agent_id")
	if !ok {
		return
	}
	agent, err := h.svc.GetPublic(r.Context(), agentID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching agent")
		return
	}
	writeOK(w, "Agent fetched successfully", agent)
}

func (h *PublicHandler) StatusUpdates(w http.ResponseWriter, r *http.Request) {
	agentID, ok := queryUUID(w, r, "agent_id")
	if !ok {
		return
	}
	updates, err := h.svc.PublicStatusUpdates(r.Context(), agentID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching agent status updates")
		return
	}
	writeOK(w, "Agent status updates fetched successfully", updates)
}
