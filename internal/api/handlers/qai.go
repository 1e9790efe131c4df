package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ConversationService interface {
	Create(ctx context.Context, accountID, userID uuid.UUID, isDemo bool) (*domain.Conversation, error)
	List(ctx context.Context, accountID, userID uuid.UUID) ([]domain.Conversation, error)
	Get(ctx context.Context, accountID, userID, id uuid.UUID) (*domain.Conversation, error)
	Delete(ctx context.Context, accountID, userID, id uuid.UUID) error
	Converse(ctx context.Context, in service.ConverseInput) (*domain.ConverseResponse, error)
	ReviewUpdates(ctx context.Context, accountID, userID uuid.UUID) ([]domain.ReviewUpdate, error)
}

type QAiHandler struct {
	svc    ConversationService
	logger *zap.Logger
}

func NewQAiHandler(svc ConversationService, logger *zap.Logger) *QAiHandler {
	return &QAiHandler{svc: svc, logger: logger}
}

type createConversationRequest struct {
	IsDemo bool `json:"is_demo"`
}

func (h *QAiHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	user, accountID, ok := h.ownerParams(w, r)
	if !ok {
		return
	}
	var req createConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	conv, err := h.svc.Create(r.Context(), accountID, user.ID, req.IsDemo)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error creating conversation")
		return
	}
	writeOK(w, "Conversation created successfully", conv)
}

func (h *QAiHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	user, accountID, ok := h.ownerParams(w, r)
	if !ok {
		return
	}
	convs, err := h.svc.List(r.Context(), accountID, user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching conversations")
		return
	}
	writeOK(w, "Conversations fetched successfully", convs)
}

func (h *QAiHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	user, accountID, ok := h.ownerParams(w, r)
	if !ok {
		return
	}
	id, ok := queryUUID(w, r, "conversation_id")
	if !ok {
		return
	}
	conv, err := h.svc.Get(r.Context(), accountID, user.ID, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching conversation")
		return
	}
	writeOK(w, "Conversation fetched successfully", conv)
}

func (h *QAiHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	user, accountID, ok := h.ownerParams(w, r)
	if !ok {
		return
	}
	id, ok := queryUUID(w, r, "conversation_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), accountID, user.ID, id); err != nil {
		writeServiceError(w, r, h.logger, err, "Error deleting conversation")
		return
	}
	writeOK(w, "Conversation deleted successfully", nil)
}

type converseRequest struct {
	Query          string              `json:"query"`
	ConversationID string              `json:"conversation_id"`
	UploadedData   []map[string]string `json:"uploaded_data"`
	IsDemo         bool                `json:"is_demo"`
}

// Converse accepts JSON or a multipart form. A "file" part is parsed as CSV and
// replaces uploaded_data.
func (h *QAiHandler) Converse(w http.ResponseWriter, r *http.Request) {
	user, accountID, ok := h.ownerParams(w, r)
	if !ok {
		return
	}

	in := service.ConverseInput{AccountID: accountID, UserID: user.ID}
	var req converseRequest
	if isMultipart(r) {
		file, ok := multipartFile(w, r)
		if !ok {
			return
		}
		if file != nil {
			defer file.Close()
			in.CSV = file
		}
		req.Query = r.FormValue("query")
		req.ConversationID = r.FormValue("conversation_id")
		req.IsDemo, _ = strconv.ParseBool(r.FormValue("is_demo"))
		if raw := r.FormValue("uploaded_data"); raw != "" && in.CSV == nil {
			if err := json.Unmarshal([]byte(raw), &req.UploadedData); err != nil {
				writeError(w, http.StatusBadRequest, "uploaded_data is malformed")
				return
			}
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "conversation_id is malformed")
			return
		}
		in.ConversationID = id
	}
	in.Query = req.Query
	in.UploadedData = req.UploadedData
	in.IsDemo = req.IsDemo

	resp, err := h.svc.Converse(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error talking to QAi")
		return
	}
	writeOK(w, "QAi replied successfully", resp)
}

func (h *QAiHandler) ReviewUpdates(w http.ResponseWriter, r *http.Request) {
	user, accountID, ok := h.ownerParams(w, r)
	if !ok {
		return
	}
	updates, err := h.svc.ReviewUpdates(r.Context(), accountID, user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching review updates")
		return
	}
	writeOK(w, "Review updates fetched successfully", updates)
}

func (h *QAiHandler) ownerParams(w http.ResponseWriter, r *http.Request) (*domain.User, uuid.UUID, bool) {
	user, ok := requireUser(w, r)
	if !ok {
		return nil, uuid.Nil, false
	}
	accountID, ok := queryUUID(w, r, "account_id")
	if !ok {
		return nil, uuid.Nil, false
	}
	return user, accountID, true
}
