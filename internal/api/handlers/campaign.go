package handlers

import (
	"context"
	"net/http"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CampaignService interface {
	ListSequences(ctx context.Context, accountID uuid.UUID) ([]domain.Sequence, error)
	GetSequence(ctx context.Context, accountID, sequenceID uuid.UUID) (*domain.Sequence, error)
	RecordEmailOpen(ctx context.Context, in service.EmailEventInput) error
	SequenceAnalytics(ctx context.Context, accountID, sequenceID uuid.UUID, stepID *uuid.UUID, event domain.EmailEventType) (*domain.EngagementAnalytics, error)
}

// trackingPixel is a transparent 1x1 GIF.
var trackingPixel = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

type CampaignHandler struct {
	svc    CampaignService
	logger *zap.Logger
}

func NewCampaignHandler(svc CampaignService, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{svc: svc, logger: logger}
}

func (h *CampaignHandler) Sequences(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	accountID, ok := queryUUID(w, r, "account_id")
	if !ok {
		return
	}
	seqs, err := h.svc.ListSequences(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching sequences")
		return
	}
	writeOK(w, "Sequences fetched successfully", seqs)
}

func (h *CampaignHandler) Sequence(w http.ResponseWriter, r *http.Request) {
	accountID, sequenceID, ok := h.sequenceParams(w, r)
	if !ok {
		return
	}
	seq, err := h.svc.GetSequence(r.Context(), accountID, sequenceID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching sequence")
		return
	}
	writeOK(w, "Sequence fetched successfully", seq)
}

// SequenceAnalytics serves whole-sequence figures for event.
func (h *CampaignHandler) SequenceAnalytics(event domain.EmailEventType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, sequenceID, ok := h.sequenceParams(w, r)
		if !ok {
			return
		}
		h.analytics(w, r, accountID, sequenceID, nil, event)
	}
}

// StepAnalytics serves figures for event narrowed to the step_id parameter.
func (h *CampaignHandler) StepAnalytics(event domain.EmailEventType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, sequenceID, ok := h.sequenceParams(w, r)
		if !ok {
			return
		}
		stepID, ok := queryUUID(w, r, "step_id")
		if !ok {
			return
		}
		if stepID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "step_id is required")
			return
		}
		h.analytics(w, r, accountID, sequenceID, &stepID, event)
	}
}

func (h *CampaignHandler) analytics(w http.ResponseWriter, r *http.Request, accountID, sequenceID uuid.UUID, stepID *uuid.UUID, event domain.EmailEventType) {
	res, err := h.svc.SequenceAnalytics(r.Context(), accountID, sequenceID, stepID, event)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching sequence analytics")
		return
	}
	writeOK(w, "Sequence analytics fetched successfully", res)
}

// EmailOpen is the tracking pixel embedded in outgoing mail. It always answers
// with the image; recording failures are only logged.
func (h *CampaignHandler) EmailOpen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := service.EmailEventInput{Email: q.Get("email")}

	var err error
	if in.AccountID, err = uuid.Parse(q.Get("account_id")); err == nil {
		in.SequenceID, err = uuid.Parse(q.Get("sequence_id"))
	}
	if err == nil && q.Get("step_id") != "" {
		var stepID uuid.UUID
		if stepID, err = uuid.Parse(q.Get("step_id")); err == nil {
			in.StepID = &stepID
		}
	}
	if err == nil {
		err = h.svc.RecordEmailOpen(r.Context(), in)
	}
	if err != nil {
		h.logger.Warn("failed to record email open",
			zap.String("account_id", q.Get("account_id")),
			zap.String("sequence_id", q.Get("sequence_id")),
			zap.Error(err))
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(trackingPixel)
}

func (h *CampaignHandler) sequenceParams(w http.ResponseWriter, r *http.Request) (accountID, sequenceID uuid.UUID, ok bool) {
	if _, ok = requireUser(w, r); !ok {
		return
	}
	if accountID, ok = queryUUID(w, r, "account_id"); !ok {
		return
	}
	sequenceID, ok = queryUUID(w, r, "sequence_id")
	return
}
