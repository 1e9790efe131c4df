package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQAiHandler_ConverseJSON(t *testing.T) {
	svc := new(MockConversationService)
	h := NewQAiHandler(svc, zap.NewNop())
	accountID, convID := uuid.New(), uuid.New()

	svc.On("Converse", mock.Anything, service.ConverseInput{
		AccountID:      accountID,
		UserID:         testUser.ID,
		ConversationID: convID,
		Query:          "draft a campaign",
		UploadedData:   []map[string]string{{"email": "a@b.io"}},
		IsDemo:         true,
	}).Return(&domain.ConverseResponse{Message: "Here it is"}, nil)

	body := fmt.Sprintf(`{"query":"draft a campaign","conversation_id":%q,"uploaded_data":[{"email":"a@b.io"}],"is_demo":true}`, convID)
	rec := httptest.NewRecorder()
	h.Converse(rec, authed(http.MethodPost, "/api/qai/converse?account_id="+accountID.String(), jsonBody(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeEnvelope(t, rec)["result"].(map[string]any)
	assert.Equal(t, "Here it is", result["message"])
	svc.AssertExpectations(t)
}

func TestQAiHandler_ConverseMultipartCSV(t *testing.T) {
	svc := new(MockConversationService)
	h := NewQAiHandler(svc, zap.NewNop())
	accountID, convID := uuid.New(), uuid.New()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("query", "use these leads"))
	require.NoError(t, mw.WriteField("conversation_id", convID.String()))
	require.NoError(t, mw.WriteField("uploaded_data", `[{"ignored":"yes"}]`))
	part, err := mw.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("email\nx@y.io\n"))
	require.NoError(t, mw.Close())

	var csv string
	svc.On("Converse", mock.Anything, mock.MatchedBy(func(in service.ConverseInput) bool {
		return in.ConversationID == convID && in.Query == "use these leads" && in.CSV != nil && in.UploadedData == nil
	})).Run(func(args mock.Arguments) {
		b, _ := io.ReadAll(args.Get(1).(service.ConverseInput).CSV)
		csv = string(b)
	}).Return(&domain.ConverseResponse{Message: "ok"}, nil)

	req := authed(http.MethodPost, "/api/qai/converse?account_id="+accountID.String(), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Converse(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "email\nx@y.io\n", csv)
	svc.AssertExpectations(t)
}

func TestQAiHandler_ConverseMalformedConversationID(t *testing.T) {
	svc := new(MockConversationService)
	h := NewQAiHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Converse(rec, authed(http.MethodPost, "/api/qai/converse?account_id="+uuid.NewString(),
		jsonBody(`{"query":"hi","conversation_id":"abc"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Converse", mock.Anything, mock.Anything)
}

func TestQAiHandler_ConverseUpstreamFailure(t *testing.T) {
	svc := new(MockConversationService)
	h := NewQAiHandler(svc, zap.NewNop())
	svc.On("Converse", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: converse: 503", service.ErrUpstream))

	rec := httptest.NewRecorder()
	h.Converse(rec, authed(http.MethodPost, "/api/qai/converse?account_id="+uuid.NewString(),
		jsonBody(fmt.Sprintf(`{"query":"hi","conversation_id":%q}`, uuid.New()))))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Error talking to QAi", decodeEnvelope(t, rec)["message"])
}

func TestQAiHandler_Conversations(t *testing.T) {
	svc := new(MockConversationService)
	h := NewQAiHandler(svc, zap.NewNop())
	accountID, convID := uuid.New(), uuid.New()

	svc.On("Create", mock.Anything, accountID, testUser.ID, true).Return(&domain.Conversation{ID: convID}, nil)
	svc.On("List", mock.Anything, accountID, testUser.ID).Return([]domain.Conversation{{ID: convID}}, nil)
	svc.On("Get", mock.Anything, accountID, testUser.ID, convID).Return(&domain.Conversation{ID: convID, Title: "Fintech CTOs"}, nil)
	svc.On("Delete", mock.Anything, accountID, testUser.ID, convID).Return(service.ErrConversationNotFound)

	rec := httptest.NewRecorder()
	h.CreateConversation(rec, authed(http.MethodPost, "/api/qai/conversation/create?account_id="+accountID.String(), jsonBody(`{"is_demo":true}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Conversations(rec, authed(http.MethodGet, "/api/qai/conversations?account_id="+accountID.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeEnvelope(t, rec)["result"], 1)

	rec = httptest.NewRecorder()
	h.Conversation(rec, authed(http.MethodGet, fmt.Sprintf("/api/qai/conversation?account_id=%s&conversation_id=%s", accountID, convID), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteConversation(rec, authed(http.MethodPost, fmt.Sprintf("/api/qai/conversation/delete?account_id=%s&conversation_id=%s", accountID, convID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.AssertExpectations(t)
}

func TestQAiHandler_ReviewUpdates(t *testing.T) {
	svc := new(MockConversationService)
	h := NewQAiHandler(svc, zap.NewNop())
	accountID := uuid.New()
	svc.On("ReviewUpdates", mock.Anything, accountID, testUser.ID).Return([]domain.ReviewUpdate{
		{Type: domain.ReviewUpdateEmailReplies, Value: domain.ReviewUpdateValue{Count: 2}},
		{Type: domain.ReviewUpdateNewProspects, Value: domain.ReviewUpdateValue{Count: 5}},
	}, nil)

	rec := httptest.NewRecorder()
	h.ReviewUpdates(rec, authed(http.MethodGet, "/api/qai/review_updates?account_id="+accountID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeEnvelope(t, rec)["result"].([]any)
	require.Len(t, result, 2)
	assert.Equal(t, "email_replies_and_suggested_drafts", result[0].(map[string]any)["type"])
}
