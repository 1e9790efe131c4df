package aibot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SubmitResearch(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/research", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "outreach-api/dev", r.Header.Get("User-Agent"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"message":"queued"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 5*time.Second)
	ack, err := c.SubmitResearch(context.Background(), domain.ResearchRequest{
		SecretKey: "s3cret",
		AgentID:   "a-1",
		Query:     "Find CFOs",
		AsyncURL:  "https://api.example.com/cb",
	})
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.Equal(t, "queued", ack.Message)

	assert.Equal(t, "s3cret", got["secret_key"])
	assert.Equal(t, "Find CFOs", got["query"])
	_, hasLimit := got["limit_output"]
	assert.False(t, hasLimit, "limit_output omitted unless set")
	_, hasLink := got["uploaded_file_s3_link"]
	assert.False(t, hasLink)
}

func TestClient_SubmitResearch_LimitOutputFalse(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	limit := false
	ack, err := NewClient(srv.URL, time.Second).SubmitResearch(context.Background(), domain.ResearchRequest{LimitOutput: &limit})
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.Equal(t, false, got["limit_output"])
}

func TestClient_SubmitResearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).SubmitResearch(context.Background(), domain.ResearchRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_Converse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/qai/converse", r.URL.Path)
		var req domain.ConverseRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Query)
		_, _ = w.Write([]byte(`{
			"message": "Campaign ready",
			"action": {"type": "campaign_created", "sequence": {"name": "CFO intro", "steps": [{"channel": "email", "subject": "Hi"}]}}
		}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second).Converse(context.Background(), domain.ConverseRequest{Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Campaign ready", resp.Message)
	seq := resp.CreatedSequence()
	require.NotNil(t, seq)
	assert.Equal(t, "CFO intro", seq.Name)
	require.Len(t, seq.Steps, 1)
	assert.Equal(t, domain.ChannelEmail, seq.Steps[0].Channel)
}
