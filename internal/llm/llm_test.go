package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleConversation = []domain.Message{
	{Role: "user", Content: "Build me a campaign for fintech CFOs"},
	{Role: "assistant", Content: "Sure, how many steps?"},
}

func TestOpenAIClient_Title(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Messages, 1) {
			assert.Contains(t, req.Messages[0].Content, "user: Build me a campaign for fintech CFOs")
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"\"Fintech CFO Campaign.\""}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test")
	c.url = srv.URL

	title, err := c.Title(context.Background(), sampleConversation)
	require.NoError(t, err)
	assert.Equal(t, "Fintech CFO Campaign", title)
}

func TestOpenAIClient_TitleHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test")
	c.url = srv.URL

	_, err := c.Title(context.Background(), sampleConversation)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAnthropicClient_Title(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Fintech outreach\nextra line"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("ak-test")
	c.url = srv.URL

	title, err := c.Title(context.Background(), sampleConversation)
	require.NoError(t, err)
	assert.Equal(t, "Fintech outreach", title)
}

func TestTranscript_CapsTurns(t *testing.T) {
	var conv []domain.Message
	for i := 0; i < maxTitleTurns+3; i++ {
		conv = append(conv, domain.Message{Role: "user", Content: "m"})
	}
	assert.Equal(t, maxTitleTurns, strings.Count(transcript(conv), "\n"))
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ProviderOpenAI, "")
	assert.Error(t, err)

	c, err := NewClient(ProviderMock, "")
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	_, err = NewClient("gemini", "key")
	assert.Error(t, err)
}
