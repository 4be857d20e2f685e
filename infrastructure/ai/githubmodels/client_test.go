package githubmodels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"threadboard/application/ports"
	pkgerrors "threadboard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		Endpoint:    url,
		Model:       "gpt-4o-mini",
		Token:       "test-token",
		Temperature: 0.7,
		MaxTokens:   1000,
		Timeout:     5 * time.Second,
	}, zap.NewNop())
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}]}`
}

func TestGenerate_Success(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("an answer")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	answer, err := client.Generate(context.Background(), ports.GenerateRequest{
		History: []ports.Message{
			{Role: ports.RoleUser, Content: "earlier question"},
			{Role: ports.RoleAssistant, Content: "earlier answer"},
		},
		Prompt: "new question",
	})

	require.NoError(t, err)
	assert.Equal(t, "an answer", answer)

	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "earlier question", captured.Messages[1].Content)
	assert.Equal(t, "earlier answer", captured.Messages[2].Content)
	assert.Equal(t, "new question", captured.Messages[3].Content)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, 0.7, captured.Temperature)
	assert.Equal(t, 1000, captured.MaxTokens)
}

func TestGenerate_QuotedTextBecomesSystemMessage(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(completionBody("ok")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), ports.GenerateRequest{
		Prompt: "what does this mean?",
		Quoted: "the quoted passage",
	})

	require.NoError(t, err)
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "system", captured.Messages[1].Role)
	assert.Contains(t, captured.Messages[1].Content, "the quoted passage")
}

func TestGenerate_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), ports.GenerateRequest{Prompt: "q"})

	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeLLMAuthFailed, appErr.Code)
}

func TestGenerate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), ports.GenerateRequest{Prompt: "q"})

	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeLLMRateLimit, appErr.Code)
}

func TestGenerate_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), ports.GenerateRequest{Prompt: "q"})

	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeLLMServiceError, appErr.Code)
	assert.Contains(t, appErr.Message, "boom")
}

func TestGenerate_EmptyChoicesIsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), ports.GenerateRequest{Prompt: "q"})

	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeLLMInvalidResponse, appErr.Code)
}

func TestGenerate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(completionBody("late")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, ports.GenerateRequest{Prompt: "q"})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsTimeout(err))
}
