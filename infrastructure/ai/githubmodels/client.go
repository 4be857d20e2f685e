package githubmodels

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"threadboard/application/ports"
	pkgerrors "threadboard/pkg/errors"

	"go.uber.org/zap"
)

const systemPrompt = "You are a helpful Q&A assistant for brainstorming and expanding ideas. Provide concise, creative, and actionable suggestions."

// Config holds the client settings
type Config struct {
	Endpoint    string
	Model       string
	Token       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client generates answers through the GitHub Models chat-completions API.
// It implements ports.AnswerGenerator; every failure maps to a stable
// upstream error code so callers can branch without parsing messages.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new generator client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Generate produces answer text for the question, preceded by the thread's
// prior turns. A quoted excerpt, when present, is injected as an extra
// system message so the model answers about that passage specifically.
func (c *Client) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	messages := make([]chatMessage, 0, len(req.History)+3)
	messages = append(messages, chatMessage{Role: ports.RoleSystem, Content: systemPrompt})
	if strings.TrimSpace(req.Quoted) != "" {
		messages = append(messages, chatMessage{
			Role:    ports.RoleSystem,
			Content: fmt.Sprintf("The user is asking about this specific text: %q", req.Quoted),
		})
	}
	for _, m := range req.History {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: ports.RoleUser, Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", pkgerrors.NewInternalError("failed to encode generation request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.NewInternalError("failed to build generation request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", pkgerrors.NewTimeoutError("answer generation")
		}
		return "", pkgerrors.NewUpstreamError(pkgerrors.CodeLLMServiceError, "generation service unreachable", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", pkgerrors.NewUpstreamError(pkgerrors.CodeLLMServiceError, "failed to read generation response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp.StatusCode, payload)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", pkgerrors.NewUpstreamError(pkgerrors.CodeLLMInvalidResponse, "generation response is not valid JSON", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", pkgerrors.NewUpstreamError(pkgerrors.CodeLLMInvalidResponse, "generation response contains no answer", nil)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (c *Client) statusError(status int, payload []byte) error {
	var parsed chatResponse
	detail := ""
	if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Error != nil {
		detail = parsed.Error.Message
	}

	c.logger.Warn("generation request failed",
		zap.Int("status", status),
		zap.String("detail", detail),
	)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return pkgerrors.NewUpstreamError(pkgerrors.CodeLLMAuthFailed, "generation service rejected credentials", nil)
	case status == http.StatusTooManyRequests:
		return pkgerrors.NewUpstreamError(pkgerrors.CodeLLMRateLimit, "generation service rate limit exceeded", nil)
	default:
		msg := fmt.Sprintf("generation service returned status %d", status)
		if detail != "" {
			msg = fmt.Sprintf("%s: %s", msg, detail)
		}
		return pkgerrors.NewUpstreamError(pkgerrors.CodeLLMServiceError, msg, nil)
	}
}
