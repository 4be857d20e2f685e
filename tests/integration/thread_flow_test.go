package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cmdhandlers "threadboard/application/commands/handlers"
	"threadboard/application/services"
	domaincfg "threadboard/domain/config"
	"threadboard/infrastructure/ai/githubmodels"
	"threadboard/infrastructure/config"
	"threadboard/infrastructure/di"
	"threadboard/infrastructure/persistence/memory"
	"threadboard/interfaces/http/rest"
	"threadboard/interfaces/http/rest/handlers"
	"threadboard/interfaces/http/rest/middleware"
	"threadboard/pkg/auth"
	"threadboard/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "integration-test-secret"

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type nodeView struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
	RootID   *string `json:"rootId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

type boardView struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Title   string `json:"title"`
}

type askResponse struct {
	Question nodeView `json:"question"`
	Answer   nodeView `json:"answer"`
}

type boardResponse struct {
	Board boardView  `json:"board"`
	Nodes []nodeView `json:"nodes"`
}

type threadResponse struct {
	RootID string     `json:"rootId"`
	Nodes  []nodeView `json:"nodes"`
}

type deleteResponse struct {
	DeletedIDs []string `json:"deletedIds"`
}

type testEnv struct {
	server    *httptest.Server
	llmServer *httptest.Server
	generator *auth.JWTGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	store := memory.NewStore()
	boards := store.Boards()
	nodes := store.Nodes()
	publisher := memory.NewPublisher()

	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"a generated answer"}}]}`))
	}))
	t.Cleanup(llmServer.Close)

	generator := githubmodels.NewClient(githubmodels.Config{
		Endpoint: llmServer.URL,
		Model:    "gpt-4o-mini",
		Token:    "test-token",
		Timeout:  5 * time.Second,
	}, logger)

	dcfg := domaincfg.DefaultDomainConfig()
	builder := services.NewContextBuilder(nodes, dcfg.MaxContextTurns, logger)
	metrics := observability.NewMetrics("test", nil, logger)

	orchestrator := cmdhandlers.NewAskQuestionOrchestrator(boards, nodes, generator, builder, publisher, dcfg, logger)
	deleteNode := cmdhandlers.NewDeleteNodeHandler(boards, nodes, publisher, logger)
	createBoard := cmdhandlers.NewCreateBoardHandler(boards, publisher, logger)

	commandBus := di.ProvideCommandBus(boards, nodes, publisher, metrics, logger)
	queryBus := di.ProvideQueryBus(boards, nodes, di.NewInMemoryCache(), &config.Config{}, metrics, logger)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
	})
	require.NoError(t, err)

	tokenGen, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SecretKey:  testSecret,
		ExpiryTime: time.Hour,
	})
	require.NoError(t, err)

	router := rest.NewRouter(
		handlers.NewAskHandler(orchestrator, logger),
		handlers.NewBoardHandler(createBoard, commandBus, queryBus, logger),
		handlers.NewNodeHandler(deleteNode, commandBus, queryBus, logger),
		validator,
		observability.NewTracer("test", false),
		middleware.AuthConfig{RatePerMinute: 10000, Burst: 10000},
		[]string{"*"},
		logger,
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	return &testEnv{
		server:    server,
		llmServer: llmServer,
		generator: tokenGen,
	}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.generator.GenerateToken(userID, userID+"@example.com", []string{"user"})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var env envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data
}

func TestThreadLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	resp := env.do(t, http.MethodPost, "/api/v1/boards", token, map[string]string{"title": "Research"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	board := decode[boardView](t, resp)
	require.NotEmpty(t, board.ID)
	assert.Equal(t, "user-1", board.OwnerID)

	boardPath := "/api/v1/boards/" + board.ID

	resp = env.do(t, http.MethodPost, boardPath+"/ask", token, map[string]string{"question": "What is a monad?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	root := decode[askResponse](t, resp)

	assert.Equal(t, "root_question", root.Question.Kind)
	assert.Equal(t, "ai_answer", root.Answer.Kind)
	require.NotNil(t, root.Question.RootID)
	assert.Equal(t, root.Question.ID, *root.Question.RootID)
	require.NotNil(t, root.Answer.ParentID)
	assert.Equal(t, root.Question.ID, *root.Answer.ParentID)
	assert.Equal(t, "a generated answer", root.Answer.Content)
	assert.Equal(t, root.Question.X+350, root.Answer.X)

	resp = env.do(t, http.MethodPost, boardPath+"/ask", token, map[string]interface{}{
		"question": "Can you expand on that?",
		"parentId": root.Answer.ID,
		"rootId":   *root.Question.RootID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	followup := decode[askResponse](t, resp)

	assert.Equal(t, "followup_question", followup.Question.Kind)
	assert.Equal(t, "followup_answer", followup.Answer.Kind)
	require.NotNil(t, followup.Question.RootID)
	assert.Equal(t, root.Question.ID, *followup.Question.RootID)

	resp = env.do(t, http.MethodGet, boardPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	full := decode[boardResponse](t, resp)
	assert.Len(t, full.Nodes, 4)

	resp = env.do(t, http.MethodGet, boardPath+"/threads/"+root.Question.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	thread := decode[threadResponse](t, resp)
	assert.Equal(t, root.Question.ID, thread.RootID)
	require.Len(t, thread.Nodes, 4)
	assert.Equal(t, root.Question.ID, thread.Nodes[0].ID)

	resp = env.do(t, http.MethodPatch, boardPath+"/nodes/"+root.Question.ID, token, map[string]float64{"x": 10, "y": 20})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, boardPath+"/nodes/"+root.Question.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decode[nodeView](t, resp)
	assert.Equal(t, 10.0, moved.X)
	assert.Equal(t, 20.0, moved.Y)

	resp = env.do(t, http.MethodDelete, boardPath+"/nodes/"+root.Question.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	deleted := decode[deleteResponse](t, resp)
	assert.ElementsMatch(t, []string{root.Question.ID, root.Answer.ID}, deleted.DeletedIDs)

	resp = env.do(t, http.MethodGet, boardPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	full = decode[boardResponse](t, resp)
	require.Len(t, full.Nodes, 2)

	byID := make(map[string]nodeView, len(full.Nodes))
	for _, n := range full.Nodes {
		byID[n.ID] = n
	}

	promoted := byID[followup.Question.ID]
	assert.Equal(t, "root_question", promoted.Kind)
	assert.Nil(t, promoted.ParentID)
	require.NotNil(t, promoted.RootID)
	assert.Equal(t, promoted.ID, *promoted.RootID)

	promotedAnswer := byID[followup.Answer.ID]
	assert.Equal(t, "ai_answer", promotedAnswer.Kind)
	require.NotNil(t, promotedAnswer.RootID)
	assert.Equal(t, promoted.ID, *promotedAnswer.RootID)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/boards", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBoardOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.token(t, "user-1")
	other := env.token(t, "user-2")

	resp := env.do(t, http.MethodPost, "/api/v1/boards", owner, map[string]string{"title": "Private"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	board := decode[boardView](t, resp)

	resp = env.do(t, http.MethodGet, "/api/v1/boards/"+board.ID, other, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAskValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	resp := env.do(t, http.MethodPost, "/api/v1/boards", token, map[string]string{"title": "B"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	board := decode[boardView](t, resp)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/boards/%s/ask", board.ID), token, map[string]string{"question": ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
