package handlers

import (
	"net/http"

	"threadboard/application/commands"
	cmdhandlers "threadboard/application/commands/handlers"
	"threadboard/application/queries"
	"threadboard/pkg/auth"
	"threadboard/pkg/common"
	"threadboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxRequestBytes = 64 << 10

// AskHandler handles question submission on a board
type AskHandler struct {
	orchestrator *cmdhandlers.AskQuestionOrchestrator
	logger       *zap.Logger
}

// NewAskHandler creates a new ask handler
func NewAskHandler(orchestrator *cmdhandlers.AskQuestionOrchestrator, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// AskQuestionRequest represents the request body for asking a question
type AskQuestionRequest struct {
	Question string   `json:"question" validate:"required"`
	ParentID *string  `json:"parentId,omitempty"`
	RootID   *string  `json:"rootId,omitempty"`
	Quoted   string   `json:"quoted,omitempty"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
}

// AskQuestionResponse carries the question node and its generated answer
type AskQuestionResponse struct {
	Question queries.NodeView `json:"question"`
	Answer   queries.NodeView `json:"answer"`
}

// Ask handles POST /boards/{boardID}/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	var req AskQuestionRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	result, err := h.orchestrator.Handle(r.Context(), commands.AskQuestionCommand{
		BoardID:  chi.URLParam(r, "boardID"),
		UserID:   user.UserID,
		Question: req.Question,
		ParentID: req.ParentID,
		RootID:   req.RootID,
		Quoted:   req.Quoted,
		X:        req.X,
		Y:        req.Y,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, AskQuestionResponse{
		Question: queries.NewNodeView(result.Question),
		Answer:   queries.NewNodeView(result.Answer),
	})
}
