package handlers

import (
	"net/http"

	"threadboard/application/commands"
	"threadboard/application/commands/bus"
	cmdhandlers "threadboard/application/commands/handlers"
	"threadboard/application/queries"
	querybus "threadboard/application/queries/bus"
	"threadboard/pkg/auth"
	"threadboard/pkg/common"
	"threadboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BoardHandler handles board CRUD requests
type BoardHandler struct {
	createBoard *cmdhandlers.CreateBoardHandler
	commandBus  *bus.CommandBus
	queryBus    *querybus.QueryBus
	logger      *zap.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(
	createBoard *cmdhandlers.CreateBoardHandler,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *BoardHandler {
	return &BoardHandler{
		createBoard: createBoard,
		commandBus:  commandBus,
		queryBus:    queryBus,
		logger:      logger,
	}
}

// CreateBoardRequest represents the request body for creating a board
type CreateBoardRequest struct {
	Title string `json:"title" validate:"required,max=120"`
}

// RenameBoardRequest represents the request body for renaming a board
type RenameBoardRequest struct {
	Title string `json:"title" validate:"required,max=120"`
}

// Create handles POST /boards
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	var req CreateBoardRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	board, err := h.createBoard.Handle(r.Context(), commands.CreateBoardCommand{
		UserID: user.UserID,
		Title:  req.Title,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, queries.NewBoardView(board))
}

// List handles GET /boards
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListBoardsQuery{UserID: user.UserID})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /boards/{boardID}
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetBoardQuery{
		UserID:  user.UserID,
		BoardID: chi.URLParam(r, "boardID"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// Rename handles PATCH /boards/{boardID}
func (h *BoardHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	var req RenameBoardRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	err = h.commandBus.Send(r.Context(), commands.RenameBoardCommand{
		BoardID: chi.URLParam(r, "boardID"),
		UserID:  user.UserID,
		Title:   req.Title,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /boards/{boardID}
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	err = h.commandBus.Send(r.Context(), commands.DeleteBoardCommand{
		BoardID: chi.URLParam(r, "boardID"),
		UserID:  user.UserID,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
