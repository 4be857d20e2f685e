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

// NodeHandler handles node and thread requests
type NodeHandler struct {
	deleteNode *cmdhandlers.DeleteNodeHandler
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	deleteNode *cmdhandlers.DeleteNodeHandler,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		deleteNode: deleteNode,
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// UpdateNodeRequest represents the request body for moving or resizing a node
type UpdateNodeRequest struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height *float64 `json:"height,omitempty" validate:"omitempty,gt=0"`
}

// DeleteNodeResponse lists the ids removed by a pair deletion
type DeleteNodeResponse struct {
	DeletedIDs []string `json:"deletedIds"`
}

// Get handles GET /boards/{boardID}/nodes/{nodeID}
func (h *NodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetNodeQuery{
		UserID:  user.UserID,
		BoardID: chi.URLParam(r, "boardID"),
		NodeID:  chi.URLParam(r, "nodeID"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// Update handles PATCH /boards/{boardID}/nodes/{nodeID}
func (h *NodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	var req UpdateNodeRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	err = h.commandBus.Send(r.Context(), commands.UpdateNodeCommand{
		BoardID: chi.URLParam(r, "boardID"),
		UserID:  user.UserID,
		NodeID:  chi.URLParam(r, "nodeID"),
		X:       req.X,
		Y:       req.Y,
		Width:   req.Width,
		Height:  req.Height,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /boards/{boardID}/nodes/{nodeID}. Removing a
// question removes its answer too, and vice versa; the response names every
// id that went away so the canvas can drop both.
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	result, err := h.deleteNode.Handle(r.Context(), commands.DeleteNodeCommand{
		BoardID: chi.URLParam(r, "boardID"),
		UserID:  user.UserID,
		NodeID:  chi.URLParam(r, "nodeID"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, DeleteNodeResponse{DeletedIDs: result.DeletedIDs})
}

// GetThread handles GET /boards/{boardID}/threads/{rootID}
func (h *NodeHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetThreadQuery{
		UserID:  user.UserID,
		BoardID: chi.URLParam(r, "boardID"),
		RootID:  chi.URLParam(r, "rootID"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}
