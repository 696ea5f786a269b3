package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcellin56/Central-de-ferramentas/internal/api/middleware"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
	"github.com/marcellin56/Central-de-ferramentas/internal/viewer"
	"github.com/marcellin56/Central-de-ferramentas/pkg/types"
)

type ViewerHandler struct {
	manager *viewer.Manager
	library *Library
	policy  viewer.SandboxPolicy
}

func NewViewerHandler(manager *viewer.Manager, library *Library, policy viewer.SandboxPolicy) *ViewerHandler {
	if policy == nil {
		policy = viewer.DefaultSandbox
	}
	return &ViewerHandler{manager: manager, library: library, policy: policy}
}

// ViewerResponse is the state of one caller context.
type ViewerResponse struct {
	Snapshot viewer.Snapshot `json:"snapshot"`
	View     viewer.View     `json:"view"`
}

// GetViewer handles GET /v1/viewer/:ctx
func (h *ViewerHandler) GetViewer(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.response(ctrl.Snapshot()))
}

// Open handles POST /v1/viewer/:ctx/open
func (h *ViewerHandler) Open(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req types.OpenToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "toolId is required", Code: "invalid_request"})
		return
	}
	tool, err := h.library.Get(c.Request.Context(), userID, req.ToolID)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "tool not found", Code: "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to load tool"})
		return
	}

	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Open(tool); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.response(ctrl.Snapshot()))
}

// Reload handles POST /v1/viewer/:ctx/reload
func (h *ViewerHandler) Reload(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Reload(); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.response(ctrl.Snapshot()))
}

// Close handles POST /v1/viewer/:ctx/close
func (h *ViewerHandler) Close(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Close(); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
}

func (h *ViewerHandler) controller(c *gin.Context) (*viewer.Controller, bool) {
	userID, _ := middleware.GetUserID(c)
	ctrl, err := h.manager.Get(viewer.Key{UserID: userID, Context: c.Param("ctx")})
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return ctrl, true
}

func (h *ViewerHandler) response(s viewer.Snapshot) ViewerResponse {
	return ViewerResponse{Snapshot: s, View: viewer.Render(s, h.policy)}
}

func (h *ViewerHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, viewer.ErrRefusedTarget):
		c.JSON(http.StatusUnprocessableEntity, types.ErrorResponse{Error: err.Error(), Code: "refused_target"})
	case errors.Is(err, viewer.ErrInvalidTransition):
		c.JSON(http.StatusConflict, types.ErrorResponse{Error: err.Error(), Code: "invalid_transition"})
	case errors.Is(err, viewer.ErrUnknownContext):
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: err.Error(), Code: "unknown_context"})
	case errors.Is(err, viewer.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: err.Error(), Code: "stopped"})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
	}
}
