package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcellin56/Central-de-ferramentas/internal/api/middleware"
	"github.com/marcellin56/Central-de-ferramentas/internal/store"
	"github.com/marcellin56/Central-de-ferramentas/pkg/types"
)

type UserHandler struct {
	prefs *store.Prefs
}

func NewUserHandler(prefs *store.Prefs) *UserHandler {
	return &UserHandler{prefs: prefs}
}

// UserProfileResponse is the signed-in user plus their preferences.
type UserProfileResponse struct {
	types.User
	Theme string `json:"theme"`
}

// GetProfile handles GET /v1/user
func (h *UserHandler) GetProfile(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "unauthorized", Code: "unauthorized"})
		return
	}
	user := UserFromEmail(claims.Email)
	// Tokens always carry the id they were issued for.
	user.ID = claims.UserID

	theme, err := h.prefs.Theme(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to load preferences"})
		return
	}
	c.JSON(http.StatusOK, UserProfileResponse{User: user, Theme: theme})
}

// SetTheme handles POST /v1/user/theme
func (h *UserHandler) SetTheme(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req types.ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "theme must be light or dark", Code: "invalid_request"})
		return
	}
	if err := h.prefs.SetTheme(c.Request.Context(), userID, req.Theme); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to save theme"})
		return
	}
	c.JSON(http.StatusOK, types.ThemeResponse{Theme: req.Theme})
}
