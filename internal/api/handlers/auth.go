package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marcellin56/Central-de-ferramentas/internal/crypto"
	"github.com/marcellin56/Central-de-ferramentas/pkg/types"
)

// userNamespace scopes name-based user ids so the same email always maps
// to the same account.
var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://nexushub/users"))

const roleUser = "user"

type AuthHandler struct {
	jwtManager *crypto.JWTManager
	delay      time.Duration
}

// NewAuthHandler returns the simulated login handler. Every login waits
// delay before answering.
func NewAuthHandler(jwtManager *crypto.JWTManager, delay time.Duration) *AuthHandler {
	return &AuthHandler{jwtManager: jwtManager, delay: delay}
}

// Login handles POST /v1/auth/login. Credentials are not verified: any
// non-empty email and password sign in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "email and password are required", Code: "invalid_request"})
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "email and password are required", Code: "invalid_request"})
		return
	}

	if err := wait(c.Request.Context(), h.delay); err != nil {
		return
	}

	user := UserFromEmail(email)
	token, err := h.jwtManager.CreateToken(user.ID, user.Email, user.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to create token"})
		return
	}
	c.JSON(http.StatusOK, types.LoginResponse{Token: token, User: user})
}

// UserFromEmail derives the profile of the account behind email.
func UserFromEmail(email string) types.User {
	email = strings.ToLower(strings.TrimSpace(email))
	id := uuid.NewSHA1(userNamespace, []byte(email)).String()
	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	return types.User{
		ID:     id,
		Name:   name,
		Email:  email,
		Role:   roleUser,
		Avatar: "https://picsum.photos/seed/" + id + "/100/100",
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
