package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marcellin56/Central-de-ferramentas/internal/crypto"
	"github.com/marcellin56/Central-de-ferramentas/pkg/types"
)

const (
	userIDKey = "userID"
	claimsKey = "claims"
)

// AuthMiddleware validates the bearer token on every request. Browsers
// cannot set headers on a websocket handshake, so GET requests may carry
// the token in the "token" query parameter instead.
func AuthMiddleware(jwtManager *crypto.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
				Error: "missing or malformed authorization",
				Code:  "unauthorized",
			})
			return
		}

		claims, err := jwtManager.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
				Error: "invalid token",
				Code:  "unauthorized",
			})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if c.Request.Method == http.MethodGet {
		if token := c.Query("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// GetClaims returns the verified token claims.
func GetClaims(c *gin.Context) (*crypto.TokenClaims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*crypto.TokenClaims)
	return claims, ok
}

// SetUserID stores a user id as AuthMiddleware would. Used by tests that
// bypass token verification.
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}
