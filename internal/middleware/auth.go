package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/velichkin/securechannel/internal/session"
	"github.com/velichkin/securechannel/pkg/auth"
)

const SessionUIDKey = "sessionUID"

// AuthMiddleware verifies the bearer credential and injects the session uid.
func AuthMiddleware(jwtManager *auth.JWTManager, sessions session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			c.Abort()
			return
		}

		authorize(c, token, jwtManager, sessions)
	}
}

// WSAuthMiddleware accepts the token as a query parameter as well, since
// browser websocket clients cannot set headers.
func WSAuthMiddleware(jwtManager *auth.JWTManager, sessions session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
					token = parts[1]
				}
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		authorize(c, token, jwtManager, sessions)
	}
}

func authorize(c *gin.Context, token string, jwtManager *auth.JWTManager, sessions session.Registry) {
	blacklisted, err := sessions.IsTokenBlacklisted(c.Request.Context(), token)
	if err != nil || blacklisted {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is revoked"})
		c.Abort()
		return
	}

	claims, err := jwtManager.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return
	}

	if claims.Role != auth.RoleParticipant || claims.Subject == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return
	}

	c.Set(SessionUIDKey, claims.Subject)
	c.Next()
}
