package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/velichkin/securechannel/internal/handlers/dto"
	"github.com/velichkin/securechannel/internal/session"
	"github.com/velichkin/securechannel/pkg/auth"
)

// How many times to regenerate a session id on a reservation collision.
const maxIssueAttempts = 3

// GateHandler exchanges the shared access key for an ephemeral session
// credential.
type GateHandler struct {
	accessKeyHash []byte
	jwtManager    *auth.JWTManager
	sessions      session.Registry
	issueTimeout  time.Duration
}

func NewGateHandler(accessKeyHash string, jwtManager *auth.JWTManager, sessions session.Registry, issueTimeout time.Duration) *GateHandler {
	return &GateHandler{
		accessKeyHash: []byte(accessKeyHash),
		jwtManager:    jwtManager,
		sessions:      sessions,
		issueTimeout:  issueTimeout,
	}
}

// Gate validates the shared key and issues a fresh identity. The denial is
// deliberately generic: a wrong key learns nothing beyond "denied".
func (h *GateHandler) Gate(c *gin.Context) {
	var req dto.GateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.accessKeyHash, []byte(req.Password)); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.issueTimeout)
	defer cancel()

	sessionID, err := h.issueSessionID(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue session"})
		return
	}

	token, err := h.jwtManager.Generate(sessionID, auth.RoleParticipant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusOK, dto.GateResponse{Token: token})
}

// Logout revokes the presented credential until its natural expiry.
func (h *GateHandler) Logout(c *gin.Context) {
	rawToken, err := auth.ExtractTokenFromHeader(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.sessions.BlacklistToken(c.Request.Context(), rawToken, time.Until(exp)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not revoke token"})
		return
	}

	c.Status(http.StatusOK)
}

func (h *GateHandler) issueSessionID(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		id, err := auth.NewSessionID()
		if err != nil {
			return "", err
		}

		ok, err := h.sessions.Reserve(ctx, id, h.jwtManager.TokenDuration())
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return id, nil
		}
	}
	if lastErr == nil {
		lastErr = errors.New("could not reserve a unique session id")
	}
	return "", lastErr
}
