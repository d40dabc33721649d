package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/velichkin/securechannel/internal/handlers/dto"
	"github.com/velichkin/securechannel/pkg/auth"
)

// fakeRegistry is an in-memory session.Registry.
type fakeRegistry struct {
	mu          sync.Mutex
	reserved    map[string]bool
	blacklisted map[string]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		reserved:    make(map[string]bool),
		blacklisted: make(map[string]bool),
	}
}

func (f *fakeRegistry) Reserve(_ context.Context, sessionID string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reserved[sessionID] {
		return false, nil
	}
	f.reserved[sessionID] = true
	return true, nil
}

func (f *fakeRegistry) BlacklistToken(_ context.Context, token string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklisted[token] = true
	return nil
}

func (f *fakeRegistry) IsTokenBlacklisted(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blacklisted[token], nil
}

func newGateRouter(t *testing.T, accessKey string) (*gin.Engine, *auth.JWTManager, *fakeRegistry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(accessKey), bcrypt.MinCost)
	require.NoError(t, err)

	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)
	registry := newFakeRegistry()
	gateH := NewGateHandler(string(hash), jwtMgr, registry, time.Second)

	router := gin.New()
	router.POST("/auth/gate", gateH.Gate)
	router.POST("/auth/logout", gateH.Logout)

	return router, jwtMgr, registry
}

func postGate(router *gin.Engine, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(dto.GateRequest{Password: password})
	req := httptest.NewRequest(http.MethodPost, "/auth/gate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGateIssuesCredentialForCorrectKey(t *testing.T) {
	req := require.New(t)
	router, jwtMgr, _ := newGateRouter(t, "letmein")

	w := postGate(router, "letmein")
	req.Equal(http.StatusOK, w.Code)

	var resp dto.GateResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.NotEmpty(resp.Token)

	claims, err := jwtMgr.Verify(resp.Token)
	req.NoError(err)
	req.Equal(auth.RoleParticipant, claims.Role)
	req.NotEmpty(claims.Subject)
}

func TestGateIssuesDistinctIdentities(t *testing.T) {
	req := require.New(t)
	router, jwtMgr, _ := newGateRouter(t, "letmein")

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		w := postGate(router, "letmein")
		req.Equal(http.StatusOK, w.Code)

		var resp dto.GateResponse
		req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))

		claims, err := jwtMgr.Verify(resp.Token)
		req.NoError(err)
		req.False(seen[claims.Subject], "identity %s issued twice", claims.Subject)
		seen[claims.Subject] = true
	}
}

func TestGateDeniesWrongKey(t *testing.T) {
	req := require.New(t)
	router, _, _ := newGateRouter(t, "letmein")

	w := postGate(router, "wrong")
	req.Equal(http.StatusForbidden, w.Code)

	// The denial stays generic regardless of why it failed.
	var resp map[string]string
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Equal("access denied", resp["error"])
}

func TestLogoutBlacklistsToken(t *testing.T) {
	req := require.New(t)
	router, _, registry := newGateRouter(t, "letmein")

	w := postGate(router, "letmein")
	req.Equal(http.StatusOK, w.Code)

	var resp dto.GateResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))

	logoutReq := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logoutReq.Header.Set("Authorization", "Bearer "+resp.Token)
	lw := httptest.NewRecorder()
	router.ServeHTTP(lw, logoutReq)

	req.Equal(http.StatusOK, lw.Code)

	blacklisted, err := registry.IsTokenBlacklisted(context.Background(), resp.Token)
	req.NoError(err)
	req.True(blacklisted)
}
