package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/velichkin/securechannel/internal/handlers/dto"
	"github.com/velichkin/securechannel/internal/middleware"
	"github.com/velichkin/securechannel/internal/models"
	"github.com/velichkin/securechannel/internal/store"
)

// fakeStore returns canned results so the handler's error mapping can be
// exercised without a database.
type fakeStore struct {
	message *models.Message
	window  []models.Message
	err     error
}

func (f *fakeStore) Append(context.Context, string, string, string) (*models.Message, error) {
	return f.message, f.err
}

func (f *fakeStore) Edit(context.Context, string, string, string) (*models.Message, error) {
	return f.message, f.err
}

func (f *fakeStore) Withdraw(context.Context, string, string) (*models.Message, error) {
	return f.message, f.err
}

func (f *fakeStore) Window(context.Context) ([]models.Message, error) {
	return f.window, f.err
}

func newMessageRouter(st MessageStore, sessionUID string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewHTTPMessageHandler(st)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.SessionUIDKey, sessionUID)
	})
	router.GET("/messages", h.ListMessages)
	router.POST("/messages", h.SendMessage)
	router.PATCH("/messages/:id", h.EditMessage)
	router.POST("/messages/:id/withdraw", h.WithdrawMessage)

	return router
}

func TestSendMessageCreated(t *testing.T) {
	req := require.New(t)

	msg := &models.Message{
		ID:          uuid.New(),
		Content:     "hello",
		DisplayName: "Ann",
		AuthUID:     "anon_1_a",
		Visible:     true,
		CreatedAt:   time.Now(),
	}
	router := newMessageRouter(&fakeStore{message: msg}, "anon_1_a")

	body, _ := json.Marshal(map[string]string{"content": "hello"})
	r := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	req.Equal(http.StatusCreated, w.Code)

	var resp dto.MessageResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Equal("hello", resp.Content)
	req.True(resp.Visible)
}

func TestListMessagesReturnsWindow(t *testing.T) {
	req := require.New(t)

	window := []models.Message{
		{ID: uuid.New(), Content: "one", Visible: true},
		{ID: uuid.New(), Content: models.WithdrawnPlaceholder, Visible: false},
	}
	router := newMessageRouter(&fakeStore{window: window}, "anon_1_a")

	r := httptest.NewRequest(http.MethodGet, "/messages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)

	var resp struct {
		Messages []dto.MessageResponse `json:"messages"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Len(resp.Messages, 2)
	req.Equal("one", resp.Messages[0].Content)
	req.False(resp.Messages[1].Visible)
}

func TestStoreErrorMapping(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"empty content", store.ErrEmptyContent, http.StatusBadRequest},
		{"content too long", store.ErrContentTooLong, http.StatusBadRequest},
		{"not the author", store.ErrNotMessageAuthor, http.StatusForbidden},
		{"edit window expired", store.ErrEditWindowExpired, http.StatusForbidden},
		{"message withdrawn", store.ErrMessageWithdrawn, http.StatusForbidden},
		{"message not found", store.ErrMessageNotFound, http.StatusNotFound},
		{"anything else", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newMessageRouter(&fakeStore{err: tt.err}, "anon_1_a")

			body, _ := json.Marshal(map[string]string{"content": "x"})
			r := httptest.NewRequest(http.MethodPatch, "/messages/"+uuid.NewString(), bytes.NewReader(body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			req.Equal(tt.wantStatus, w.Code)
		})
	}
}

func TestWithdrawMessage(t *testing.T) {
	req := require.New(t)

	msg := &models.Message{
		ID:      uuid.New(),
		Content: models.WithdrawnPlaceholder,
		AuthUID: "anon_1_a",
		Visible: false,
	}
	router := newMessageRouter(&fakeStore{message: msg}, "anon_1_a")

	r := httptest.NewRequest(http.MethodPost, "/messages/"+msg.ID.String()+"/withdraw", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)

	var resp dto.MessageResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.False(resp.Visible)
	req.Equal(models.WithdrawnPlaceholder, resp.Content)
}
