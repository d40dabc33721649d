package main

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/velichkin/securechannel/internal/config"
	"github.com/velichkin/securechannel/internal/database"
	"github.com/velichkin/securechannel/internal/handlers/dto"
	"github.com/velichkin/securechannel/internal/models"
	"github.com/velichkin/securechannel/internal/store"
	ws "github.com/velichkin/securechannel/internal/websocket"
)

// memRepo is a minimal in-memory message repository for wiring tests.
type memRepo struct {
	mu       sync.Mutex
	messages []models.Message
}

func (m *memRepo) SaveMessage(_ context.Context, message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	message.ID = uuid.New()
	m.messages = append(m.messages, *message)
	return nil
}

func (m *memRepo) GetMessage(_ context.Context, id string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID.String() == id {
			copied := msg
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memRepo) UpdateMessage(_ context.Context, message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range m.messages {
		if msg.ID == message.ID {
			m.messages[i] = *message
		}
	}
	return nil
}

func (m *memRepo) RecentMessages(_ context.Context, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if len(m.messages) > limit {
		start = len(m.messages) - limit
	}
	return append([]models.Message(nil), m.messages[start:]...), nil
}

func TestForwardSnapshotsBroadcastsWindow(t *testing.T) {
	req := require.New(t)

	st := store.New(&memRepo{}, store.Config{WindowSize: 50, EditWindow: 15 * time.Minute, MaxContentLength: 100})
	hub := ws.NewHub()
	go hub.Run()

	client := &ws.Client{ID: uuid.New(), SessionUID: "anon_1_a", Send: make(chan []byte, 8), Hub: hub}
	hub.Register(client)
	defer hub.Unregister(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := st.Subscribe(ctx, 50)
	req.NoError(err)

	srv := &Server{Store: st, Hub: hub, cfg: &config.Config{WindowSize: 50}}
	go srv.forwardSnapshots(ctx, sub)

	_, err = st.Append(context.Background(), "hello", "Ann", "anon_1_a")
	req.NoError(err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-client.Send:
			var frame ws.Frame
			req.NoError(json.Unmarshal(data, &frame))
			if frame.Type != ws.TypeSnapshot {
				continue
			}
			var window []dto.MessageResponse
			req.NoError(json.Unmarshal(frame.Data, &window))
			if len(window) == 0 {
				// The initial snapshot precedes the append.
				continue
			}
			req.Equal("hello", window[0].Content)
			return

		case <-deadline:
			t.Fatal("expected the appended message to be broadcast")
		}
	}
}
