package store

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/velichkin/securechannel/internal/database"
	"github.com/velichkin/securechannel/internal/models"
)

// MessageRepository is the persistence surface the store needs. Satisfied by
// *database.Database.
type MessageRepository interface {
	SaveMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	UpdateMessage(ctx context.Context, message *models.Message) error
	RecentMessages(ctx context.Context, limit int) ([]models.Message, error)
}

// MutationEvent carries the before/after state of an updated message to the
// audit trigger. Previous is never nil for update events.
type MutationEvent struct {
	Previous *models.Message
	Next     *models.Message
}

type Config struct {
	WindowSize       int
	EditWindow       time.Duration
	MaxContentLength int
}

// Store owns the message collection: all writes go through it so that every
// successful mutation refreshes the live window and feeds the audit trigger.
type Store struct {
	repo MessageRepository
	cfg  Config
	now  func() time.Time

	// mu serializes Edit and Withdraw. Each one is a read-check-write over
	// the stored row; without the lock a concurrent edit could read a
	// message before its withdrawal commits and re-save it visible.
	mu sync.Mutex

	feed      *feed
	mutations chan MutationEvent
}

func New(repo MessageRepository, cfg Config) *Store {
	return &Store{
		repo:      repo,
		cfg:       cfg,
		now:       time.Now,
		feed:      newFeed(),
		mutations: make(chan MutationEvent, 256),
	}
}

// Mutations exposes the stream of update events consumed by the audit trigger.
func (s *Store) Mutations() <-chan MutationEvent {
	return s.mutations
}

// Append stores a new visible message authored by actor.
func (s *Store) Append(ctx context.Context, content, displayName, actor string) (*models.Message, error) {
	content, err := s.validateContent(content)
	if err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = models.DefaultDisplayName
	}

	message := &models.Message{
		Content:     content,
		DisplayName: displayName,
		AuthUID:     actor,
		Visible:     true,
		IsEdited:    false,
		CreatedAt:   s.now(),
	}

	if err := s.repo.SaveMessage(ctx, message); err != nil {
		return nil, err
	}

	s.publishWindow()

	return message, nil
}

// Edit replaces the content of actor's own message while the edit window is
// open. Editing to the same content is a no-op.
func (s *Store) Edit(ctx context.Context, id, content, actor string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, err := s.getMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	if message.AuthUID != actor {
		return nil, ErrNotMessageAuthor
	}
	if !message.Visible {
		return nil, ErrMessageWithdrawn
	}
	if s.now().Sub(message.CreatedAt) > s.cfg.EditWindow {
		return nil, ErrEditWindowExpired
	}

	content, err = s.validateContent(content)
	if err != nil {
		return nil, err
	}
	if content == message.Content {
		return message, nil
	}

	previous := *message
	message.Content = content
	message.IsEdited = true

	if err := s.repo.UpdateMessage(ctx, message); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, &previous, message)

	return message, nil
}

// Withdraw soft-deletes actor's own message. Withdrawing an already-withdrawn
// message is a no-op, so the call is idempotent.
func (s *Store) Withdraw(ctx context.Context, id, actor string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, err := s.getMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	if message.AuthUID != actor {
		return nil, ErrNotMessageAuthor
	}
	if !message.Visible {
		return message, nil
	}

	previous := *message
	message.Visible = false
	message.Content = models.WithdrawnPlaceholder

	if err := s.repo.UpdateMessage(ctx, message); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, &previous, message)

	return message, nil
}

// Window returns the current live window in ascending creation order.
func (s *Store) Window(ctx context.Context) ([]models.Message, error) {
	return s.repo.RecentMessages(ctx, s.cfg.WindowSize)
}

// Subscribe registers a standing subscription that receives the current
// window immediately and a fresh snapshot after every mutation. The caller
// must Cancel the subscription on teardown.
func (s *Store) Subscribe(ctx context.Context, pageSize int) (*Subscription, error) {
	if pageSize <= 0 || pageSize > s.cfg.WindowSize {
		pageSize = s.cfg.WindowSize
	}

	snapshot, err := s.Window(ctx)
	if err != nil {
		return nil, err
	}

	sub := s.feed.add(pageSize)
	sub.deliver(trimWindow(snapshot, pageSize))

	return sub, nil
}

func (s *Store) getMessage(ctx context.Context, id string) (*models.Message, error) {
	message, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return message, nil
}

func (s *Store) validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if s.cfg.MaxContentLength > 0 && len([]rune(content)) > s.cfg.MaxContentLength {
		return "", ErrContentTooLong
	}
	return content, nil
}

// afterMutation runs once per successful update: one event for the trigger,
// one window refresh for the subscribers. The write has already committed, so
// neither step may fail the caller. Events are sent in commit order; when the
// buffer is full the caller waits for the trigger to drain, bounded by its
// own context, rather than reordering the stream.
func (s *Store) afterMutation(ctx context.Context, previous, next *models.Message) {
	event := MutationEvent{Previous: previous, Next: next}
	select {
	case s.mutations <- event:
	case <-ctx.Done():
		log.Printf("store: dropping %s audit event for message %s: %v",
			eventKind(previous, next), next.ID, ctx.Err())
	}

	s.publishWindow()
}

func eventKind(previous, next *models.Message) string {
	if previous.Visible && !next.Visible {
		return "withdrawal"
	}
	return "edit"
}

func (s *Store) publishWindow() {
	snapshot, err := s.repo.RecentMessages(context.Background(), s.cfg.WindowSize)
	if err != nil {
		log.Printf("store: window refresh failed: %v", err)
		return
	}
	s.feed.publish(snapshot)
}

func trimWindow(window []models.Message, pageSize int) []models.Message {
	if len(window) <= pageSize {
		return window
	}
	return window[len(window)-pageSize:]
}
