package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/velichkin/securechannel/internal/models"
)

// Subscription is a cancellable window feed. C yields whole-window snapshots
// in ascending creation order; it is closed by Cancel.
type Subscription struct {
	C <-chan []models.Message

	id       uuid.UUID
	ch       chan []models.Message
	pageSize int
	feed     *feed
}

// Cancel tears the subscription down and closes C. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.feed.remove(s.id)
}

// deliver pushes a snapshot, keeping only the latest one when the consumer
// lags. A subscriber therefore always observes the current window next.
func (s *Subscription) deliver(snapshot []models.Message) {
	select {
	case s.ch <- snapshot:
	default:
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- snapshot:
		default:
		}
	}
}

type feed struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

func newFeed() *feed {
	return &feed{subs: make(map[uuid.UUID]*Subscription)}
}

func (f *feed) add(pageSize int) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan []models.Message, 1)
	sub := &Subscription{
		C:        ch,
		id:       uuid.New(),
		ch:       ch,
		pageSize: pageSize,
		feed:     f,
	}
	f.subs[sub.id] = sub

	return sub
}

func (f *feed) remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sub, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(sub.ch)
	}
}

// publish fans the snapshot out to every subscriber. Holding the read lock
// keeps remove (and its close) from racing a deliver.
func (f *feed) publish(snapshot []models.Message) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.subs {
		sub.deliver(trimWindow(snapshot, sub.pageSize))
	}
}
