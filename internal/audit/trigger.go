package audit

import (
	"context"
	"log"
	"time"

	"github.com/velichkin/securechannel/internal/models"
	"github.com/velichkin/securechannel/internal/store"
)

// Recorder persists audit records. Satisfied by *database.Database.
type Recorder interface {
	AppendAuditRecord(ctx context.Context, record *models.AuditRecord) error
}

// Trigger consumes the store's mutation events and appends at most one audit
// record per event, retrying failed writes. It runs apart from the mutation
// path: a caller can neither block on it nor suppress it.
type Trigger struct {
	recorder Recorder
	events   <-chan store.MutationEvent

	// Retry policy for failed audit writes. A retry after a partially
	// applied write may duplicate a record; that is the accepted trade-off
	// of at-least-once delivery.
	Attempts int
	Backoff  time.Duration
}

func NewTrigger(recorder Recorder, events <-chan store.MutationEvent) *Trigger {
	return &Trigger{
		recorder: recorder,
		events:   events,
		Attempts: 3,
		Backoff:  200 * time.Millisecond,
	}
}

// Run processes events until ctx is cancelled.
func (t *Trigger) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-t.events:
			t.handle(ctx, event)
		}
	}
}

func (t *Trigger) handle(ctx context.Context, event store.MutationEvent) {
	record, ok := Classify(event.Previous, event.Next)
	if !ok {
		return
	}

	var err error
	for attempt := 1; attempt <= t.Attempts; attempt++ {
		if err = t.recorder.AppendAuditRecord(ctx, record); err == nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(t.Backoff):
		}
	}

	log.Printf("audit: giving up on %s record for message %s after %d attempts: %v",
		record.EventType, record.TargetMessageID, t.Attempts, err)
}
