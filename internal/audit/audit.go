// Package audit records append-only audit events without blocking the
// request path that triggered them.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/storage/db"
	"github.com/lumenforge/aac/internal/telemetry"
)

// Event is the caller-facing shape; TenantID/ActorUserID/TargetID are
// pointers because many event types (service registration, system bootstrap)
// have no tenant or acting user.
type Event struct {
	TenantID      *uuid.UUID
	ActorUserID   *uuid.UUID
	EventTypeCode string
	TargetType    string
	TargetID      *uuid.UUID
	Data          map[string]any
	IPAddress     string
	UserAgent     string
}

// Recorder queues events onto a bounded channel drained by a small worker
// pool, so Record returns immediately and never blocks the request handling
// goroutine on a database round trip.
type Recorder struct {
	q       *db.Queries
	log     *slog.Logger
	queue   chan Event
	wg      sync.WaitGroup
	closeCh chan struct{}
	once    sync.Once
}

// NewRecorder starts workers workers draining a queue of size bufferSize.
// A full queue drops the event and logs at error rather than blocking the
// caller — audit recording must never slow down or fail a user request.
func NewRecorder(q *db.Queries, log *slog.Logger, workers, bufferSize int) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	if bufferSize < 1 {
		bufferSize = 256
	}

	r := &Recorder{
		q:       q,
		log:     log,
		queue:   make(chan Event, bufferSize),
		closeCh: make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for {
		select {
		case ev, ok := <-r.queue:
			if !ok {
				return
			}
			r.persist(ev)
		case <-r.closeCh:
			for {
				select {
				case ev := <-r.queue:
					r.persist(ev)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) persist(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(ev.Data)
	if err != nil {
		r.log.Error("audit: marshaling event data", "err", err, "event_type", ev.EventTypeCode)
		payload = []byte("{}")
	}

	arg := db.CreateAuditEventParams{
		EventID:       uuid.New(),
		TenantID:      ev.TenantID,
		ActorUserID:   ev.ActorUserID,
		EventTypeCode: ev.EventTypeCode,
		TargetType:    ev.TargetType,
		TargetID:      ev.TargetID,
		EventData:     payload,
		IPAddress:     ev.IPAddress,
		UserAgent:     ev.UserAgent,
	}

	if err := r.q.CreateAuditEvent(ctx, arg); err != nil {
		r.log.Error("audit: persisting event failed", "err", err, "event_type", ev.EventTypeCode)
	}
}

// Record enqueues ev without blocking. A full queue is a signal the workers
// can't keep up; the event is dropped and the drop itself is logged.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	select {
	case r.queue <- ev:
	default:
		telemetry.AuditQueueDroppedTotal.Inc()
		r.log.Error("audit: queue full, dropping event", "event_type", ev.EventTypeCode)
	}
}

// Close signals the workers to stop and waits until they have persisted every
// event already queued.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.closeCh)
	})
	r.wg.Wait()
}
