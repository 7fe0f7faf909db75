package audit

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/lumenforge/aac/internal/storage/db"
)

// fakeDBTX counts Exec calls; Query/QueryRow are never exercised by
// CreateAuditEvent so they panic if called.
type fakeDBTX struct {
	execCount int64
	mu        sync.Mutex
	lastSQL   string
}

func (f *fakeDBTX) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	atomic.AddInt64(&f.execCount, 1)
	f.mu.Lock()
	f.lastSQL = sql
	f.mu.Unlock()
	return pgconn.CommandTag{}, nil
}

func (f *fakeDBTX) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	panic("not used by CreateAuditEvent")
}

func (f *fakeDBTX) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	panic("not used by CreateAuditEvent")
}

func TestRecorder_RecordPersistsAsynchronously(t *testing.T) {
	fake := &fakeDBTX{}
	q := db.New(fake)
	rec := NewRecorder(q, nil, 1, 8)
	defer rec.Close()

	rec.Record(context.Background(), Event{EventTypeCode: "login_success"})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&fake.execCount) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRecorder_DropsEventsWhenQueueFull(t *testing.T) {
	fake := &fakeDBTX{}
	q := db.New(fake)
	// Zero workers so nothing drains the queue; bufferSize 1 fills
	// immediately after the first Record.
	rec := &Recorder{q: q, log: slog.New(slog.NewTextHandler(io.Discard, nil)), queue: make(chan Event, 1), closeCh: make(chan struct{})}

	rec.Record(context.Background(), Event{EventTypeCode: "a"})
	rec.Record(context.Background(), Event{EventTypeCode: "b"})
	rec.Record(context.Background(), Event{EventTypeCode: "c"})

	assert.Len(t, rec.queue, 1)
}
