package examAuth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// auditDispatcher hands events to the sink on one worker goroutine so that
// session transitions never wait on sink I/O. Closing the queue is guarded by
// mu: emitters hold the read lock while sending, Close takes the write lock
// only after stopping has released any emitter blocked on a full queue.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool
	queue      chan AuditEvent

	mu       sync.RWMutex
	closed   bool
	stopping chan struct{}
	stopOnce sync.Once
	drained  chan struct{}

	dropped atomic.Uint64
	now     func() time.Time
}

// newAuditDispatcher returns nil when audit is disabled; every method
// tolerates a nil receiver.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, size),
		stopping:   make(chan struct{}),
		drained:    make(chan struct{}),
		now:        time.Now,
	}
	go d.deliver()
	return d
}

// deliver runs until the queue is closed and empty.
func (d *auditDispatcher) deliver() {
	defer close(d.drained)
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit stamps the event with an id and timestamp when missing and queues it.
// With DropIfFull a full queue drops the event and counts it; otherwise Emit
// waits for room until ctx ends (counted as a drop) or the dispatcher closes.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stopping:
	}
}

// Close stops accepting events and waits for queued events to reach the sink.
// When ctx ends first Close returns ctx.Err(); delivery continues in the
// background.
func (d *auditDispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.stopOnce.Do(func() {
		close(d.stopping)
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})

	select {
	case <-d.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
