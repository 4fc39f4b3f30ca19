package examAuth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	got     []AuditEvent
}

func (s *blockingSink) Emit(_ context.Context, e AuditEvent) {
	<-s.release
	s.mu.Lock()
	s.got = append(s.got, e)
	s.mu.Unlock()
}

func (s *blockingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestAuditDispatcherDisabledIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatalf("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	_ = d.Close(context.Background())
	if d.Dropped() != 0 {
		t.Fatalf("nil dispatcher reported drops")
	}
}

func TestAuditDispatcherStampsEvents(t *testing.T) {
	sink := NewChannelSink(4)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	d.now = func() time.Time { return fixed }

	d.Emit(context.Background(), AuditEvent{EventType: AuditLoginSuccess, UserID: "alice"})
	d.Emit(context.Background(), AuditEvent{ID: "keep", EventType: AuditLogout})
	_ = d.Close(context.Background())

	first := <-sink.Events()
	if len(first.ID) != 36 {
		t.Fatalf("expected generated uuid, got %q", first.ID)
	}
	if !first.Timestamp.Equal(fixed) || first.Timestamp.Location() != time.UTC {
		t.Fatalf("unexpected timestamp %v", first.Timestamp)
	}
	second := <-sink.Events()
	if second.ID != "keep" {
		t.Fatalf("explicit id replaced: %q", second.ID)
	}
}

func TestAuditDispatcherDropIfFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event is held by the sink, one fills the buffer.
	d.Emit(context.Background(), AuditEvent{EventType: AuditLoginSuccess})
	deadline := time.Now().Add(2 * time.Second)
	for len(d.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), AuditEvent{EventType: AuditLoginSuccess})
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditLoginFailure})
	}

	if got := d.Dropped(); got != 5 {
		t.Fatalf("dropped = %d, want 5", got)
	}

	close(sink.release)
	_ = d.Close(context.Background())
	if got := sink.count(); got != 2 {
		t.Fatalf("delivered = %d, want 2", got)
	}
}

func TestAuditDispatcherBlockingHonorsContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	deadline := time.Now().Add(2 * time.Second)
	for len(d.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Emit(ctx, AuditEvent{EventType: AuditLogout})
	if got := d.Dropped(); got != 1 {
		t.Fatalf("dropped = %d, want 1", got)
	}

	close(sink.release)
	_ = d.Close(context.Background())
}

func TestAuditDispatcherIgnoresEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(2)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 2}, sink)
	_ = d.Close(context.Background())
	_ = d.Close(context.Background())
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})

	select {
	case e := <-sink.Events():
		t.Fatalf("unexpected event after close: %+v", e)
	default:
	}
}

func TestAuditDispatcherCloseIsBoundedByContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	d.Emit(context.Background(), AuditEvent{EventType: AuditLoginSuccess})
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Close(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(sink.release)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if got := sink.count(); got != 2 {
		t.Fatalf("delivered = %d, want 2", got)
	}
}

func TestAuditDispatcherCloseReleasesBlockedEmit(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	deadline := time.Now().Add(2 * time.Second)
	for len(d.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})

	done := make(chan struct{})
	go func() {
		d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- d.Close(context.Background()) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Emit was not released by Close")
	}
	close(sink.release)
	if err := <-closed; err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := sink.count(); got != 2 {
		t.Fatalf("delivered = %d, want 2", got)
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{ID: "1", EventType: AuditUserCreated, Success: true, Metadata: map[string]string{"role": "student"}})
	sink.Emit(context.Background(), AuditEvent{ID: "2", EventType: AuditPermissionDenied, Error: "permission denied"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var e AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.EventType != AuditUserCreated || e.Metadata["role"] != "student" {
		t.Fatalf("unexpected event %+v", e)
	}

	var nilSink *JSONWriterSink
	nilSink.Emit(context.Background(), e)
}
