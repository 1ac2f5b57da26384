package workers

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jabber-relay/domain"
	"jabber-relay/errors"
	"jabber-relay/internal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDeliverer records deliveries. When block is non-nil, Deliver waits
// until it is closed, simulating a stuck network call.
type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []domain.Message
	err       error
	block     chan struct{}
}

func (f *fakeDeliverer) Deliver(msg domain.Message) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, msg)
	return f.err
}

func (f *fakeDeliverer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered)
}

func dispatcherConfig() internal.Config {
	return internal.Config{
		DeliveryWorkers:   2,
		DeliveryQueueSize: 8,
		DrainTimeout:      2 * time.Second,
	}
}

func TestDispatcher_StopDrainsQueuedDeliveries(t *testing.T) {
	req := require.New(t)
	session := &fakeDeliverer{}
	d := NewDispatcher(dispatcherConfig(), session, testLogger())
	d.Start()

	for i := 0; i < 5; i++ {
		d.Submit(domain.Text(fmt.Sprintf("message %d", i)))
	}

	req.NoError(d.Stop())
	req.Equal(5, session.count())
}

func TestDispatcher_DeliveryFailureIsSwallowed(t *testing.T) {
	req := require.New(t)
	session := &fakeDeliverer{err: fmt.Errorf("room join failed")}
	d := NewDispatcher(dispatcherConfig(), session, testLogger())
	d.Start()

	// The async path must not surface the failure anywhere; the worker
	// logs it and moves on.
	d.Submit(domain.Text("doomed"))

	req.NoError(d.Stop())
	req.Equal(1, session.count())
}

func TestDispatcher_StopRespectsDrainTimeout(t *testing.T) {
	req := require.New(t)
	session := &fakeDeliverer{block: make(chan struct{})}
	cfg := dispatcherConfig()
	cfg.DrainTimeout = 50 * time.Millisecond
	d := NewDispatcher(cfg, session, testLogger())
	d.Start()

	d.Submit(domain.Text("stuck"))

	start := time.Now()
	req.ErrorIs(d.Stop(), errors.ErrDrainTimeout)
	req.Less(time.Since(start), time.Second)

	close(session.block)
}

func TestDispatcher_SubmitAfterStopIsDropped(t *testing.T) {
	req := require.New(t)
	session := &fakeDeliverer{}
	d := NewDispatcher(dispatcherConfig(), session, testLogger())
	d.Start()
	req.NoError(d.Stop())

	d.Submit(domain.Text("late"))
	req.Zero(session.count())
}

func TestDispatcher_SubmitFullQueueDrops(t *testing.T) {
	req := require.New(t)
	session := &fakeDeliverer{}
	cfg := dispatcherConfig()
	cfg.DeliveryQueueSize = 1
	d := NewDispatcher(cfg, session, testLogger())

	// Workers not started yet: the queue fills and overflow is dropped
	// instead of blocking the submitting path.
	d.Submit(domain.Text("first"))
	d.Submit(domain.Text("second"))
	d.Submit(domain.Text("third"))

	d.Start()
	req.NoError(d.Stop())
	req.Equal(1, session.count())
}

func TestDispatcher_SubmitSync(t *testing.T) {
	req := require.New(t)
	session := &fakeDeliverer{}
	d := NewDispatcher(dispatcherConfig(), session, testLogger())
	d.Start()
	defer func() { _ = d.Stop() }()

	req.NoError(d.SubmitSync(domain.Text("now")))
	req.Equal(1, session.count())
}

func TestDispatcher_SubmitSyncSurfacesError(t *testing.T) {
	req := require.New(t)
	session := &fakeDeliverer{err: fmt.Errorf("not connected")}
	d := NewDispatcher(dispatcherConfig(), session, testLogger())
	d.Start()
	defer func() { _ = d.Stop() }()

	req.ErrorContains(d.SubmitSync(domain.Text("now")), "not connected")
}

func TestDispatcher_SubmitSyncAfterStop(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(dispatcherConfig(), &fakeDeliverer{}, testLogger())
	d.Start()
	req.NoError(d.Stop())

	req.ErrorIs(d.SubmitSync(domain.Text("late")), errors.ErrStopped)
}

func TestDispatcher_StopWithoutStart(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(dispatcherConfig(), &fakeDeliverer{}, testLogger())
	req.NoError(d.Stop())
}

func TestDispatcher_StopTwice(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(dispatcherConfig(), &fakeDeliverer{}, testLogger())
	d.Start()
	req.NoError(d.Stop())
	req.NoError(d.Stop())
}
