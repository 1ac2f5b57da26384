package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"jabber-relay/domain"
	"jabber-relay/errors"
	"jabber-relay/internal"
)

// Dispatcher decouples the push-acceptance path from chat-server latency.
// Submit enqueues a message for a pool of supervised delivery workers and
// returns immediately; SubmitSync delivers inline and surfaces the error,
// which only the administrative test command wants.
//
// The dispatcher runs its workers on a private context rather than the
// caller's: Stop must be able to drain queued deliveries after the host
// has already canceled its own context.
type Dispatcher struct {
	log          *slog.Logger
	session      Deliverer
	queue        chan domain.Message
	drainTimeout time.Duration

	sup    *Supervisor
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
}

const workerRestartInterval = 200 * time.Millisecond

func NewDispatcher(cfg internal.Config, session Deliverer, log *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		log:          log,
		session:      session,
		queue:        make(chan domain.Message, cfg.DeliveryQueueSize),
		drainTimeout: cfg.DrainTimeout,
		sup:          NewSupervisor(log, workerRestartInterval),
		done:         make(chan struct{}),
	}
	for i := 0; i < cfg.DeliveryWorkers; i++ {
		d.sup.Add(NewDeliveryWorker(session, d.queue, log))
	}
	return d
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()
	go func() {
		defer close(d.done)
		d.sup.Run(ctx)
	}()
}

// Submit enqueues a message for asynchronous delivery. It never blocks:
// a full queue drops the message with a log line, matching the
// best-effort delivery model. After Stop, submissions are dropped.
func (d *Dispatcher) Submit(msg domain.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		d.log.Warn("Dispatcher stopped, dropping notification", "id", msg.ID)
		return
	}
	select {
	case d.queue <- msg:
	default:
		d.log.Warn("Delivery queue full, dropping notification", "id", msg.ID, "room", msg.Room)
	}
}

// SubmitSync delivers inline on the caller's goroutine.
func (d *Dispatcher) SubmitSync(msg domain.Message) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return errors.ErrStopped
	}
	d.mu.Unlock()
	return d.session.Deliver(msg)
}

// Stop closes the intake and waits for the workers to drain the queue.
// If the drain exceeds the configured timeout the workers are canceled
// and pending messages are abandoned, so a stuck network call cannot
// hang shutdown forever.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	started := d.cancel != nil
	d.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-d.done:
		return nil
	case <-time.After(d.drainTimeout):
		d.log.Error("Delivery drain timed out, abandoning pending notifications")
		d.cancel()
		return errors.ErrDrainTimeout
	}
}
