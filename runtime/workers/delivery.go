// Package workers contains the supervised goroutines that move messages
// from the dispatch queue onto the chat connection.
package workers

import (
	"context"
	"log/slog"

	"jabber-relay/contract"
	"jabber-relay/domain"
)

// Deliverer is the slice of the chat session a delivery worker needs.
type Deliverer interface {
	Deliver(msg domain.Message) error
}

// Ensure *DeliveryWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*DeliveryWorker)(nil)

// DeliveryWorker drains the message queue and hands each message to the
// session. Delivery failures are logged and the message is dropped:
// notifications are at-most-once and never retried. The worker finishes
// cleanly when the queue is closed, which is how the dispatcher drains
// in-flight work on shutdown.
type DeliveryWorker struct {
	session Deliverer
	queue   <-chan domain.Message
	log     *slog.Logger
}

func NewDeliveryWorker(session Deliverer, queue <-chan domain.Message, log *slog.Logger) *DeliveryWorker {
	return &DeliveryWorker{session: session, queue: queue, log: log}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping delivery worker")
			return ctx.Err()
		case msg, ok := <-w.queue:
			if !ok {
				w.log.Debug("Delivery queue closed")
				return nil
			}
			if err := w.session.Deliver(msg); err != nil {
				w.log.Error("Failed to deliver notification", "id", msg.ID, "room", msg.Room, "error", err)
			}
		}
	}
}
