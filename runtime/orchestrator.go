// Package runtime wires the relay together and owns its lifecycle.
package runtime

import (
	"context"
	"log/slog"

	"jabber-relay/contract"
	"jabber-relay/domain"
	"jabber-relay/internal"
	"jabber-relay/runtime/workers"
	"jabber-relay/services"
	"jabber-relay/xmpp"
)

// Orchestrator assembles the session, the dispatcher and the receive hook
// from one Config and exposes the relay's whole surface: lifecycle,
// post-receive processing and the synchronous test send.
type Orchestrator struct {
	log        *slog.Logger
	session    *xmpp.Session
	dispatcher *workers.Dispatcher
	hook       *services.ReceiveHook
	builder    services.MessageBuilder
}

func NewOrchestrator(cfg internal.Config, dialer contract.Dialer, log *slog.Logger) *Orchestrator {
	session := xmpp.NewSession(cfg, dialer, log)
	dispatcher := workers.NewDispatcher(cfg, session, log)
	router := services.NewRoomRouter(cfg, log)
	builder := services.NewMessageBuilder(cfg)
	return &Orchestrator{
		log:        log,
		session:    session,
		dispatcher: dispatcher,
		hook:       services.NewReceiveHook(cfg, router, builder, dispatcher, log),
		builder:    builder,
	}
}

// Start connects the chat session and launches the delivery pool. A
// failed connection leaves the relay running but non-functional; that is
// logged, never fatal.
func (o *Orchestrator) Start() {
	o.session.Start()
	o.dispatcher.Start()
}

// Stop drains pending deliveries, then disconnects. Ordering matters:
// the connection must outlive the last in-flight send.
func (o *Orchestrator) Stop() {
	if err := o.dispatcher.Stop(); err != nil {
		o.log.Error("Dispatcher shutdown", "error", err)
	}
	o.session.Stop()
}

// PostReceive relays one push. Safe to call from the host's hook path:
// it neither blocks on network I/O nor returns an error.
func (o *Orchestrator) PostReceive(ctx context.Context, push domain.Push, walker contract.HistoryWalker) {
	o.hook.OnPostReceive(ctx, push, walker)
}

// SendTest posts the administrative test message synchronously, to the
// given room or to the default room when empty. The delivery error is
// surfaced: an administrator actively awaits this one.
func (o *Orchestrator) SendTest(room string) error {
	msg := o.builder.TestMessage()
	if room != "" {
		msg = msg.WithRoom(room)
	}
	return o.dispatcher.SubmitSync(msg)
}

// IsConnected reports whether the chat session is up.
func (o *Orchestrator) IsConnected() bool {
	return o.session.IsConnected()
}
