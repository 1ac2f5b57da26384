package services

import (
	"context"
	"log/slog"

	"jabber-relay/contract"
	"jabber-relay/domain"
	"jabber-relay/internal"
)

// Submitter accepts a fully routed message for asynchronous delivery.
type Submitter interface {
	Submit(msg domain.Message)
}

// ReceiveHook is the synchronous entry point invoked by the host's
// post-receive path. It gates, formats and routes each ref update, then
// hands the messages to the dispatcher. It never blocks on chat-server
// I/O and never propagates a failure to the caller: a broken chat
// integration must not disturb the push.
type ReceiveHook struct {
	log          *slog.Logger
	postBranches bool
	postTags     bool
	router       *RoomRouter
	builder      MessageBuilder
	dispatcher   Submitter
}

func NewReceiveHook(cfg internal.Config, router *RoomRouter, builder MessageBuilder, dispatcher Submitter, log *slog.Logger) *ReceiveHook {
	return &ReceiveHook{
		log:          log,
		postBranches: cfg.PostBranches,
		postTags:     cfg.PostTags,
		router:       router,
		builder:      builder,
		dispatcher:   dispatcher,
	}
}

// OnPostReceive processes one push. The walker is consulted only for
// fast-forward branch updates; a walker failure degrades to a message
// without a commit list.
func (h *ReceiveHook) OnPostReceive(ctx context.Context, push domain.Push, walker contract.HistoryWalker) {
	if !h.router.ShallPost(push.Repository) {
		h.log.Debug("Skipping personal repository", "repository", push.Repository.Name)
		return
	}

	for _, cmd := range push.Commands {
		switch cmd.Kind() {
		case domain.RefBranch:
			if !h.postBranches {
				continue
			}
		case domain.RefTag:
			if !h.postTags {
				continue
			}
		default:
			// ignore other refs
			continue
		}

		var msg domain.Message
		switch cmd.Change {
		case domain.ChangeCreate:
			msg = h.builder.Create(push.Actor, push.Repository, cmd)
		case domain.ChangeUpdate, domain.ChangeUpdateNonFastForward:
			fastForward := cmd.Change == domain.ChangeUpdate
			var commits []domain.Commit
			if fastForward && cmd.Kind() == domain.RefBranch {
				var err error
				commits, err = walker.CommitsBetween(ctx, cmd.OldID, cmd.NewID)
				if err != nil {
					h.log.Error("Failed to enumerate pushed commits", "ref", cmd.RefName, "error", err)
					commits = nil
				}
			}
			msg = h.builder.Update(push.Actor, push.Repository, cmd, commits, fastForward)
		case domain.ChangeDelete:
			msg = h.builder.Delete(push.Actor, push.Repository, cmd)
		default:
			continue
		}

		msg = h.router.Route(push.Repository, msg)
		h.dispatcher.Submit(msg)
	}
}
