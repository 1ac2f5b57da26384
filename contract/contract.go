//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"jabber-relay/domain"
)

// ConnConfig is the resolved connection target for the chat server.
// Exactly one of Domain or Host is set. When Host is used, Port is already
// resolved (5222 unless configured otherwise).
type ConnConfig struct {
	Domain   string
	Host     string
	Port     int
	Username string
	Password string

	// InsecureSkipVerify disables TLS certificate and hostname
	// verification. Opt-in only; never a default.
	InsecureSkipVerify bool
}

// Conn is a live, authenticated connection to the chat server.
// Implementations are responsible for the wire protocol only; room
// bookkeeping belongs to the session.
type Conn interface {
	// JoinRoom joins (creating if the server allows) the named room under
	// the given nickname.
	JoinRoom(room, nickname string) error
	// SendText posts a plain-text message to a previously joined room.
	SendText(room, body string) error
	// SendRich posts a message with both a plain body and an XHTML
	// alternate body to a previously joined room.
	SendRich(room, body, richBody string) error
	Close() error
}

// Dialer opens an authenticated Conn. Abstracted so session tests can
// observe the resolved ConnConfig without a live server.
type Dialer interface {
	Dial(cfg ConnConfig) (Conn, error)
}

// HistoryWalker enumerates commits between two object ids, topologically
// ordered, oldest first, with the old tip itself excluded. Only consulted
// for fast-forward branch updates.
type HistoryWalker interface {
	CommitsBetween(ctx context.Context, oldID, newID string) ([]domain.Commit, error)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
