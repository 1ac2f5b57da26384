package xmpp

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"jabber-relay/contract"
	"jabber-relay/domain"
	apperrors "jabber-relay/errors"
	"jabber-relay/internal"
)

const defaultPort = 5222

// Session owns the single long-lived chat connection and the cache of
// joined rooms. It is constructed once and injected everywhere a message
// leaves the process; the one-session-per-process rule is the caller's
// to enforce, not a package-level static.
//
// Start and Stop never propagate protocol failures. A session that could
// not connect stays non-functional: Deliver reports ErrNotConnected and
// the relay degrades to log-only evidence.
type Session struct {
	log    *slog.Logger
	cfg    internal.Config
	dialer contract.Dialer

	// mu guards conn and rooms. Join-or-create holds it across the
	// network join so two concurrent first-sends to the same room cannot
	// race into duplicate memberships. Sends run outside the lock.
	mu    sync.Mutex
	conn  contract.Conn
	rooms map[string]struct{}
}

func NewSession(cfg internal.Config, dialer contract.Dialer, log *slog.Logger) *Session {
	return &Session{
		log:    log,
		cfg:    cfg,
		dialer: dialer,
		rooms:  make(map[string]struct{}),
	}
}

// Start resolves the connection target, connects, authenticates and joins
// the configured default room. Every failure is logged and swallowed;
// callers must treat the session as possibly non-functional.
func (s *Session) Start() {
	cc, err := s.connConfig()
	if err != nil {
		s.log.Error("Chat session not started", "error", err)
		return
	}

	conn, err := s.dialer.Dial(cc)
	if err != nil {
		s.log.Error("Failed to connect to chat server", "error", err)
		return
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.log.Info("Connected to chat server", "user", cc.Username)

	if s.cfg.DefaultRoom != "" {
		if err := s.ResolveRoom(s.cfg.DefaultRoom); err != nil {
			s.log.Error("Failed to join default room", "room", s.cfg.DefaultRoom, "error", err)
		}
	}
}

// Stop disconnects if a connection exists. A delivery stuck mid-send
// never blocks it: sends run outside the mutex, and closing the
// connection is what unblocks a stuck socket write.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return
	}
	if err := s.conn.Close(); err != nil {
		s.log.Error("Failed to disconnect from chat server", "error", err)
	}
	s.conn = nil
}

// IsConnected reports whether Start succeeded.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// ResolveRoom returns once the named room is joined, joining and caching
// it on first use. The cache only grows; rooms are never left during the
// process lifetime.
func (s *Session) ResolveRoom(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveRoomLocked(name)
}

func (s *Session) resolveRoomLocked(name string) error {
	if s.conn == nil {
		return apperrors.ErrNotConnected
	}
	if _, ok := s.rooms[name]; ok {
		return nil
	}
	if err := s.conn.JoinRoom(name, s.cfg.EffectiveNickname()); err != nil {
		return err
	}
	s.rooms[name] = struct{}{}
	s.log.Info("Joined room", "room", name)
	return nil
}

// Deliver resolves the message's room (default room when unset) and
// transmits it, plain or with the XHTML alternate. The room is resolved
// under the mutex; the send itself happens outside it, so workers
// deliver in parallel and Stop can always take the mutex and close a
// connection stuck in a send. The error is reported, not raised further:
// delivery is best-effort and the message is dropped on failure.
func (s *Session) Deliver(msg domain.Message) error {
	if msg.Body == "" {
		return apperrors.ErrEmptyBody
	}

	room := msg.Room
	if room == "" {
		room = s.cfg.DefaultRoom
	}
	if room == "" {
		s.log.Error("Message has no room and no default room is configured", "id", msg.ID)
		return apperrors.ErrNoRoom
	}

	s.mu.Lock()
	conn := s.conn
	err := s.resolveRoomLocked(room)
	s.mu.Unlock()
	if err != nil {
		s.log.Error("Failed to resolve room", "room", room, "error", err)
		return err
	}

	if msg.RichBody == "" {
		s.log.Debug("Sending text message", "room", room)
		err = conn.SendText(room, msg.Body)
	} else {
		s.log.Debug("Sending rich message", "room", room)
		err = conn.SendRich(room, msg.Body, msg.RichBody)
	}
	if err != nil {
		s.log.Error("Failed to send message to chat server", "room", room, "error", err)
		return err
	}
	return nil
}

// connConfig resolves the connection target: a configured domain wins,
// then host plus port, with 5222 covering a missing or malformed port.
// With neither domain nor host the session cannot start.
func (s *Session) connConfig() (contract.ConnConfig, error) {
	cc := contract.ConnConfig{
		Username:           s.cfg.Username,
		Password:           s.cfg.Password,
		InsecureSkipVerify: s.cfg.AcceptAllCerts,
	}

	switch {
	case s.cfg.Domain != "":
		cc.Domain = s.cfg.Domain
	case s.cfg.Host != "":
		cc.Host = s.cfg.Host
		cc.Port = defaultPort
		if s.cfg.Port != "" {
			port, err := strconv.Atoi(s.cfg.Port)
			if err != nil {
				s.log.Warn(fmt.Sprintf("Ignoring invalid port %q", s.cfg.Port))
			} else {
				cc.Port = port
			}
		}
	default:
		return contract.ConnConfig{}, apperrors.ErrNoConnectTarget
	}
	return cc, nil
}
