package xmpp

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"jabber-relay/contract"
	"jabber-relay/domain"
	apperrors "jabber-relay/errors"
	"jabber-relay/internal"
	"jabber-relay/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionConfig() internal.Config {
	return internal.Config{
		Domain:   "chat.example.com",
		Username: "gitbot",
		Password: "secret",
	}
}

// startedSession connects a session against a mocked dialer and returns
// it along with the mocked connection.
func startedSession(t *testing.T, ctrl *gomock.Controller, cfg internal.Config) (*Session, *mocks.MockConn) {
	t.Helper()
	conn := mocks.NewMockConn(ctrl)
	dialer := mocks.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(conn, nil)

	session := NewSession(cfg, dialer, testLogger())
	session.Start()
	require.True(t, session.IsConnected())
	return session, conn
}

func TestSession_Start_ConnectsByDomain(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := mocks.NewMockConn(ctrl)
	dialer := mocks.NewMockDialer(ctrl)

	var got contract.ConnConfig
	dialer.EXPECT().Dial(gomock.Any()).DoAndReturn(func(cc contract.ConnConfig) (contract.Conn, error) {
		got = cc
		return conn, nil
	})

	session := NewSession(sessionConfig(), dialer, testLogger())
	session.Start()

	req.True(session.IsConnected())
	req.Equal("chat.example.com", got.Domain)
	req.Empty(got.Host)
	req.Equal("gitbot", got.Username)
	req.Equal("secret", got.Password)
	req.False(got.InsecureSkipVerify)
}

func TestSession_Start_HostPortResolution(t *testing.T) {
	cases := []struct {
		name string
		port string
		want int
	}{
		{"missing port", "", 5222},
		{"configured port", "5223", 5223},
		{"malformed port falls back", "not-a-port", 5222},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			cfg := sessionConfig()
			cfg.Domain = ""
			cfg.Host = "chat.example.com"
			cfg.Port = tc.port

			var got contract.ConnConfig
			dialer := mocks.NewMockDialer(ctrl)
			dialer.EXPECT().Dial(gomock.Any()).DoAndReturn(func(cc contract.ConnConfig) (contract.Conn, error) {
				got = cc
				return mocks.NewMockConn(ctrl), nil
			})

			session := NewSession(cfg, dialer, testLogger())
			session.Start()

			req.Equal("chat.example.com", got.Host)
			req.Equal(tc.want, got.Port)
		})
	}
}

func TestSession_Start_NoConnectTarget(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No Dial expectation: a session without domain or host must not dial.
	dialer := mocks.NewMockDialer(ctrl)

	cfg := sessionConfig()
	cfg.Domain = ""
	session := NewSession(cfg, dialer, testLogger())
	session.Start()

	req.False(session.IsConnected())
	msg := domain.Text("hello").WithRoom("dev@conference.example.com")
	req.ErrorIs(session.Deliver(msg), apperrors.ErrNotConnected)
}

func TestSession_Start_AcceptAllCerts(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := sessionConfig()
	cfg.AcceptAllCerts = true

	var got contract.ConnConfig
	dialer := mocks.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).DoAndReturn(func(cc contract.ConnConfig) (contract.Conn, error) {
		got = cc
		return mocks.NewMockConn(ctrl), nil
	})

	NewSession(cfg, dialer, testLogger()).Start()

	req.True(got.InsecureSkipVerify)
}

func TestSession_Start_DialFailureLeavesSessionNonFunctional(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dialer := mocks.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(nil, fmt.Errorf("connection refused"))

	session := NewSession(sessionConfig(), dialer, testLogger())
	session.Start()

	req.False(session.IsConnected())
}

func TestSession_Start_JoinsDefaultRoomWithNickname(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := sessionConfig()
	cfg.DefaultRoom = "commits@conference.example.com"
	cfg.Nickname = "git-announcer"

	conn := mocks.NewMockConn(ctrl)
	conn.EXPECT().JoinRoom("commits@conference.example.com", "git-announcer").Return(nil)
	dialer := mocks.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(conn, nil)

	NewSession(cfg, dialer, testLogger()).Start()
}

func TestSession_Deliver_PlainTextToDefaultRoom(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := sessionConfig()
	cfg.DefaultRoom = "commits@conference.example.com"

	// Joined once at start, reused on deliver. Nickname falls back to
	// the username when unset.
	conn := mocks.NewMockConn(ctrl)
	conn.EXPECT().JoinRoom("commits@conference.example.com", "gitbot").Return(nil).Times(1)
	conn.EXPECT().SendText("commits@conference.example.com", "hello").Return(nil)
	dialer := mocks.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(conn, nil)

	session := NewSession(cfg, dialer, testLogger())
	session.Start()
	req.NoError(session.Deliver(domain.Text("hello")))
}

func TestSession_Deliver_RichMessage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session, conn := startedSession(t, ctrl, sessionConfig())

	conn.EXPECT().JoinRoom("dev@conference.example.com", "gitbot").Return(nil)
	conn.EXPECT().SendRich("dev@conference.example.com", "plain", "<body>rich</body>").Return(nil)

	msg := domain.Rich("plain", "<body>rich</body>").WithRoom("dev@conference.example.com")
	req.NoError(session.Deliver(msg))
}

func TestSession_Deliver_UncachedRoomJoinedExactlyOnceUnderConcurrency(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session, conn := startedSession(t, ctrl, sessionConfig())

	const senders = 16
	conn.EXPECT().JoinRoom("war-room@conference.example.com", "gitbot").Return(nil).Times(1)
	conn.EXPECT().SendText("war-room@conference.example.com", gomock.Any()).Return(nil).Times(senders)

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := domain.Text(fmt.Sprintf("message %d", i)).WithRoom("war-room@conference.example.com")
			req.NoError(session.Deliver(msg))
		}(i)
	}
	wg.Wait()
}

func TestSession_Deliver_JoinFailureReported(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session, conn := startedSession(t, ctrl, sessionConfig())

	conn.EXPECT().JoinRoom("locked@conference.example.com", "gitbot").Return(fmt.Errorf("forbidden"))

	err := session.Deliver(domain.Text("hello").WithRoom("locked@conference.example.com"))
	req.ErrorContains(err, "forbidden")
}

func TestSession_Deliver_SendFailureReported(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session, conn := startedSession(t, ctrl, sessionConfig())

	conn.EXPECT().JoinRoom(gomock.Any(), gomock.Any()).Return(nil)
	conn.EXPECT().SendText(gomock.Any(), gomock.Any()).Return(fmt.Errorf("stream closed"))

	err := session.Deliver(domain.Text("hello").WithRoom("dev@conference.example.com"))
	req.ErrorContains(err, "stream closed")
}

func TestSession_Deliver_NoRoomConfigured(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No JoinRoom expectation: an unrouted message without a default room
	// must short-circuit instead of joining an empty room name.
	session, _ := startedSession(t, ctrl, sessionConfig())
	req.ErrorIs(session.Deliver(domain.Text("hello")), apperrors.ErrNoRoom)
}

func TestSession_Deliver_EmptyBodyRejected(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session, _ := startedSession(t, ctrl, sessionConfig())
	req.ErrorIs(session.Deliver(domain.Message{}), apperrors.ErrEmptyBody)
}

func TestSession_Stop(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session, conn := startedSession(t, ctrl, sessionConfig())
	conn.EXPECT().Close().Return(nil)

	session.Stop()
	req.False(session.IsConnected())

	// Stopping twice is harmless.
	session.Stop()
}

func TestSession_Stop_ClosesWhileSendInFlight(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session, conn := startedSession(t, ctrl, sessionConfig())

	entered := make(chan struct{})
	release := make(chan struct{})
	conn.EXPECT().JoinRoom("dev@conference.example.com", "gitbot").Return(nil)
	conn.EXPECT().SendText("dev@conference.example.com", "hello").DoAndReturn(func(string, string) error {
		close(entered)
		<-release
		return nil
	})
	conn.EXPECT().Close().Return(nil)

	delivered := make(chan error, 1)
	go func() {
		delivered <- session.Deliver(domain.Text("hello").WithRoom("dev@conference.example.com"))
	}()
	<-entered

	// The send is stuck; Stop must still get the mutex and disconnect.
	stopped := make(chan struct{})
	go func() {
		session.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		req.Fail("Stop blocked behind an in-flight send")
	}
	req.False(session.IsConnected())

	close(release)
	req.NoError(<-delivered)
}

func TestSession_Stop_WithoutStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	session := NewSession(sessionConfig(), mocks.NewMockDialer(ctrl), testLogger())
	session.Stop()
}
