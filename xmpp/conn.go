// Package xmpp owns the chat-server connection: dialing, authentication,
// room membership and message transmission over XMPP multi-user chat.
package xmpp

import (
	"crypto/tls"
	"fmt"
	"html"
	"strings"

	goxmpp "github.com/xmppo/go-xmpp"

	"jabber-relay/contract"
)

// Ensure the production dialer satisfies the contract at compile time.
var _ contract.Dialer = Dialer{}

// Dialer opens authenticated XMPP connections. Connect-by-domain relies
// on SRV resolution from the account's JID domain; connect-by-host dials
// the host and port directly.
type Dialer struct{}

func (Dialer) Dial(cfg contract.ConnConfig) (contract.Conn, error) {
	opts := goxmpp.Options{
		User:     accountJID(cfg),
		Password: cfg.Password,
		NoTLS:    true,
		StartTLS: true,
		Session:  true,
	}
	if cfg.Host != "" {
		opts.Host = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}
	if cfg.InsecureSkipVerify {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := opts.NewClient()
	if err != nil {
		return nil, fmt.Errorf("xmpp dial: %w", err)
	}
	return &conn{client: client}, nil
}

// accountJID derives the login JID. A username already carrying a domain
// part is used as-is; otherwise the configured domain (or host) supplies it.
func accountJID(cfg contract.ConnConfig) string {
	if strings.Contains(cfg.Username, "@") {
		return cfg.Username
	}
	if cfg.Domain != "" {
		return cfg.Username + "@" + cfg.Domain
	}
	return cfg.Username + "@" + cfg.Host
}

type conn struct {
	client *goxmpp.Client
}

func (c *conn) JoinRoom(room, nickname string) error {
	if _, err := c.client.JoinMUCNoHistory(room, nickname); err != nil {
		return fmt.Errorf("join room %q: %w", room, err)
	}
	return nil
}

func (c *conn) SendText(room, body string) error {
	_, err := c.client.Send(goxmpp.Chat{Remote: room, Type: "groupchat", Text: body})
	if err != nil {
		return fmt.Errorf("send to room %q: %w", room, err)
	}
	return nil
}

// SendRich transmits a groupchat stanza carrying both the plain body and
// the XHTML-IM alternate. richBody is a complete XHTML <body> element
// produced by the message builder; the plain body is escaped here at the
// XML boundary.
func (c *conn) SendRich(room, body, richBody string) error {
	stanza := fmt.Sprintf(`<message to="%s" type="groupchat"><body>%s</body>`+
		`<html xmlns="http://jabber.org/protocol/xhtml-im">%s</html></message>`,
		html.EscapeString(room), html.EscapeString(body), richBody)
	if _, err := c.client.SendOrg(stanza); err != nil {
		return fmt.Errorf("send rich to room %q: %w", room, err)
	}
	return nil
}

func (c *conn) Close() error {
	return c.client.Close()
}
