// Package e2e exercises the relay against a live XMPP server. The tests
// skip themselves unless the JABBER_E2E_* environment is present.
package e2e

import (
	"github.com/Netflix/go-env"
)

type Config struct {
	Host           string `env:"JABBER_E2E_HOST"`
	Port           string `env:"JABBER_E2E_PORT,default=5222"`
	Username       string `env:"JABBER_E2E_USERNAME"`
	Password       string `env:"JABBER_E2E_PASSWORD"`
	Room           string `env:"JABBER_E2E_ROOM"`
	AcceptAllCerts bool   `env:"JABBER_E2E_ACCEPT_ALL_CERTS,default=true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
