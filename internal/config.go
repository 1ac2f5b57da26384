package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

var validate = validator.New()

// Config holds every setting the relay consumes. The session, router,
// builder and dispatcher all receive it by injection; there is no global
// settings lookup at runtime.
type Config struct {
	// Connection target. Domain wins over Host; with neither the session
	// starts non-functional and only logs.
	Domain string `envconfig:"JABBER_DOMAIN"`
	Host   string `envconfig:"JABBER_HOST"`
	// Port is kept as a string on purpose: a malformed value must log a
	// warning and fall back to 5222 instead of failing config load.
	Port string `envconfig:"JABBER_PORT"`

	// AcceptAllCerts disables TLS certificate and hostname verification
	// on the chat connection. Explicit opt-in.
	AcceptAllCerts bool `envconfig:"JABBER_ACCEPT_ALL_CERTS" default:"false"`

	Username string `envconfig:"JABBER_USERNAME"`
	Password string `envconfig:"JABBER_PASSWORD"`
	Nickname string `envconfig:"JABBER_NICKNAME"`

	DefaultRoom string `envconfig:"JABBER_DEFAULT_ROOM"`

	// UseProjectRooms enables per-repository room routing. ProjectRooms
	// maps the repository name (trailing ".git" stripped) to a room.
	UseProjectRooms bool              `envconfig:"JABBER_USE_PROJECT_ROOMS" default:"false"`
	ProjectRooms    map[string]string `envconfig:"JABBER_PROJECT_ROOMS"`

	PostPersonalRepos bool `envconfig:"JABBER_POST_PERSONAL_REPOS" default:"false"`
	PostBranches      bool `envconfig:"JABBER_POST_BRANCHES" default:"true"`
	PostTags          bool `envconfig:"JABBER_POST_TAGS" default:"true"`

	CanonicalURL string `envconfig:"CANONICAL_URL" default:"https://localhost:8443"`

	ShortIDLength     int `envconfig:"SHORT_COMMIT_ID_LENGTH" default:"6" validate:"min=4,max=40"`
	MaxCommitsShown   int `envconfig:"MAX_COMMITS_SHOWN" default:"5" validate:"min=1"`
	MaxShortLogLength int `envconfig:"MAX_SHORTLOG_LENGTH" default:"78" validate:"min=8"`

	DeliveryWorkers   int           `envconfig:"DELIVERY_WORKERS" default:"2" validate:"min=1"`
	DeliveryQueueSize int           `envconfig:"DELIVERY_QUEUE_SIZE" default:"64" validate:"min=1"`
	DrainTimeout      time.Duration `envconfig:"DRAIN_TIMEOUT" default:"10s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
}

// LoadConfig reads the configuration from the environment and validates
// the numeric bounds.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// EffectiveNickname is the room-presence name: the configured nickname,
// falling back to the username.
func (c Config) EffectiveNickname() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return c.Username
}
