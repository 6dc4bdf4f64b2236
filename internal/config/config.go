package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server      ServerConfig      `envPrefix:"SERVER_"`
	Database    DatabaseConfig    `envPrefix:"DATABASE_"`
	Auth        AuthConfig        `envPrefix:"AUTH_"`
	Kafka       KafkaConfig       `envPrefix:"KAFKA_"`
	Search      SearchConfig      `envPrefix:"SEARCH_"`
	Submission  SubmissionConfig  `envPrefix:"SUBMISSION_"`
	Syndication SyndicationConfig `envPrefix:"SYNDICATION_"`
	Statsd      StatsdConfig      `envPrefix:"STATSD_"`
	Messages    MessagesConfig    `envPrefix:"MESSAGES_"`
}

type ServerConfig struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Host        string `env:"HOST" envDefault:"0.0.0.0"`
	CORSPattern string `env:"CORS_PATTERN"`
	Pprof       bool   `env:"PPROF" envDefault:"false"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

type DatabaseConfig struct {
	Hosts    []string `env:"HOSTS" envDefault:"localhost:27017" envSeparator:","`
	Direct   bool     `env:"DIRECT" envDefault:"false"`
	Username string   `env:"USERNAME"`
	Password string   `env:"PASSWORD"`
	AuthDB   string   `env:"AUTH_DB" envDefault:"admin"`
	Database string   `env:"DATABASE" envDefault:"product_hub"`
}

type AuthConfig struct {
	// JWTSecret enables bearer authentication on write endpoints when set.
	JWTSecret string `env:"JWT_SECRET"`
}

type KafkaConfig struct {
	Enabled  bool     `env:"ENABLED" envDefault:"false"`
	Brokers  []string `env:"BROKERS" envDefault:"localhost:9092" envSeparator:","`
	Topic    string   `env:"TOPIC" envDefault:"product.created"`
	GroupID  string   `env:"GROUP_ID" envDefault:"product-hub-syndication"`
	ClientID string   `env:"CLIENT_ID" envDefault:"product-hub"`
}

type SearchConfig struct {
	// FailurePolicy is either "abort" or "bypass".
	FailurePolicy string `env:"FAILURE_POLICY" envDefault:"abort"`
	// Prefetch bounds how many stored products are scored per query.
	Prefetch int64 `env:"PREFETCH" envDefault:"50"`
}

type SubmissionConfig struct {
	ConfirmTimeout time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"10m"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	RunTimeout     time.Duration `env:"RUN_TIMEOUT" envDefault:"15m"`
}

type SyndicationConfig struct {
	// Partners is a list of name=url pairs.
	Partners       map[string]string `env:"PARTNERS" envSeparator:"," envKeyValSeparator:"="`
	BodyTemplate   string            `env:"BODY_TEMPLATE" envDefault:"{\"title\":{{quote .Name}},\"summary\":{{quote .Tagline}},\"url\":{{quote .Website}},\"source_id\":{{quote .ID}}}"`
	ResponseIDPath string            `env:"RESPONSE_ID_PATH" envDefault:"data.id"`
	Workers        int               `env:"WORKERS" envDefault:"4"`
	Timeout        time.Duration     `env:"TIMEOUT" envDefault:"10s"`
}

type StatsdConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Address string `env:"ADDRESS" envDefault:":8125"`
	Service string `env:"SERVICE" envDefault:"product-hub"`
}

// MessagesConfig holds the user-facing notification templates.
type MessagesConfig struct {
	Created             string `env:"CREATED" envDefault:"{{default \"Product\" .Name}} recommended"`
	SearchUnavailable   string `env:"SEARCH_UNAVAILABLE" envDefault:"Duplicate check is unavailable, retry or submit without it"`
	ConfirmationFailed  string `env:"CONFIRMATION_FAILED" envDefault:"Confirmation was interrupted, please submit again"`
	CreateFailedDefault string `env:"CREATE_FAILED_DEFAULT" envDefault:"Could not recommend the product"`
}

const (
	SearchFailureAbort  = "abort"
	SearchFailureBypass = "bypass"

	// DefaultCreateFailedMessage matches MESSAGES_CREATE_FAILED_DEFAULT's default.
	DefaultCreateFailedMessage = "Could not recommend the product"
)

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	c.Search.FailurePolicy = strings.ToLower(strings.TrimSpace(c.Search.FailurePolicy))
	switch c.Search.FailurePolicy {
	case SearchFailureAbort, SearchFailureBypass:
	default:
		return fmt.Errorf("invalid SEARCH_FAILURE_POLICY %q", c.Search.FailurePolicy)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when kafka is enabled")
	}
	if c.Syndication.Workers <= 0 {
		c.Syndication.Workers = 1
	}
	return nil
}
