package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server       ServerConfig       `envPrefix:"SERVER_"`
	Database     DatabaseConfig     `envPrefix:"DATABASE_"`
	Index        IndexConfig        `envPrefix:"INDEX_"`
	Kafka        KafkaConfig        `envPrefix:"KAFKA_"`
	Notification NotificationConfig `envPrefix:"NOTIFICATION_"`
	Peer         PeerConfig         `envPrefix:"PEER_"`
	Push         PushConfig         `envPrefix:"PUSH_"`
	Message      MessageConfig      `envPrefix:"MESSAGE_"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`

	// HS256 secret of gateway-issued tokens; empty trusts identity headers only
	TokenSecret string `env:"TOKEN_SECRET"`
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type DatabaseConfig struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"chat"`
}

type IndexConfig struct {
	// projection database, on the same cluster as the canonical store
	Database         string        `env:"DATABASE" envDefault:"chat_index"`
	ReconcileBackoff time.Duration `env:"RECONCILE_BACKOFF" envDefault:"1s"`
	EnsureOnStart    bool          `env:"ENSURE_ON_START" envDefault:"true"`
}

type KafkaConfig struct {
	Enabled       bool     `env:"ENABLED" envDefault:"false"`
	Brokers       []string `env:"BROKERS" envDefault:"localhost:9092"`
	GroupID       string   `env:"GROUP_ID" envDefault:"chat-engine"`
	ProfileTopic  string   `env:"PROFILE_TOPIC" envDefault:"profile.updated"`
	RelationTopic string   `env:"RELATION_TOPIC" envDefault:"relation.updated"`
	Workers       int      `env:"WORKERS" envDefault:"8"`
}

type NotificationConfig struct {
	Enabled  bool     `env:"ENABLED" envDefault:"false"`
	Brokers  []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic    string   `env:"TOPIC" envDefault:"notifications"`
	ClientID string   `env:"CLIENT_ID" envDefault:"chat-engine"`
}

type PeerConfig struct {
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:8090"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"5s"`
	RetryCount      int           `env:"RETRY_COUNT" envDefault:"2"`
	BreakerFailures uint32        `env:"BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
}

type PushConfig struct {
	RatePerSecond float64 `env:"RATE_PER_SECOND" envDefault:"200"`
	Burst         int     `env:"BURST" envDefault:"50"`
}

type MessageConfig struct {
	TruncateLength    int           `env:"TRUNCATE_LENGTH" envDefault:"1500"`
	MaxLength         int           `env:"MAX_LENGTH" envDefault:"10000"`
	DefaultLimit      int           `env:"DEFAULT_LIMIT" envDefault:"20"`
	MaxLimit          int           `env:"MAX_LIMIT" envDefault:"100"`
	SideEffectTimeout time.Duration `env:"SIDE_EFFECT_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
