package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // missing .env file is fine, env vars may be set directly

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return nil
}

// Config holds the configuration for the matching engine service.
type Config struct {
	KafkaConfig          `envPrefix:"KAFKA_"`
	TradePublisherConfig `envPrefix:"TRADE_PUBLISHER_"`
	RedisConfig          `envPrefix:"REDIS_"`

	// SnapshotKey is the Redis key the engine snapshot is stored under.
	SnapshotKey string `env:"SNAPSHOT_KEY" envDefault:"matching:snapshot"`
}

// KafkaConfig holds the configuration for the order stream consumer. The
// reader binds to a fixed partition with no consumer group; the snapshot
// offset is the resume point.
type KafkaConfig struct {
	Topic   string   `env:"TOPIC,required"`
	Brokers []string `env:"BROKER,required"`
}

// TradePublisherConfig holds the configuration for the trade event producer.
type TradePublisherConfig struct {
	Topic   string   `env:"TOPIC,required"`
	Brokers []string `env:"BROKER,required"`
}

// RedisConfig holds the configuration for the Redis snapshot store.
type RedisConfig struct {
	Addrs    string `env:"ADDRESS" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	Username string `env:"USERNAME" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}
