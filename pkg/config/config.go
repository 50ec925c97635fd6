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
	_ = godotenv.Load() // .env file is optional

	return env.Parse(cfg)
}

// Config holds the configuration for the matching engine process.
type Config struct {
	Pair string `env:"PAIR,required"` // Trading pair, e.g. BTC-USD

	Book           BookConfig           `envPrefix:"BOOK_"`
	Kafka          KafkaConfig          `envPrefix:"KAFKA_"`
	TradePublisher TradePublisherConfig `envPrefix:"TRADE_"`
	Redis          RedisConfig          `envPrefix:"REDIS_"`
}

// BookConfig holds the tuning limits for the order book core.
type BookConfig struct {
	// MaxOrderQty is the largest quantity a single order may carry.
	MaxOrderQty int64 `env:"MAX_ORDER_QTY" envDefault:"1000000"`
	// MaxLevelDepth is the maximum number of resting orders per price level.
	MaxLevelDepth int `env:"MAX_LEVEL_DEPTH" envDefault:"1024"`
	// PriceCollar is the tick offset applied to the opposing best quote when
	// deriving the protective price of a market order.
	PriceCollar int64 `env:"PRICE_COLLAR" envDefault:"100"`
}

// KafkaConfig holds the configuration for the order request consumer.
type KafkaConfig struct {
	Topic   string   `env:"TOPIC,required"`
	GroupID string   `env:"GROUP_ID" envDefault:"default_group"`
	Brokers []string `env:"BROKER,required"`
}

// TradePublisherConfig holds the configuration for the trade event producer.
type TradePublisherConfig struct {
	Topic   string   `env:"TOPIC,required"`
	Brokers []string `env:"BROKER,required"`
}

// RedisConfig holds the configuration for the snapshot store client.
type RedisConfig struct {
	Addr     string `env:"ADDRESS,required"`
	Password string `env:"PASSWORD" envDefault:""`
	Username string `env:"USERNAME" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}
