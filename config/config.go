package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	DBDriver       string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN          string `envconfig:"DB_DSN" default:"wine_shop.db"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`

	// Upper bound on waiting for a batch row lock during checkout.
	LockWaitTimeout time.Duration `envconfig:"LOCK_WAIT_TIMEOUT" default:"5s"`

	ShippingFeeRegular decimal.Decimal `envconfig:"SHIPPING_FEE_REGULAR" default:"30000"`
	ShippingFeeExpress decimal.Decimal `envconfig:"SHIPPING_FEE_EXPRESS" default:"50000"`
	ShippingFeeSea     decimal.Decimal `envconfig:"SHIPPING_FEE_SEA" default:"20000"`

	ElevatedRoles []string `envconfig:"ELEVATED_ROLES" default:"admin,stock_manager"`

	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderTopic string   `envconfig:"KAFKA_ORDER_TOPIC" default:"order-events"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
