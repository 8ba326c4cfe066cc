package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	// OracleLocal runs the randomness function inside the API process.
	OracleLocal = "local"
	// OracleRedis publishes requests for a separate cmd/oracle process.
	OracleRedis = "redis"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"development"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile   string `env:"LOG_FILE"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	RedisURL     string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass    string `env:"REDIS_PASSWORD"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry  time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	AdminToken string        `env:"ADMIN_TOKEN,required,notEmpty"`

	HouseAuthority   string `env:"HOUSE_AUTHORITY" envDefault:"house-admin"`
	ValueMint        string `env:"VALUE_MINT" envDefault:"FLIP"`
	FeeMint          string `env:"FEE_MINT" envDefault:"ORACLE"`
	RequestFee       uint64 `env:"REQUEST_FEE" envDefault:"2000000"`
	InitialLiquidity uint64 `env:"INITIAL_LIQUIDITY" envDefault:"1000000000000"`

	OracleMode        string `env:"ORACLE_MODE" envDefault:"local"`
	OracleFunction    string `env:"ORACLE_FUNCTION" envDefault:"vrf-flip-function"`
	OracleSignerSeed  string `env:"ORACLE_SIGNER_SEED"`
	OracleWorkers     int    `env:"ORACLE_WORKERS" envDefault:"4"`
	SettleCallbackURL string `env:"SETTLE_CALLBACK_URL" envDefault:"http://localhost:8080/oracle/settle"`

	BetRateLimit int    `env:"BET_RATE_LIMIT" envDefault:"30"`
	IndexerDSN   string `env:"INDEXER_DSN" envDefault:"file:bets.db?cache=shared"`
}

// Load parses the process environment. Callers load .env first.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.OracleMode {
	case OracleLocal, OracleRedis:
	default:
		return fmt.Errorf("unknown ORACLE_MODE %q", c.OracleMode)
	}
	if c.OracleMode == OracleRedis && c.StoreBackend != StoreRedis {
		return fmt.Errorf("ORACLE_MODE=redis requires STORE_BACKEND=redis")
	}
	if c.OracleMode == OracleRedis && c.OracleSignerSeed == "" {
		return fmt.Errorf("ORACLE_MODE=redis requires ORACLE_SIGNER_SEED shared with the oracle process")
	}
	if c.OracleWorkers < 1 {
		return fmt.Errorf("ORACLE_WORKERS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
