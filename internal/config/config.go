// Package config loads the engine's structured configuration from a TOML
// file and its secrets/endpoints from the environment via godotenv.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// SystemConfig is [system].
type SystemConfig struct {
	DryRun         bool   `toml:"dry_run"`
	DatabasePath   string `toml:"database_path"`
	StorageBackend string `toml:"storage_backend"` // "sqlite" (default) or "postgres"
	CacheBackend   string `toml:"cache_backend"`   // "memory" (default) or "redis"
}

// WeatherStrategyConfig is [strategies.weather].
type WeatherStrategyConfig struct {
	Enabled                  bool     `toml:"enabled"`
	MinEdge                  float64  `toml:"min_edge"`
	TargetCities             []string `toml:"target_cities"`
	ForecastLeadTimeHours    float64  `toml:"forecast_lead_time_hours"`
	PollingIntervalSecs      int      `toml:"polling_interval_secs"`
	PollingIntervalUrgentSecs int     `toml:"polling_interval_urgent_secs"`
}

// ArbitrageStrategyConfig is [strategies.arbitrage].
type ArbitrageStrategyConfig struct {
	Enabled              bool    `toml:"enabled"`
	MinSpread            float64 `toml:"min_spread"`
	MinSpread15MinCrypto float64 `toml:"min_spread_15min_crypto"`
	ExecutionTimeoutMs   int     `toml:"execution_timeout_ms"`
}

// StrategiesConfig is [strategies].
type StrategiesConfig struct {
	Weather   WeatherStrategyConfig   `toml:"weather"`
	Arbitrage ArbitrageStrategyConfig `toml:"arbitrage"`
}

// RiskConfig is [risk].
type RiskConfig struct {
	MaxPositionSizeUSD        float64 `toml:"max_position_size_usd"`
	MaxPositionPct            float64 `toml:"max_position_pct"`
	MaxOpenPositions          int     `toml:"max_open_positions"`
	MaxDailyTrades            int     `toml:"max_daily_trades"`
	MaxDailyLossUSD           float64 `toml:"max_daily_loss_usd"`
	MaxDrawdownPct            float64 `toml:"max_drawdown_pct"`
	MaxPositionsPerCityPerDay int     `toml:"max_positions_per_city_per_day"`
	ClaudeValidationWeather   bool    `toml:"claude_validation_weather"`
	ClaudeValidationArb       bool    `toml:"claude_validation_arb"`
	MinLiquidityUSD           float64 `toml:"min_liquidity_usd"`
	MaxGasGwei                float64 `toml:"max_gas_gwei"`
}

// InfrastructureConfig is [infrastructure].
type InfrastructureConfig struct {
	PrimaryRPC                        string  `toml:"primary_rpc"`
	SecondaryRPC                      string  `toml:"secondary_rpc"`
	RPCTimeoutSecs                    int     `toml:"rpc_timeout_secs"`
	RPCFailoverEnabled                bool    `toml:"rpc_failover_enabled"`
	WebsocketReconnectBackoffSecs     int     `toml:"websocket_reconnect_backoff_secs"`
	WebsocketMaxReconnectDelaySecs    int     `toml:"websocket_max_reconnect_delay_secs"`
	WebsocketStalenessThresholdSecs   int     `toml:"websocket_staleness_threshold_secs"`
	CacheTTLArbMs                     int     `toml:"cache_ttl_arb_ms"`
	CacheTTLWeatherSecs               int     `toml:"cache_ttl_weather_secs"`
}

// MonitoringConfig is [monitoring].
type MonitoringConfig struct {
	CSVLogging       bool   `toml:"csv_logging"`
	CSVLogPath       string `toml:"csv_log_path"`
	PrometheusEnabled bool  `toml:"prometheus_enabled"`
	TelegramEnabled  bool   `toml:"telegram_enabled"`
}

// PaperTradingConfig is [paper_trading].
type PaperTradingConfig struct {
	Enabled           bool    `toml:"enabled"`
	FillRate          float64 `toml:"fill_rate"`
	SlippagePct       float64 `toml:"slippage_pct"`
	InitialBalanceUSD float64 `toml:"initial_balance_usd"`
}

// Config is the full structured configuration loaded once from TOML.
type Config struct {
	System       SystemConfig         `toml:"system"`
	Strategies   StrategiesConfig     `toml:"strategies"`
	Risk         RiskConfig           `toml:"risk"`
	Infra        InfrastructureConfig `toml:"infrastructure"`
	Monitoring   MonitoringConfig     `toml:"monitoring"`
	PaperTrading PaperTradingConfig   `toml:"paper_trading"`
}

// defaults applies the engine's baseline defaults before a TOML file
// overrides them.
func defaults() Config {
	return Config{
		System: SystemConfig{
			StorageBackend: "sqlite",
			CacheBackend:   "memory",
		},
		PaperTrading: PaperTradingConfig{
			FillRate:          0.70,
			SlippagePct:       0.005,
			InitialBalanceUSD: 2000.0,
		},
	}
}

// Load parses a TOML configuration file at path.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}

// Secrets holds environment-sourced secrets and endpoints. Unlike Config
// these are never written to disk in a TOML file.
type Secrets struct {
	PolygonRPCPrimary      string
	PolygonRPCSecondary    string
	WalletPrivateKey       string
	AIAPIKey               string
	NOAAAPIKey             string // optional
	PolymarketCLOBURL      string
	PolymarketGammaURL     string
	PolymarketWSURL        string
	TelegramBotToken       string
	TelegramChatID         string
	DryRun                 bool
	PostgresConnString     string // only required when storage_backend = "postgres"
	RedisURL               string // only required when cache_backend = "redis"
	PolymarketAPIKey       string // only required for live order submission (dry_run = false)
	PolymarketAPISecret    string
	PolymarketAPIPassphrase string
}

// LoadSecrets loads secrets from the environment, optionally via a .env
// file (missing .env is not an error: the not-exist error godotenv.Load()
// returns for it is ignored).
func LoadSecrets() (*Secrets, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	s := &Secrets{
		PolygonRPCPrimary:   os.Getenv("POLYGON_RPC_PRIMARY"),
		PolygonRPCSecondary: os.Getenv("POLYGON_RPC_SECONDARY"),
		WalletPrivateKey:    os.Getenv("POLYGON_WALLET_PRIVATE_KEY"),
		AIAPIKey:            os.Getenv("ANTHROPIC_API_KEY"),
		NOAAAPIKey:          os.Getenv("NOAA_API_KEY"),
		PolymarketCLOBURL:   getEnvString("POLYMARKET_CLOB_URL", "https://clob.polymarket.com"),
		PolymarketGammaURL:  getEnvString("POLYMARKET_GAMMA_URL", "https://gamma-api.polymarket.com"),
		PolymarketWSURL:     getEnvString("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:      os.Getenv("TELEGRAM_CHAT_ID"),
		DryRun:              getEnvBool("DRY_RUN", true),
		PostgresConnString:      os.Getenv("POSTGRES_CONN_STRING"),
		RedisURL:                os.Getenv("REDIS_URL"),
		PolymarketAPIKey:        os.Getenv("POLYMARKET_API_KEY"),
		PolymarketAPISecret:     os.Getenv("POLYMARKET_API_SECRET"),
		PolymarketAPIPassphrase: os.Getenv("POLYMARKET_API_PASSPHRASE"),
	}

	var missing []string
	if s.PolygonRPCPrimary == "" {
		missing = append(missing, "POLYGON_RPC_PRIMARY")
	}
	if s.WalletPrivateKey == "" {
		missing = append(missing, "POLYGON_WALLET_PRIVATE_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required env vars: %v", missing)
	}

	return s, nil
}

// HasTelegram reports whether Telegram notifications are configured.
func (s *Secrets) HasTelegram() bool {
	return s.TelegramBotToken != "" && s.TelegramChatID != ""
}

// Validate performs runtime validation of risk config values.
func (c *Config) Validate() error {
	if c.Risk.MaxPositionPct <= 0 || c.Risk.MaxPositionPct > 1 {
		return errors.New("risk.max_position_pct must be in (0, 1]")
	}
	if c.Risk.MaxPositionSizeUSD <= 0 {
		return errors.New("risk.max_position_size_usd must be > 0")
	}
	if c.PaperTrading.FillRate < 0 || c.PaperTrading.FillRate > 1 {
		return errors.New("paper_trading.fill_rate must be in [0, 1]")
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return parsed
}
