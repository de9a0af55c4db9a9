package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Telegram     TelegramConfig
	Google       GoogleConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOCKBOT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKBOT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOCKBOT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOCKBOT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOCKBOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type TelegramConfig struct {
	BotToken       string        `envconfig:"STOCKBOT_TELEGRAM_BOT_TOKEN" required:"true"`
	APIBaseURL     string        `envconfig:"STOCKBOT_TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
	WebhookSecret  string        `envconfig:"STOCKBOT_TELEGRAM_WEBHOOK_SECRET" required:"true"`
	PublicBaseURL  string        `envconfig:"STOCKBOT_PUBLIC_BASE_URL" required:"true"`
	AllowedUserIDs []int64       `envconfig:"STOCKBOT_TELEGRAM_ALLOWED_USER_IDS"`
	UpdateDedupTTL time.Duration `envconfig:"STOCKBOT_TELEGRAM_UPDATE_DEDUP_TTL" default:"24h"`
}

// WebhookURL returns the public endpoint registered with Telegram.
func (t TelegramConfig) WebhookURL() string {
	return strings.TrimRight(t.PublicBaseURL, "/") + "/telegram/webhook"
}

// Allowed reports whether the user may issue commands. An empty allowlist
// leaves the bot open, matching the deployed behavior.
func (t TelegramConfig) Allowed(userID int64) bool {
	if len(t.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range t.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type GoogleConfig struct {
	ServiceAccountJSON string `envconfig:"STOCKBOT_GOOGLE_SERVICE_ACCOUNT_JSON" required:"true"`
	SpreadsheetID      string `envconfig:"STOCKBOT_GOOGLE_SPREADSHEET_ID" required:"true"`
	InventorySheet     string `envconfig:"STOCKBOT_GOOGLE_INVENTORY_SHEET" default:"Inventory"`
	SalesSheet         string `envconfig:"STOCKBOT_GOOGLE_SALES_SHEET" default:"Sales"`
	SummarySheet       string `envconfig:"STOCKBOT_GOOGLE_SUMMARY_SHEET" default:"Summary"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKBOT_REDIS_URL"`
	Address      string        `envconfig:"STOCKBOT_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured. The update dedup
// guard falls back to an in-memory guard when it is not.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseMemoryStore bool `envconfig:"STOCKBOT_USE_MEMORY_STORE" default:"false"`
	AutoProvision  bool `envconfig:"STOCKBOT_AUTO_PROVISION_SHEETS" default:"false"`
}
