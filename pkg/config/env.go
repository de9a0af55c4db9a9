package config

const EnvPrefix = "STOCKBOT"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names, kept in one place for tests and docs.
const (
	EnvAppEnv         = "STOCKBOT_APP_ENV"
	EnvPort           = "STOCKBOT_APP_PORT"
	EnvBotToken       = "STOCKBOT_TELEGRAM_BOT_TOKEN"
	EnvWebhookSecret  = "STOCKBOT_TELEGRAM_WEBHOOK_SECRET"
	EnvPublicBaseURL  = "STOCKBOT_PUBLIC_BASE_URL"
	EnvAllowedUserIDs = "STOCKBOT_TELEGRAM_ALLOWED_USER_IDS"
	EnvServiceAccount = "STOCKBOT_GOOGLE_SERVICE_ACCOUNT_JSON"
	EnvSpreadsheetID  = "STOCKBOT_GOOGLE_SPREADSHEET_ID"
	EnvRedisURL       = "STOCKBOT_REDIS_URL"
	EnvUseMemoryStore = "STOCKBOT_USE_MEMORY_STORE"
	EnvAutoProvision  = "STOCKBOT_AUTO_PROVISION_SHEETS"
)
