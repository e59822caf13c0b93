package config

import "time"

type Config struct {
	Env            string           `yaml:"env" env:"ENV" env-default:"local"`
	HttpServer     HttpServerConfig `yaml:"httpServer"`
	DBConfig       DBConfig         `yaml:"db" env-required:"true"`
	BotConfig      BotConfig        `yaml:"bot"`
	Scoring        ScoringConfig    `yaml:"scoring"`
	Advisor        AdvisorConfig    `yaml:"advisor"`
	Templates      TemplatesConfig  `yaml:"templates"`
	ConfigFilePath string           `yaml:"configFilePath" env:"CONFIG_FILEPATH" env-default:""`
	ConfigFileName string           `yaml:"configFileName" env:"CONFIG_FILENAME" env-default:""`
}

type HttpServerConfig struct {
	Address string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"0.0.0.0"`
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
	// Bearer tokens accepted on /api. Empty disables the check.
	APITokens []string `yaml:"apiTokens" env:"HTTP_API_TOKENS" env-separator:","`
	// Tokens allowed to create templates. Empty falls back to APITokens.
	AdminTokens []string `yaml:"adminTokens" env:"HTTP_ADMIN_TOKENS" env-separator:","`
}

type DBConfig struct {
	Host         string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name         string `yaml:"name" env:"DB_NAME" env-default:"postgres"`
	User         string `yaml:"user" env:"DB_USER" env-default:"user"`
	Password     string `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	Schema       string `yaml:"schema" env:"DB_SCHEMA" env-default:"maturity"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
}

type BotConfig struct {
	Admins        []string `yaml:"admins"`
	TgbotApiToken string   `yaml:"tgbot_apitoken" env:"TGBOT_APITOKEN"`
	NotifyChatIDs []int64  `yaml:"notifyChatIds" env:"TGBOT_NOTIFY_CHAT_IDS" env-separator:","`
}

// Enabled reports whether a bot token is configured.
func (b BotConfig) Enabled() bool {
	return b.TgbotApiToken != ""
}

type ScoringConfig struct {
	// exclude_new or legacy
	TrendPolicy string `yaml:"trendPolicy" env:"SCORING_TREND_POLICY" env-default:"exclude_new"`
}

type AdvisorConfig struct {
	Enabled bool   `yaml:"enabled" env:"ADVISOR_ENABLED" env-default:"false"`
	APIKey  string `yaml:"apiKey" env:"OPENROUTER_API_KEY"`
	Model   string `yaml:"model" env:"ADVISOR_MODEL" env-default:"openai/gpt-4o-mini"`
}

type TemplatesConfig struct {
	SeedOnStart bool `yaml:"seedOnStart" env:"TEMPLATES_SEED_ON_START" env-default:"true"`
}
