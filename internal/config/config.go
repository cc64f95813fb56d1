package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	LLM struct {
		Provider     string
		Model        string
		APIKey       string
		BaseURL      string
		Temperature  float64
		Timeout      time.Duration
		MaxTokens    int
		SystemPrompt string
		Prompt       string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		TTL      time.Duration
	}
	Social struct {
		Enabled     bool
		BaseURL     string
		AccountID   string
		AccessToken string
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	}
	Regenerate struct {
		Concurrency int
		RPS         float64
	}
	Log struct {
		Level  string
		Format string
	}
	AdminEmail     string
	DefaultCredits int
}

// Load reads config from environment (DB8_ prefix), an optional .env file and
// an optional db8-agent.yaml.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional .env file

	v := viper.New()
	v.SetEnvPrefix("DB8")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("db8-agent")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	setDefaults(v)

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(v.GetString("llm.provider")))
	cfg.LLM.Model = v.GetString("llm.model")
	cfg.LLM.APIKey = v.GetString("llm.api_key")
	cfg.LLM.BaseURL = v.GetString("llm.base_url")
	cfg.LLM.Temperature = v.GetFloat64("llm.temperature")
	cfg.LLM.MaxTokens = v.GetInt("llm.max_tokens")
	cfg.LLM.SystemPrompt = v.GetString("llm.system_prompt")
	cfg.LLM.Prompt = v.GetString("llm.prompt")

	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")

	cfg.Social.Enabled = v.GetBool("social.enabled")
	cfg.Social.BaseURL = v.GetString("social.base_url")
	cfg.Social.AccountID = v.GetString("social.account_id")
	cfg.Social.AccessToken = v.GetString("social.access_token")

	cfg.RateLimit.Requests = v.GetInt("rate_limit.requests")
	cfg.Regenerate.Concurrency = v.GetInt("regenerate.concurrency")
	cfg.Regenerate.RPS = v.GetFloat64("regenerate.rps")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.AdminEmail = v.GetString("admin_email")
	cfg.DefaultCredits = v.GetInt("credits.default")

	var err error
	if cfg.LLM.Timeout, err = time.ParseDuration(v.GetString("llm.timeout")); err != nil {
		return nil, fmt.Errorf("invalid DB8_LLM_TIMEOUT: %w", err)
	}
	if cfg.Redis.TTL, err = time.ParseDuration(v.GetString("redis.ttl")); err != nil {
		return nil, fmt.Errorf("invalid DB8_REDIS_TTL: %w", err)
	}
	if cfg.RateLimit.Window, err = time.ParseDuration(v.GetString("rate_limit.window")); err != nil {
		return nil, fmt.Errorf("invalid DB8_RATE_LIMIT_WINDOW: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("admin_email", "admin@db8.local")
	v.SetDefault("credits.default", 20)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.system_prompt", "Você gera copy imobiliária em JSON.")
	v.SetDefault("redis.ttl", "24h")
	v.SetDefault("social.base_url", "https://graph.facebook.com/v19.0")
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("regenerate.concurrency", 4)
	v.SetDefault("regenerate.rps", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.DB.Driver == "" {
		return fmt.Errorf("DB8_DB_DRIVER is required (sqlite3, mysql, postgres, pgx)")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("DB8_DB_DSN is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("DB8_LLM_TEMPERATURE must be within [0,1], got %v", c.LLM.Temperature)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("DB8_LLM_TIMEOUT must be positive")
	}
	if c.LLM.Provider != "" && c.LLM.APIKey == "" {
		return fmt.Errorf("DB8_LLM_API_KEY is required when DB8_LLM_PROVIDER is set")
	}
	if c.Social.Enabled && (c.Social.AccountID == "" || c.Social.AccessToken == "") {
		return fmt.Errorf("DB8_SOCIAL_ACCOUNT_ID and DB8_SOCIAL_ACCESS_TOKEN are required when DB8_SOCIAL_ENABLED is set")
	}
	if c.DefaultCredits < 0 {
		return fmt.Errorf("DB8_CREDITS_DEFAULT must not be negative")
	}
	if c.Regenerate.Concurrency < 1 {
		c.Regenerate.Concurrency = 1
	}
	return nil
}
