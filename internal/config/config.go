package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://127.0.0.1:8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://tafaseel.db"`

	Salla     Salla     `envPrefix:"SALLA_"`
	LLM       LLM       `envPrefix:"LLM_"`
	Session   Session   `envPrefix:"SESSION_"`
	Plan      Plan      `envPrefix:"PLAN_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	Mail      Mail      `envPrefix:"MAIL_"`
	Scheduler Scheduler `envPrefix:"SCHEDULER_"`
}

type Salla struct {
	AppID             string `env:"APP_ID"`
	OAuthClientID     string `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string `env:"OAUTH_CLIENT_SECRET"`
	RedirectURI       string `env:"OAUTH_REDIRECT_URI"`
	AccountsURL       string `env:"ACCOUNTS_URL" envDefault:"https://accounts.salla.sa"`
	APIBaseURL        string `env:"API_BASE_URL" envDefault:"https://api.salla.dev/admin/v2"`
	InstallBaseURL    string `env:"INSTALL_BASE_URL" envDefault:"https://s.salla.sa/apps/install"`
	WebhookSecret     string `env:"WEBHOOK_SECRET"`
}

type LLM struct {
	Provider  string `env:"PROVIDER" envDefault:"openai"` // openai | gemini
	APIKey    string `env:"API_KEY"`
	BaseURL   string `env:"BASE_URL" envDefault:"https://api.openai.com"`
	Model     string `env:"MODEL" envDefault:"gpt-4o-mini"`
	MaxTokens int    `env:"MAX_TOKENS" envDefault:"512"`
}

type Session struct {
	HashKey  string `env:"HASH_KEY"`
	BlockKey string `env:"BLOCK_KEY"`
	Secure   bool   `env:"SECURE" envDefault:"true"`
}

type Plan struct {
	PromptsFeatureKey   string `env:"PROMPTS_FEATURE_KEY" envDefault:"prompts"`
	DefaultPromptsLimit int    `env:"DEFAULT_PROMPTS_LIMIT" envDefault:"100"`
	TrialPromptsLimit   int    `env:"TRIAL_PROMPTS_LIMIT" envDefault:"10"`
	TrialDays           int    `env:"TRIAL_DAYS" envDefault:"7"`
}

type RateLimit struct {
	PromptsPerMinute float64 `env:"PROMPTS_PER_MINUTE" envDefault:"10"`
	Burst            int     `env:"BURST" envDefault:"3"`
}

type Mail struct {
	Driver string `env:"DRIVER" envDefault:"log"` // ses | log
	From   string `env:"FROM" envDefault:"no-reply@tafaseel.io"`
}

type Scheduler struct {
	RefreshCron   string        `env:"REFRESH_CRON" envDefault:"0 0 * * *"`
	RefreshWindow time.Duration `env:"REFRESH_WINDOW" envDefault:"72h"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

func (h HTTPServer) Addr() string {
	return h.Host + ":" + h.Port
}

// Load reads .env (when present) into the process environment and parses it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Salla.AppID == "" {
		errs = append(errs, errors.New("SALLA_APP_ID is required"))
	}
	if c.Salla.OAuthClientID == "" || c.Salla.OAuthClientSecret == "" {
		errs = append(errs, errors.New("SALLA_OAUTH_CLIENT_ID and SALLA_OAUTH_CLIENT_SECRET are required"))
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "gemini" {
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
	}
	if c.Mail.Driver != "ses" && c.Mail.Driver != "log" {
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.Mail.Driver))
	}
	// Random session keys log every merchant out on restart.
	if c.Environment.IsProduction() {
		if c.Session.HashKey == "" || c.Session.BlockKey == "" {
			errs = append(errs, errors.New("SESSION_HASH_KEY and SESSION_BLOCK_KEY are required in production"))
		}
		if !c.Session.Secure {
			errs = append(errs, errors.New("SESSION_SECURE cannot be disabled in production"))
		}
	}
	return errors.Join(errs...)
}
