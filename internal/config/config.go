package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Config is the process configuration, read from the environment.
type Config struct {
	BindAddr          string        `env:"APP_BIND_ADDR"                  envDefault:":8080"`
	ShutdownTimeout   time.Duration `env:"APP_SHUTDOWN_TIMEOUT"           envDefault:"15s"`
	SessionInactivity time.Duration `env:"APP_SESSION_INACTIVITY_TIMEOUT" envDefault:"2m"`
	MetricsNamespace  string        `env:"APP_METRICS_NAMESPACE"          envDefault:"coachvoice"`
	AllowAnyOrigin    bool          `env:"APP_ALLOW_ANY_ORIGIN"           envDefault:"false"`
	LogLevel          string        `env:"APP_LOG_LEVEL"                  envDefault:"info"`
	LogFormat         string        `env:"APP_LOG_FORMAT"                 envDefault:"json"`

	AssistantMode    string        `env:"ASSISTANT_MODE"    envDefault:"auto"`
	AssistantURL     string        `env:"ASSISTANT_URL"`
	AssistantTimeout time.Duration `env:"ASSISTANT_TIMEOUT" envDefault:"30s"`

	DefaultLanguage string `env:"VOICE_DEFAULT_LANGUAGE" envDefault:"en-US"`
	WelcomeText     string `env:"VOICE_WELCOME_TEXT"`

	InboundRate  float64 `env:"WS_INBOUND_RATE"  envDefault:"20"`
	InboundBurst int     `env:"WS_INBOUND_BURST" envDefault:"40"`
}

// Load reads configuration from the environment. A non-empty envFile is loaded
// first with godotenv; variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile = strings.TrimSpace(envFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, describeParseError(err)
	}

	// Empty values fall back to the defaults, matching how unset keys behave.
	if strings.TrimSpace(cfg.BindAddr) == "" {
		cfg.BindAddr = ":8080"
	}
	if strings.TrimSpace(cfg.DefaultLanguage) == "" {
		cfg.DefaultLanguage = "en-US"
	}
	cfg.AssistantMode = strings.ToLower(strings.TrimSpace(cfg.AssistantMode))
	if cfg.AssistantMode == "" {
		cfg.AssistantMode = "auto"
	}
	cfg.AssistantURL = strings.TrimRight(strings.TrimSpace(cfg.AssistantURL), "/")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// describeParseError names the offending env keys instead of the struct fields
// that caarlos0/env reports.
func describeParseError(err error) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return fmt.Errorf("parse environment: %w", err)
	}
	msgs := make([]string, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var pe env.ParseError
		if errors.As(e, &pe) {
			msgs = append(msgs, fmt.Sprintf("%s: %v", envKey(pe.Name), pe.Err))
			continue
		}
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("parse environment: %s", strings.Join(msgs, "; "))
}

func envKey(field string) string {
	if f, ok := reflect.TypeOf(Config{}).FieldByName(field); ok {
		if key := f.Tag.Get("env"); key != "" {
			return key
		}
	}
	return field
}

// LoadFromEnv loads without an env file.
func LoadFromEnv() (Config, error) {
	return Load("")
}

func (c Config) validate() error {
	if c.ShutdownTimeout <= 0 {
		return errors.New("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.SessionInactivity < 5*time.Second {
		return errors.New("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	switch c.AssistantMode {
	case "auto", "mock":
	case "http":
		if c.AssistantURL == "" {
			return errors.New("ASSISTANT_URL is required when ASSISTANT_MODE=http")
		}
	default:
		return fmt.Errorf("ASSISTANT_MODE must be auto, http or mock, got %q", c.AssistantMode)
	}
	if c.AssistantTimeout <= 0 {
		return errors.New("ASSISTANT_TIMEOUT must be positive")
	}
	if _, err := language.Parse(strings.ReplaceAll(c.DefaultLanguage, "_", "-")); err != nil {
		return fmt.Errorf("VOICE_DEFAULT_LANGUAGE %q: %w", c.DefaultLanguage, err)
	}
	if c.InboundRate <= 0 {
		return errors.New("WS_INBOUND_RATE must be positive")
	}
	if c.InboundBurst < 1 {
		return errors.New("WS_INBOUND_BURST must be at least 1")
	}
	return nil
}

// EnvFileExists reports whether path names a readable regular file.
func EnvFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
