package config

import (
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envOverlay is the set of environment variables layered over the YAML file.
// Secrets (API keys, bot tokens) belong here rather than in the file; a .env
// file in the working directory is honoured for local development.
type envOverlay struct {
	Provider     string `env:"SWITCHBOARD_PROVIDER"`
	Model        string `env:"SWITCHBOARD_MODEL"`
	APIKey       string `env:"SWITCHBOARD_API_KEY"`
	BaseURL      string `env:"SWITCHBOARD_BASE_URL"`
	ListenAddr   string `env:"SWITCHBOARD_LISTEN_ADDR"`
	LogLevel     string `env:"SWITCHBOARD_LOG_LEVEL"`
	PostgresDSN  string `env:"SWITCHBOARD_POSTGRES_DSN"`
	DiscordToken string `env:"DISCORD_BOT_TOKEN"`
}

// Load reads the YAML configuration file at path, applies the environment
// overlay, and returns a validated [Config]. A missing file is not an error
// when the path is empty; the configuration then comes entirely from the
// environment.
func Load(path string) (*Config, error) {
	// Missing .env files are fine; explicit environment always wins anyway
	// because godotenv never overrides existing variables.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()

		cfg, err = decode(f)
		if err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies the environment
// overlay, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode strictly parses YAML from r; unknown fields are an error so that
// typos in config files fail fast.
func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides cfg fields from the environment. Only set variables
// override; empty ones leave the file values intact.
func applyEnv(cfg *Config) error {
	var o envOverlay
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: parse environment: %w", err)
	}

	if o.Provider != "" {
		cfg.Provider.Name = o.Provider
	}
	if o.Model != "" {
		cfg.Provider.Model = o.Model
	}
	if o.APIKey != "" {
		cfg.Provider.APIKey = o.APIKey
	}
	if o.BaseURL != "" {
		cfg.Provider.BaseURL = o.BaseURL
	}
	if o.ListenAddr != "" {
		cfg.Server.ListenAddr = o.ListenAddr
	}
	if o.LogLevel != "" {
		cfg.Server.LogLevel = LogLevel(o.LogLevel)
	}
	if o.PostgresDSN != "" {
		cfg.History.PostgresDSN = o.PostgresDSN
	}
	if o.DiscordToken != "" {
		cfg.Discord.BotToken = o.DiscordToken
	}
	return nil
}
