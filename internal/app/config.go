package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/haksa/internal/models"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port            string `toml:"port"`
		StaticDir string `toml:"static_dir"`
	} `toml:"server"`

	API struct {
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Lookup struct {
		Variant string `toml:"variant"`
	} `toml:"lookup"`

	DemoPassword struct {
		Tag       string `toml:"tag"`
		Separator string `toml:"separator"`
		Prefix    string `toml:"prefix"`
		Length    int    `toml:"length"`
	} `toml:"demo_password"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	RateLimit struct {
		Enabled       bool   `toml:"enabled"`
		RedisURL      string `toml:"redis_url"`
		KeyTemplate   string `toml:"key_template"`
		MaxAttempts   int64  `toml:"max_attempts"`
		WindowSeconds int    `toml:"window_seconds"`
	} `toml:"ratelimit"`

	Session struct {
		CookieName     string `toml:"cookie_name"`
		IdleTTLSeconds int    `toml:"idle_ttl_seconds"`
		MaxSessions    int    `toml:"max_sessions"`
	} `toml:"session"`

	// Accounts seed the in-process store when no database DSN is set.
	Accounts []models.Account `toml:"accounts"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return ParseConfig(path, data)
}

func ParseConfig(path string, data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	config.applyDefaults()

	logger.Debug.Printf("Loaded lookup config: variant=%q accounts=%d dsn_set=%t",
		config.Lookup.Variant,
		len(config.Accounts),
		config.Database.DSN != "",
	)

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "static"
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "./migrations"
	}
	if c.RateLimit.KeyTemplate == "" {
		c.RateLimit.KeyTemplate = "lookup:attempts:{client}"
	}
	if c.RateLimit.MaxAttempts <= 0 {
		c.RateLimit.MaxAttempts = 10
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "lookup_session"
	}
	if c.Session.IdleTTLSeconds <= 0 {
		c.Session.IdleTTLSeconds = 15 * 60
	}
	if c.Session.MaxSessions <= 0 {
		c.Session.MaxSessions = 10000
	}
}
