package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr          string `yaml:"addr"`
	AllowedOrigin string `yaml:"allowedOrigin"`
}

type Mongo struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type Identity struct {
	BaseURL string `yaml:"baseUrl"`
	Timeout string `yaml:"timeout"` // duration, default 5s
}

type AI struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"` // duration, default 60s
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // chat-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

// Secrets не живут в yaml — только окружение (.env в dev).
type Secrets struct {
	IdentityAPIKey string `envconfig:"IDENTITY_API_KEY"`
	AIAPIKey       string `envconfig:"AI_API_KEY"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Mongo    Mongo    `yaml:"mongo"`
	Identity Identity `yaml:"identity"`
	AI       AI       `yaml:"ai"`
	Logging  Logging  `yaml:"logging"`

	Secrets Secrets `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("env secrets: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Mongo.URI == "" {
		return errors.New("mongo.uri is required")
	}
	if c.Identity.BaseURL == "" {
		return errors.New("identity.baseUrl is required")
	}
	if c.AI.BaseURL == "" {
		return errors.New("ai.baseUrl is required")
	}
	if c.AI.Model == "" {
		return errors.New("ai.model is required")
	}
	// установка дефолтов, если значения не указаны
	if c.HTTP.AllowedOrigin == "" {
		c.HTTP.AllowedOrigin = "http://localhost:5173"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "chatgrid"
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}

// IdentityTimeout — таймаут identity-провайдера.
func (c *Config) IdentityTimeout() time.Duration {
	return parseDurationOr(5*time.Second, c.Identity.Timeout)
}

// AITimeout — таймаут completion-провайдера.
func (c *Config) AITimeout() time.Duration {
	return parseDurationOr(60*time.Second, c.AI.Timeout)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
