// Package config loads settings for the console and the demo services.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"
)

// Client configures the terminal console.
type Client struct {
	AuthServiceURL string `yaml:"auth_service_url" env:"AUTH_SERVICE_URL"`
	App1URL        string `yaml:"app1_url" env:"APP1_URL"`
	App2URL        string `yaml:"app2_url" env:"APP2_URL"`
	LogLevel       string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string `yaml:"log_format" env:"LOG_FORMAT"`
	LogFile        string `yaml:"log_file" env:"LOG_FILE"`
	Pretty         bool   `yaml:"pretty" env:"PRETTY"`
}

// Build-time variable names used by the browser frontend.
var viteFallbacks = map[string]string{
	"AUTH_SERVICE_URL": "VITE_AUTH_SERVICE_URL",
	"APP1_URL":         "VITE_APP1_URL",
	"APP2_URL":         "VITE_APP2_URL",
}

func defaultClient() *Client {
	return &Client{
		AuthServiceURL: "http://localhost:8000",
		App1URL:        "http://localhost:8001",
		App2URL:        "http://localhost:8002",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// LoadClient resolves console settings from defaults, then the YAML file at
// path (skipped when path is empty), then a .env file, then the
// environment. Later sources win. URLs are taken verbatim.
func LoadClient(path string) (*Client, error) {
	cfg := defaultClient()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	loadDotEnv()

	if err := env.Load(cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	targets := map[string]*string{
		"AUTH_SERVICE_URL": &cfg.AuthServiceURL,
		"APP1_URL":         &cfg.App1URL,
		"APP2_URL":         &cfg.App2URL,
	}
	for name, vite := range viteFallbacks {
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		if v, ok := os.LookupEnv(vite); ok {
			*targets[name] = v
		}
	}
	return cfg, nil
}

// Services configures the demo Auth, App1 and App2 services.
type Services struct {
	SecretKey         string        `env:"SECRET_KEY"`
	Algorithm         string        `env:"ALGORITHM" default:"HS256"`
	TokenExpireMinute int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"30"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS" default:"http://localhost:8003"`
	App2URL           string        `env:"APP2_URL" default:"http://fastapi-app2-service"`
	ProxyTimeout      time.Duration `env:"PROXY_TIMEOUT" default:"5s"`
	Port              string        `env:"PORT"`
	AuthPort          string        `env:"AUTH_PORT" default:"8000"`
	App1Port          string        `env:"APP1_PORT" default:"8001"`
	App2Port          string        `env:"APP2_PORT" default:"8002"`
	LogLevel          string        `env:"LOG_LEVEL" default:"info"`
	LogFormat         string        `env:"LOG_FORMAT" default:"text"`
}

// TokenTTL is the lifetime of issued access tokens.
func (s *Services) TokenTTL() time.Duration {
	return time.Duration(s.TokenExpireMinute) * time.Minute
}

// ListenPort is the port for the named service. PORT overrides the
// per-service defaults, which match the console's default endpoints.
func (s *Services) ListenPort(service string) string {
	if s.Port != "" {
		return s.Port
	}
	switch service {
	case "app1":
		return s.App1Port
	case "app2":
		return s.App2Port
	default:
		return s.AuthPort
	}
}

// Origins splits AllowedOrigins on commas, dropping blanks.
func (s *Services) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LoadServices reads service settings from a .env file and the environment.
func LoadServices() (*Services, error) {
	loadDotEnv()

	var cfg Services
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Services) validate() error {
	if s.SecretKey == "" {
		return errors.New("SECRET_KEY environment variable is not set")
	}
	if s.TokenExpireMinute <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", s.TokenExpireMinute)
	}
	switch s.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported ALGORITHM %q", s.Algorithm)
	}
	return nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}
}
