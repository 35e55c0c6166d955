package config

import (
	"fmt"
	"time"

	"paygate/internal/gateway"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Enabled switches webhook replay tracking from the in-process store
	// to redis so multiple instances share one view of seen events.
	Enabled bool `mapstructure:"enabled"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GatewaySettings is the per-provider block under "gateways" in the
// config file. Credential keys are provider-specific; each adapter
// documents the ones it reads.
type GatewaySettings struct {
	Mode          string            `mapstructure:"mode"`
	Credentials   map[string]string `mapstructure:"credentials"`
	WebhookSecret string            `mapstructure:"webhook_secret"`
	ReturnURL     string            `mapstructure:"return_url"`
	WebhookURL    string            `mapstructure:"webhook_url"`
	ReplayWindow  time.Duration     `mapstructure:"replay_window"`
	Timeout       time.Duration     `mapstructure:"timeout"`
}

// ToGatewayConfig converts the file representation into the runtime
// gateway configuration.
func (s *GatewaySettings) ToGatewayConfig(name string) gateway.Config {
	return gateway.Config{
		Name:          name,
		Mode:          gateway.Mode(s.Mode),
		Credentials:   s.Credentials,
		WebhookSecret: s.WebhookSecret,
		ReturnURL:     s.ReturnURL,
		WebhookURL:    s.WebhookURL,
		ReplayWindow:  s.ReplayWindow,
		Timeout:       s.Timeout,
	}
}
