package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPath         = "/etc/achub/config.yml"
	DefaultHTTPAddr     = "0.0.0.0:8080"
	DefaultLogLevel     = "info"
	DefaultModel        = "lumi.acpartner.mcn02"
	DefaultPollInterval = 30 * time.Second
)

// DefaultTransportCommand reaches the external miio collaborator through
// python-miio's CLI. Placeholders are filled per request by the transport.
var DefaultTransportCommand = []string{
	"miiocli", "device", "--ip", "{host}", "--token", "{token}",
	"raw_command", "{method}", "{params}",
}

// Core holds hub-wide settings.
type Core struct {
	HTTPAddr     string `mapstructure:"http_addr"`
	DashboardDir string `mapstructure:"dashboard_dir"`
	LogLevel     string `mapstructure:"log_level"`
}

// Blob configures the S3-compatible snapshot archive.
type Blob struct {
	Endpoint      string `mapstructure:"endpoint"`
	Bucket        string `mapstructure:"bucket"`
	Prefix        string `mapstructure:"prefix"`
	Region        string `mapstructure:"region"`
	AccessKeyFile string `mapstructure:"access_key_file"`
	SecretKeyFile string `mapstructure:"secret_key_file"`
}

// MQTT configures the Home Assistant bridge for a plugin.
type MQTT struct {
	Broker      string `mapstructure:"broker"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

// ACPartner configures the AC Partner plugin.
type ACPartner struct {
	Model        string        `mapstructure:"model"`
	Host         string        `mapstructure:"host"`
	TokenFile    string        `mapstructure:"token_file"`
	Command      []string      `mapstructure:"command"`
	StartID      uint32        `mapstructure:"start_id"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MQTT         *MQTT         `mapstructure:"mqtt"`
}

// Config is the root of the achub YAML config file.
type Config struct {
	Core      Core       `mapstructure:"core"`
	Blob      *Blob      `mapstructure:"blob"`
	ACPartner *ACPartner `mapstructure:"acpartner"`
}

// Load parses the YAML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Core.HTTPAddr == "" {
		cfg.Core.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Core.LogLevel == "" {
		cfg.Core.LogLevel = DefaultLogLevel
	}

	if cfg.ACPartner != nil {
		if cfg.ACPartner.Model == "" {
			cfg.ACPartner.Model = DefaultModel
		}
		if len(cfg.ACPartner.Command) == 0 {
			cfg.ACPartner.Command = append([]string(nil), DefaultTransportCommand...)
		}
		if cfg.ACPartner.PollInterval <= 0 {
			cfg.ACPartner.PollInterval = DefaultPollInterval
		}
		if cfg.ACPartner.MQTT != nil && cfg.ACPartner.MQTT.TopicPrefix == "" {
			cfg.ACPartner.MQTT.TopicPrefix = "achub/acpartner"
		}
	}

	if cfg.Blob != nil && cfg.Blob.Prefix == "" {
		cfg.Blob.Prefix = "achub/snapshots"
	}
}

// Validate enforces required invariants beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.Core.HTTPAddr == "" {
		return fmt.Errorf("core.http_addr is required")
	}

	if cfg.ACPartner != nil {
		if cfg.ACPartner.Host == "" {
			return fmt.Errorf("acpartner.host is required")
		}
		if cfg.ACPartner.TokenFile == "" {
			return fmt.Errorf("acpartner.token_file is required")
		}
		if cfg.ACPartner.MQTT != nil && cfg.ACPartner.MQTT.Broker == "" {
			return fmt.Errorf("acpartner.mqtt.broker is required")
		}
	}

	if cfg.Blob != nil {
		if cfg.Blob.Endpoint == "" {
			return fmt.Errorf("blob.endpoint is required")
		}
		if cfg.Blob.Bucket == "" {
			return fmt.Errorf("blob.bucket is required")
		}
		if cfg.Blob.AccessKeyFile == "" {
			return fmt.Errorf("blob.access_key_file is required")
		}
		if cfg.Blob.SecretKeyFile == "" {
			return fmt.Errorf("blob.secret_key_file is required")
		}
	}

	return nil
}

// EnabledPlugins maps enabled plugin IDs based on config presence.
func EnabledPlugins(cfg *Config) map[string]bool {
	enabled := make(map[string]bool)
	if cfg == nil {
		return enabled
	}
	if cfg.ACPartner != nil {
		enabled["acpartner"] = true
	}
	return enabled
}

// ReadSecretFile loads a trimmed secret (device token, S3 credential).
func ReadSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
