package acpartner

import (
	"fmt"
	"time"

	"github.com/pnatali/achub/internal/config"
)

// MQTTConfig defines the Home Assistant bridge settings.
type MQTTConfig struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
}

// Config defines runtime configuration for the AC Partner plugin.
type Config struct {
	Model        string
	Host         string
	Token        string
	Command      []string
	StartID      uint32
	PollInterval time.Duration
	MQTT         *MQTTConfig
}

// ConfigFromHub resolves the hub config section into runtime configuration,
// loading the device token from disk.
func ConfigFromHub(cfg *config.ACPartner) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("acpartner config is required")
	}
	if cfg.Host == "" {
		return Config{}, fmt.Errorf("acpartner host is required")
	}

	token, err := config.ReadSecretFile(cfg.TokenFile)
	if err != nil {
		return Config{}, fmt.Errorf("read device token: %w", err)
	}

	runtime := Config{
		Model:        cfg.Model,
		Host:         cfg.Host,
		Token:        token,
		Command:      append([]string(nil), cfg.Command...),
		StartID:      cfg.StartID,
		PollInterval: cfg.PollInterval,
	}
	if runtime.Model == "" {
		runtime.Model = ModelACPartnerMCN02
	}
	if runtime.PollInterval <= 0 {
		runtime.PollInterval = config.DefaultPollInterval
	}
	if cfg.MQTT != nil {
		runtime.MQTT = &MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}
	}
	return runtime, nil
}

// SupportedModel reports whether the configured model speaks the mcn02
// state-string protocol this plugin decodes.
func (c Config) SupportedModel() bool {
	return c.Model == ModelACPartnerMCN02
}
