package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
acpartner:
  host: 192.168.1.10
  token_file: /run/secrets/ac-token
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Core.HTTPAddr != DefaultHTTPAddr {
		t.Fatalf("unexpected http addr: %s", cfg.Core.HTTPAddr)
	}
	if cfg.Core.LogLevel != DefaultLogLevel {
		t.Fatalf("unexpected log level: %s", cfg.Core.LogLevel)
	}
	if cfg.ACPartner.Model != DefaultModel {
		t.Fatalf("unexpected model: %s", cfg.ACPartner.Model)
	}
	if cfg.ACPartner.PollInterval != DefaultPollInterval {
		t.Fatalf("unexpected poll interval: %s", cfg.ACPartner.PollInterval)
	}
	if len(cfg.ACPartner.Command) == 0 || cfg.ACPartner.Command[0] != "miiocli" {
		t.Fatalf("unexpected default command: %v", cfg.ACPartner.Command)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
core:
  http_addr: 127.0.0.1:9090
  log_level: debug
acpartner:
  host: 192.168.1.10
  token_file: /run/secrets/ac-token
  model: lumi.acpartner.v3
  poll_interval: 15s
  mqtt:
    broker: tcp://localhost:1883
blob:
  endpoint: https://minio.local
  bucket: achub
  access_key_file: /run/secrets/access
  secret_key_file: /run/secrets/secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Core.HTTPAddr != "127.0.0.1:9090" {
		t.Fatalf("unexpected http addr: %s", cfg.Core.HTTPAddr)
	}
	if cfg.ACPartner.PollInterval != 15*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.ACPartner.PollInterval)
	}
	if cfg.ACPartner.MQTT.TopicPrefix != "achub/acpartner" {
		t.Fatalf("expected default topic prefix, got %s", cfg.ACPartner.MQTT.TopicPrefix)
	}
	if cfg.Blob.Prefix != "achub/snapshots" {
		t.Fatalf("expected default blob prefix, got %s", cfg.Blob.Prefix)
	}

	enabled := EnabledPlugins(cfg)
	if !enabled["acpartner"] {
		t.Fatalf("expected acpartner enabled")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "missing host",
			content: `
acpartner:
  token_file: /run/secrets/ac-token
`,
			want: "acpartner.host",
		},
		{
			name: "missing token file",
			content: `
acpartner:
  host: 192.168.1.10
`,
			want: "acpartner.token_file",
		},
		{
			name: "missing mqtt broker",
			content: `
acpartner:
  host: 192.168.1.10
  token_file: /run/secrets/ac-token
  mqtt:
    username: achub
`,
			want: "acpartner.mqtt.broker",
		},
		{
			name: "incomplete blob",
			content: `
blob:
  endpoint: https://minio.local
`,
			want: "blob.bucket",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestReadSecretFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  ffffffffffffffffffffffffffffffff\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}

	token, err := ReadSecretFile(path)
	if err != nil {
		t.Fatalf("read secret: %v", err)
	}
	if token != "ffffffffffffffffffffffffffffffff" {
		t.Fatalf("unexpected token: %q", token)
	}
}
