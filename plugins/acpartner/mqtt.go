package acpartner

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/pnatali/achub/internal/logger"
)

// mqttBridge publishes decoded status to a topic prefix and routes power
// commands from <prefix>/power/set back to the device.
type mqttBridge struct {
	client mqtt.Client
	ac     *Client
	prefix string
	log    *logger.Logger
}

func newMQTTBridge(cfg *MQTTConfig, ac *Client, log *logger.Logger) *mqttBridge {
	bridge := &mqttBridge{ac: ac, prefix: cfg.TopicPrefix, log: log}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(randomClientID())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetWill(bridge.topic("availability"), "offline", 0, true)
	opts.OnConnect = func(mqtt.Client) {
		bridge.subscribeCommands()
	}

	bridge.client = mqtt.NewClient(opts)
	// Connect retries in the background; device control must not block on
	// broker availability.
	bridge.client.Connect()
	return bridge
}

func (b *mqttBridge) topic(suffix string) string {
	return b.prefix + "/" + suffix
}

func (b *mqttBridge) subscribeCommands() {
	token := b.client.Subscribe(b.topic("power/set"), 0, b.handlePowerCommand)
	go func() {
		if token.Wait() && token.Error() != nil {
			b.log.Errorw("mqtt subscribe failed", "topic", b.topic("power/set"), "err", token.Error())
		}
	}()
}

func (b *mqttBridge) handlePowerCommand(_ mqtt.Client, msg mqtt.Message) {
	command, ok := parsePowerCommand(msg.Payload())
	if !ok {
		b.log.Warnw("ignoring unknown power command", "payload", string(msg.Payload()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var err error
	switch command {
	case "on":
		_, err = b.ac.On(ctx)
	case "off":
		_, err = b.ac.Off(ctx)
	}
	if err != nil {
		b.log.Errorw("power command failed", "command", command, "err", err)
		return
	}
	b.log.Infow("power command applied", "command", command)
}

func (b *mqttBridge) publishState(snapshot Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		b.log.Errorw("encode state payload", "err", err)
		return
	}
	b.client.Publish(b.topic("state"), 0, true, payload)
	b.client.Publish(b.topic("availability"), 0, true, "online")
}

func (b *mqttBridge) publishUnavailable() {
	b.client.Publish(b.topic("availability"), 0, true, "offline")
}

func (b *mqttBridge) close() {
	b.client.Disconnect(250)
}

func parsePowerCommand(payload []byte) (string, bool) {
	switch command := strings.ToLower(strings.TrimSpace(string(payload))); command {
	case "on", "off":
		return command, true
	}
	return "", false
}

func randomClientID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return "achub-acpartner-" + hex.EncodeToString(buf)
}
