package acpartner

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pnatali/achub/internal/blob"
	"github.com/pnatali/achub/internal/config"
	"github.com/pnatali/achub/internal/core"
	"github.com/pnatali/achub/internal/logger"
	"github.com/pnatali/achub/internal/miio"
)

//go:embed AGENTS.md
var agentsMD string

//go:embed dashboard.json
var dashboardJSON []byte

// Plugin implements the achub plugin contract.
type Plugin struct {
	client        *Client
	poller        *Poller
	health        core.HealthStatus
	healthMessage string
}

// NewPlugin constructs the AC Partner plugin from config.
func NewPlugin(cfg *config.ACPartner, store blob.Store, log *logger.Logger) (*Plugin, bool) {
	if cfg == nil {
		return nil, false
	}

	runtimeCfg, err := ConfigFromHub(cfg)
	if err != nil {
		return &Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	if !runtimeCfg.SupportedModel() {
		log.Errorw("device model unsupported, status decoding assumes the mcn02 state string",
			"model", runtimeCfg.Model, "supported", ModelACPartnerMCN02)
	}

	transport, err := miio.NewExecTransport(miio.ExecConfig{
		Argv:    runtimeCfg.Command,
		Host:    runtimeCfg.Host,
		Token:   runtimeCfg.Token,
		StartID: runtimeCfg.StartID,
	})
	if err != nil {
		return &Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	client := NewClient(transport)

	var bridge *mqttBridge
	if runtimeCfg.MQTT != nil {
		bridge = newMQTTBridge(runtimeCfg.MQTT, client, log)
	}

	return &Plugin{
		client: client,
		poller: newPoller(client, store, bridge, log, runtimeCfg.PollInterval),
		health: core.HealthHealthy,
	}, true
}

func (p *Plugin) ID() string {
	return "acpartner"
}

func (p *Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    "acpartner",
		DisplayName: "Xiaomi AC Partner",
		Version:     "0.1.0",
		Endpoints:   []string{StatusPath, LatestPath, PowerPath, RawPath},
	}
}

func (p *Plugin) AgentsMD() string {
	return agentsMD
}

func (p *Plugin) Dashboards() []core.Dashboard {
	return []core.Dashboard{{Name: "acpartner-overview", JSON: dashboardJSON}}
}

func (p *Plugin) RegisterHTTP(mux *http.ServeMux) {
	if p.client == nil {
		return
	}
	handlers := &api{client: p.client, poller: p.poller, now: time.Now}
	if p.poller != nil {
		handlers.store = p.poller.store
	}
	handlers.register(mux)
}

func (p *Plugin) Collectors() []prometheus.Collector {
	if p.client == nil {
		return nil
	}
	return []prometheus.Collector{NewMetricsCollector(p.client)}
}

func (p *Plugin) Health() core.HealthStatus {
	if p.health != core.HealthHealthy {
		return p.health
	}
	if p.poller != nil {
		status, _ := p.poller.Health()
		return status
	}
	return p.health
}

func (p *Plugin) HealthMessage() string {
	if p.healthMessage != "" {
		return p.healthMessage
	}
	if p.poller != nil {
		_, message := p.poller.Health()
		return message
	}
	return ""
}

// Run drives the poll loop; it satisfies core.Runner.
func (p *Plugin) Run(stop <-chan struct{}) {
	if p.poller == nil {
		return
	}
	p.poller.Run(stop)
}
