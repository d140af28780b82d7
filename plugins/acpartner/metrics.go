package acpartner

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const scrapeTimeout = 10 * time.Second

// MetricsCollector queries the device on each scrape and exposes the decoded
// status. Enumerated settings are exported one-hot so dashboards can show the
// active mode by label.
type MetricsCollector struct {
	client *Client

	powerOn     prometheus.Gauge
	loadPowerW  prometheus.Gauge
	targetTempC prometheus.Gauge
	mode        *prometheus.GaugeVec
	fanSpeed    *prometheus.GaugeVec
	swing       *prometheus.GaugeVec

	lastSuccess prometheus.Gauge
	success     prometheus.Gauge
}

func NewMetricsCollector(client *Client) *MetricsCollector {
	return &MetricsCollector{
		client: client,
		powerOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "achub_acpartner_power_on_bool",
			Help: "Whether the air conditioner is on (1=on, 0=off)",
		}),
		loadPowerW: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "achub_acpartner_load_power_w",
			Help: "Current power load of the air conditioner in watts",
		}),
		targetTempC: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "achub_acpartner_target_temperature_celsius",
			Help: "Target temperature in degrees Celsius",
		}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "achub_acpartner_mode",
			Help: "Active operation mode (1 for the active mode)",
		}, []string{"mode"}),
		fanSpeed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "achub_acpartner_fan_speed",
			Help: "Active fan speed (1 for the active speed)",
		}, []string{"speed"}),
		swing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "achub_acpartner_swing",
			Help: "Swing mode (1 for the active position)",
		}, []string{"position"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "achub_acpartner_last_success_timestamp_seconds",
			Help: "Last successful scrape timestamp (epoch seconds)",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "achub_acpartner_scrape_success",
			Help: "Last scrape success (1=ok, 0=error)",
		}),
	}
}

var (
	allModes     = []OperationMode{ModeCool, ModeHeat, ModeAuto, ModeVentilate, ModeDehumidify}
	allFanSpeeds = []FanSpeed{FanAuto, FanLow, FanMedium, FanHigh}
	allSwings    = []SwingMode{SwingOn, SwingOff}
)

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.powerOn.Describe(ch)
	c.loadPowerW.Describe(ch)
	c.targetTempC.Describe(ch)
	c.mode.Describe(ch)
	c.fanSpeed.Describe(ch)
	c.swing.Describe(ch)
	c.lastSuccess.Describe(ch)
	c.success.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	status, err := c.client.Status(ctx)
	if err != nil {
		c.success.Set(0)
		c.collectAll(ch)
		return
	}

	c.success.Set(1)
	c.lastSuccess.Set(float64(time.Now().Unix()))

	if status.IsOn() {
		c.powerOn.Set(1)
	} else {
		c.powerOn.Set(0)
	}
	c.loadPowerW.Set(status.LoadPower)
	if temp := status.TargetTemperature(); temp != nil {
		c.targetTempC.Set(float64(*temp))
	}

	active := status.Mode()
	for _, mode := range allModes {
		value := 0.0
		if active != nil && *active == mode {
			value = 1
		}
		c.mode.WithLabelValues(mode.String()).Set(value)
	}

	activeSpeed := status.FanSpeed()
	for _, speed := range allFanSpeeds {
		value := 0.0
		if activeSpeed != nil && *activeSpeed == speed {
			value = 1
		}
		c.fanSpeed.WithLabelValues(speed.String()).Set(value)
	}

	activeSwing := status.SwingMode()
	for _, swing := range allSwings {
		value := 0.0
		if activeSwing != nil && *activeSwing == swing {
			value = 1
		}
		c.swing.WithLabelValues(swing.String()).Set(value)
	}

	c.collectAll(ch)
}

func (c *MetricsCollector) collectAll(ch chan<- prometheus.Metric) {
	c.powerOn.Collect(ch)
	c.loadPowerW.Collect(ch)
	c.targetTempC.Collect(ch)
	c.mode.Collect(ch)
	c.fanSpeed.Collect(ch)
	c.swing.Collect(ch)
	c.lastSuccess.Collect(ch)
	c.success.Collect(ch)
}
