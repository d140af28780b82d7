package acpartner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pnatali/achub/internal/blob"
	"github.com/pnatali/achub/internal/core"
	"github.com/pnatali/achub/internal/logger"
)

// Consecutive poll failures before the plugin reports DEGRADED.
const degradedAfterFailures = 3

// Poller drives the periodic status query: it caches the newest snapshot,
// feeds the MQTT bridge, and archives to blob storage when configured.
type Poller struct {
	client   *Client
	store    blob.Store
	bridge   *mqttBridge
	log      *logger.Logger
	interval time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	latest   *Snapshot
	failures int
	lastErr  error
}

func newPoller(client *Client, store blob.Store, bridge *mqttBridge, log *logger.Logger, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		store:    store,
		bridge:   bridge,
		log:      log,
		interval: interval,
		now:      time.Now,
	}
}

// Run polls until stop is closed. The first poll happens immediately so the
// cached snapshot and MQTT state are live before the first tick.
func (p *Poller) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()
	for {
		select {
		case <-stop:
			if p.bridge != nil {
				p.bridge.publishUnavailable()
				p.bridge.close()
			}
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	status, err := p.client.Status(ctx)
	if err != nil {
		p.recordFailure(err)
		if p.bridge != nil {
			p.bridge.publishUnavailable()
		}
		p.log.Warnw("status poll failed", "err", err)
		return
	}

	snapshot := status.Snapshot(p.now())
	p.recordSuccess(snapshot)

	if p.bridge != nil {
		p.bridge.publishState(snapshot)
	}
	if p.store != nil {
		p.archive(ctx, snapshot)
	}
}

func (p *Poller) archive(ctx context.Context, snapshot Snapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		p.log.Errorw("encode snapshot", "err", err)
		return
	}
	if err := p.store.Save(ctx, "acpartner", data); err != nil {
		p.log.Warnw("archive snapshot failed", "err", err)
	}
}

func (p *Poller) recordSuccess(snapshot Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = &snapshot
	p.failures = 0
	p.lastErr = nil
}

func (p *Poller) recordFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
	p.lastErr = err
}

// Latest returns the most recent decoded snapshot, if any poll succeeded.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return Snapshot{}, false
	}
	return *p.latest, true
}

// Health degrades after a run of consecutive poll failures.
func (p *Poller) Health() (core.HealthStatus, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.failures >= degradedAfterFailures {
		return core.HealthDegraded, fmt.Sprintf("%d consecutive poll failures, last: %v", p.failures, p.lastErr)
	}
	return core.HealthHealthy, ""
}
