package acpartner

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pnatali/achub/internal/core"
	"github.com/pnatali/achub/internal/logger"
)

type fakeStore struct {
	saves   []fakeSave
	saveErr error
	latest  []byte
	loadErr error
}

type fakeSave struct {
	plugin string
	data   []byte
}

func (f *fakeStore) Save(_ context.Context, plugin string, data []byte) error {
	f.saves = append(f.saves, fakeSave{plugin: plugin, data: data})
	return f.saveErr
}

func (f *fakeStore) LoadLatest(context.Context, string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.latest, nil
}

func nopLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func TestPollerCachesAndArchives(t *testing.T) {
	transport := &fakeTransport{responses: map[string]json.RawMessage{
		"get_prop": json.RawMessage(`["P1_M2_T26_S0_D999",12.9]`),
	}}
	store := &fakeStore{}
	poller := newPoller(NewClient(transport), store, nil, nopLogger(), time.Minute)
	poller.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	poller.poll()

	snapshot, ok := poller.Latest()
	if !ok {
		t.Fatalf("expected cached snapshot after successful poll")
	}
	if snapshot.Power != "off" || snapshot.LoadPowerWatts != 12 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	if len(store.saves) != 1 {
		t.Fatalf("expected 1 archive write, got %d", len(store.saves))
	}
	if store.saves[0].plugin != "acpartner" {
		t.Fatalf("unexpected archive plugin: %s", store.saves[0].plugin)
	}
	var archived Snapshot
	if err := json.Unmarshal(store.saves[0].data, &archived); err != nil {
		t.Fatalf("decode archived snapshot: %v", err)
	}
	if archived.Power != "off" {
		t.Fatalf("unexpected archived snapshot: %+v", archived)
	}
}

func TestPollerHealthDegradesAfterConsecutiveFailures(t *testing.T) {
	transport := &fakeTransport{err: errFake}
	poller := newPoller(NewClient(transport), nil, nil, nopLogger(), time.Minute)

	for i := 0; i < degradedAfterFailures-1; i++ {
		poller.poll()
	}
	if status, _ := poller.Health(); status != core.HealthHealthy {
		t.Fatalf("expected HEALTHY below failure threshold, got %s", status)
	}

	poller.poll()
	status, message := poller.Health()
	if status != core.HealthDegraded {
		t.Fatalf("expected DEGRADED after %d failures, got %s", degradedAfterFailures, status)
	}
	if message == "" {
		t.Fatalf("expected a health message describing the failure")
	}

	if _, ok := poller.Latest(); ok {
		t.Fatalf("expected no cached snapshot when every poll failed")
	}
}

func TestPollerRecoversAfterSuccess(t *testing.T) {
	transport := &fakeTransport{err: errFake}
	poller := newPoller(NewClient(transport), nil, nil, nopLogger(), time.Minute)

	for i := 0; i < degradedAfterFailures; i++ {
		poller.poll()
	}

	transport.err = nil
	transport.responses = map[string]json.RawMessage{
		"get_prop": json.RawMessage(`["P0_M0_T28_S1_D0",376.0]`),
	}
	poller.poll()

	if status, _ := poller.Health(); status != core.HealthHealthy {
		t.Fatalf("expected HEALTHY after successful poll, got %s", status)
	}
	if _, ok := poller.Latest(); !ok {
		t.Fatalf("expected cached snapshot after recovery")
	}
}

func TestPollerRunStops(t *testing.T) {
	transport := &fakeTransport{responses: map[string]json.RawMessage{
		"get_prop": json.RawMessage(`["P0_M0_T28_S1_D0",376.0]`),
	}}
	poller := newPoller(NewClient(transport), nil, nil, nopLogger(), 10*time.Millisecond)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		poller.Run(stop)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("poller did not stop")
	}

	if _, ok := poller.Latest(); !ok {
		t.Fatalf("expected at least one successful poll before stop")
	}
}
