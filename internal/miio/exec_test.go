package miio

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-miiocli")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestExecTransportSend(t *testing.T) {
	script := writeScript(t, "echo 'Running command get_prop'\necho '[\"P0_M0_T28_S1_D0\",376.0]'\n")

	transport, err := NewExecTransport(ExecConfig{
		Argv:  []string{script, "{method}", "{params}"},
		Host:  "192.168.1.10",
		Token: "ffffffffffffffffffffffffffffffff",
	})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}

	raw, err := transport.Send(context.Background(), "get_prop", []any{"ac_state", "load_power"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	var result []any
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2-element result, got %v", result)
	}
	if result[0] != "P0_M0_T28_S1_D0" {
		t.Fatalf("unexpected state string: %v", result[0])
	}
}

func TestExecTransportFailure(t *testing.T) {
	script := writeScript(t, "echo 'device unreachable' >&2\nexit 1\n")

	transport, err := NewExecTransport(ExecConfig{Argv: []string{script}})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}

	_, err = transport.Send(context.Background(), "set_power", []any{"on"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError, got %T", err)
	}
	if devErr.Method != "set_power" {
		t.Fatalf("unexpected method: %s", devErr.Method)
	}
	if !strings.Contains(err.Error(), "device unreachable") {
		t.Fatalf("expected stderr detail in error, got: %v", err)
	}
}

func TestExecTransportNoJSONOutput(t *testing.T) {
	script := writeScript(t, "echo 'nothing useful here'\n")

	transport, err := NewExecTransport(ExecConfig{Argv: []string{script}})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}

	if _, err := transport.Send(context.Background(), "get_prop", nil); err == nil {
		t.Fatalf("expected error for non-JSON output")
	}
}

func TestExecTransportRequestIDSequence(t *testing.T) {
	script := writeScript(t, "echo \"{\\\"id\\\": $1}\"\n")

	transport, err := NewExecTransport(ExecConfig{
		Argv:    []string{script, "{id}"},
		StartID: 42,
	})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}

	for _, want := range []float64{42, 43, 44} {
		raw, err := transport.Send(context.Background(), "get_prop", nil)
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		var result struct {
			ID float64 `json:"id"`
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if result.ID != want {
			t.Fatalf("request id = %v, want %v", result.ID, want)
		}
	}
}

func TestExpandPlaceholders(t *testing.T) {
	transport, err := NewExecTransport(ExecConfig{
		Argv:    []string{"miiocli", "device", "--ip", "{host}", "--token", "{token}", "raw_command", "{method}", "{params}"},
		Host:    "10.0.0.5",
		Token:   "abc",
		StartID: 41,
	})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}

	name, args := transport.expand("set_power", `["on"]`, 42)
	if name != "miiocli" {
		t.Fatalf("unexpected command: %s", name)
	}
	want := []string{"device", "--ip", "10.0.0.5", "--token", "abc", "raw_command", "set_power", `["on"]`}
	if len(args) != len(want) {
		t.Fatalf("unexpected args: %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d: got %q, want %q", i, args[i], want[i])
		}
	}
}

func TestLastJSONLine(t *testing.T) {
	raw, ok := lastJSONLine([]byte("chatter\n[\"ok\"]\ntrailing noise not json {\n"))
	if !ok {
		t.Fatalf("expected a JSON line")
	}
	if string(raw) != `["ok"]` {
		t.Fatalf("unexpected line: %s", raw)
	}

	if _, ok := lastJSONLine([]byte("no json at all\n")); ok {
		t.Fatalf("expected no JSON line")
	}
}
