package miio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
)

// ExecConfig configures a transport that delegates each call to an external
// miio CLI (for example python-miio's miiocli). Argv entries may contain the
// placeholders {host}, {token}, {method}, {params}, and {id}.
type ExecConfig struct {
	Argv  []string
	Host  string
	Token string

	// StartID seeds the request ID sequence; the first request uses it
	// verbatim. Zero means a random seed in [1, 1000), matching the device
	// protocol's session convention.
	StartID uint32
}

// ExecTransport implements Transport by spawning the configured command per
// request and reading the RPC result from its stdout. Everything the hub
// does not own (encryption, handshake, retries, discovery) stays inside the
// external binary.
type ExecTransport struct {
	argv   []string
	host   string
	token  string
	nextID atomic.Uint32
}

func NewExecTransport(cfg ExecConfig) (*ExecTransport, error) {
	if len(cfg.Argv) == 0 {
		return nil, fmt.Errorf("miio exec transport: command is required")
	}
	t := &ExecTransport{
		argv:  append([]string(nil), cfg.Argv...),
		host:  cfg.Host,
		token: cfg.Token,
	}
	startID := cfg.StartID
	if startID == 0 {
		startID = uint32(rand.IntN(999)) + 1
	}
	// Send increments before use, so store one below the seed.
	t.nextID.Store(startID - 1)
	return t, nil
}

func (t *ExecTransport) Send(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, &DeviceError{Method: method, Err: fmt.Errorf("encode params: %w", err)}
	}

	id := t.nextID.Add(1)
	name, args := t.expand(method, string(paramsJSON), id)

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return nil, &DeviceError{Method: method, Err: err}
	}

	raw, ok := lastJSONLine(stdout.Bytes())
	if !ok {
		return nil, &DeviceError{Method: method, Err: fmt.Errorf("no JSON result in transport output")}
	}
	return raw, nil
}

func (t *ExecTransport) expand(method, params string, id uint32) (string, []string) {
	replacer := strings.NewReplacer(
		"{host}", t.host,
		"{token}", t.token,
		"{method}", method,
		"{params}", params,
		"{id}", strconv.FormatUint(uint64(id), 10),
	)
	out := make([]string, len(t.argv))
	for i, arg := range t.argv {
		out[i] = replacer.Replace(arg)
	}
	return out[0], out[1:]
}

// lastJSONLine returns the last stdout line that is a complete JSON value.
// miio CLIs print progress chatter before the result, so scan backwards.
func lastJSONLine(output []byte) (json.RawMessage, bool) {
	lines := bytes.Split(output, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		if json.Valid(line) {
			return json.RawMessage(append([]byte(nil), line...)), true
		}
	}
	return nil, false
}
