package miio

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transport is the generic miio RPC boundary. Implementations own connection
// establishment, token encryption, request correlation, and retry policy;
// callers only see method/params in and a raw result out.
type Transport interface {
	Send(ctx context.Context, method string, params []any) (json.RawMessage, error)
}

// DeviceError wraps any failure surfaced by a transport.
type DeviceError struct {
	Method string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("miio %s: %v", e.Method, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
