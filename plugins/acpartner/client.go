package acpartner

import (
	"context"
	"encoding/json"

	"github.com/pnatali/achub/internal/miio"
)

// AC Partner models speaking this protocol generation.
const (
	ModelACPartnerV1    = "lumi.acpartner.v1"
	ModelACPartnerV2    = "lumi.acpartner.v2"
	ModelACPartnerV3    = "lumi.acpartner.v3"
	ModelACPartnerMCN02 = "lumi.acpartner.mcn02"
)

// Client is the command adapter for the AC Partner: a status query and two
// power commands over an injected transport. No retries, no caching, no
// response validation beyond what the status decoder tolerates.
type Client struct {
	transport miio.Transport
}

func NewClient(transport miio.Transport) *Client {
	return &Client{transport: transport}
}

// Status queries ac_state and load_power and decodes the reply.
func (c *Client) Status(ctx context.Context) (Status, error) {
	raw, err := c.transport.Send(ctx, "get_prop", []any{"ac_state", "load_power"})
	if err != nil {
		return Status{}, err
	}
	status, err := ParseStatusResult(raw)
	if err != nil {
		return Status{}, &miio.DeviceError{Method: "get_prop", Err: err}
	}
	return status, nil
}

// On turns the air conditioner on by infrared. The transport's raw
// acknowledgement is returned unchanged.
func (c *Client) On(ctx context.Context) (json.RawMessage, error) {
	return c.transport.Send(ctx, "set_power", []any{"on"})
}

// Off turns the air conditioner off by infrared.
func (c *Client) Off(ctx context.Context) (json.RawMessage, error) {
	return c.transport.Send(ctx, "set_power", []any{"off"})
}

// Raw sends an arbitrary method to the device, for diagnostics and commands
// the adapter does not model. The raw result is returned unchanged.
func (c *Client) Raw(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	return c.transport.Send(ctx, method, params)
}
