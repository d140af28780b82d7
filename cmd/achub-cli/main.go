package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pnatali/achub/internal/core"
	"github.com/pnatali/achub/plugins/acpartner"
)

const requestTimeout = 15 * time.Second

func main() {
	flags := flag.NewFlagSet("achub-cli", flag.ExitOnError)
	asJSON := flags.Bool("json", false, "print raw JSON responses")
	flags.Usage = usage
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	cli := &cli{
		base:   resolveAddr(),
		client: &http.Client{Timeout: requestTimeout},
		out:    outputMode{json: *asJSON},
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch args[0] {
	case "status":
		cli.statusCmd(ctx)
	case "power":
		cli.powerCmd(ctx, args[1:])
	case "raw":
		cli.rawCmd(ctx, args[1:])
	case "plugins":
		cli.pluginsCmd(ctx, args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

type cli struct {
	base   string
	client *http.Client
	out    outputMode
}

func (c *cli) statusCmd(ctx context.Context) {
	var snapshot acpartner.Snapshot
	c.get(ctx, acpartner.StatusPath, &snapshot)

	if c.out.json {
		c.out.printJSON(snapshot)
		return
	}
	printStatus(snapshot)
}

func (c *cli) powerCmd(ctx context.Context, args []string) {
	if len(args) < 1 {
		fatal("power", fmt.Errorf("missing state, want on or off"))
	}
	state := strings.ToLower(args[0])
	if state != "on" && state != "off" {
		fatal("power", fmt.Errorf("unknown state %q, want on or off", args[0]))
	}

	var resp struct {
		Power string          `json:"power"`
		Ack   json.RawMessage `json:"ack"`
	}
	c.post(ctx, acpartner.PowerPath, map[string]string{"power": state}, &resp)

	if c.out.json {
		c.out.printJSON(resp)
		return
	}
	fmt.Printf("Power: %s (ack: %s)\n", resp.Power, string(resp.Ack))
}

func (c *cli) rawCmd(ctx context.Context, args []string) {
	if len(args) < 1 {
		fatal("raw", fmt.Errorf("missing method"))
	}

	params := []any{}
	if len(args) > 1 {
		if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
			fatal("raw", fmt.Errorf("params must be a JSON array: %w", err))
		}
	}

	var resp struct {
		Method string          `json:"method"`
		Result json.RawMessage `json:"result"`
	}
	c.post(ctx, acpartner.RawPath, map[string]any{"method": args[0], "params": params}, &resp)

	if c.out.json {
		c.out.printJSON(resp)
		return
	}
	fmt.Println(string(resp.Result))
}

func (c *cli) pluginsCmd(ctx context.Context, args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "list":
		var summaries []core.PluginSummary
		c.get(ctx, "/api/plugins", &summaries)
		if c.out.json {
			c.out.printJSON(summaries)
			return
		}
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{s.PluginID, s.DisplayName, s.Version, s.Status})
		}
		c.out.table(rows)
	case "describe":
		if len(args) < 2 {
			fatal("describe", fmt.Errorf("missing plugin id"))
		}
		var descriptor core.PluginDescriptor
		c.get(ctx, "/api/plugins/"+url.PathEscape(args[1]), &descriptor)
		if c.out.json {
			c.out.printJSON(descriptor)
			return
		}
		printDescriptor(descriptor)
	default:
		usage()
		os.Exit(2)
	}
}

func (c *cli) get(ctx context.Context, path string, into any) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		fatal("request", err)
	}
	c.do(req, into)
}

func (c *cli) post(ctx context.Context, path string, body, into any) {
	payload, err := json.Marshal(body)
	if err != nil {
		fatal("encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		fatal("request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.do(req, into)
}

func (c *cli) do(req *http.Request, into any) {
	resp, err := c.client.Do(req)
	if err != nil {
		fatal("call hub", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fatal("call hub", fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body))))
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		fatal("decode response", err)
	}
}

func resolveAddr() string {
	addr := envOrDefault("ACHUB_HTTP_ADDR", "localhost:8080")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	return "http://" + addr
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func usage() {
	fmt.Println("achub-cli [--json] <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  status")
	fmt.Println("  power on|off")
	fmt.Println("  raw <method> ['[json params]']")
	fmt.Println("  plugins list")
	fmt.Println("  plugins describe <plugin_id>")
	fmt.Println("")
	fmt.Println("The hub address comes from ACHUB_HTTP_ADDR (default localhost:8080).")
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}
