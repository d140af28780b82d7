package acpartner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pnatali/achub/internal/blob"
)

// HTTP API paths registered by the plugin.
const (
	StatusPath = "/api/acpartner/status"
	LatestPath = "/api/acpartner/latest"
	PowerPath  = "/api/acpartner/power"
	RawPath    = "/api/acpartner/raw"
)

const requestTimeout = 10 * time.Second

type api struct {
	client *Client
	poller *Poller
	store  blob.Store
	now    func() time.Time
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc(StatusPath, a.handleStatus)
	mux.HandleFunc(LatestPath, a.handleLatest)
	mux.HandleFunc(PowerPath, a.handlePower)
	mux.HandleFunc(RawPath, a.handleRaw)
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	status, err := a.client.Status(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, status.Snapshot(a.now()))
}

// handleLatest serves the newest known snapshot without touching the device:
// the poller's in-memory cache first, then the blob archive.
func (a *api) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if a.poller != nil {
		if snapshot, ok := a.poller.Latest(); ok {
			writeJSON(w, snapshot)
			return
		}
	}

	if a.store == nil {
		http.Error(w, "no snapshot recorded yet", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := a.store.LoadLatest(ctx, "acpartner")
	if errors.Is(err, blob.ErrSnapshotNotFound) {
		http.Error(w, "no snapshot recorded yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

type powerRequest struct {
	Power string `json:"power"`
}

type powerResponse struct {
	Power string          `json:"power"`
	Ack   json.RawMessage `json:"ack,omitempty"`
}

func (a *api) handlePower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req powerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		ack json.RawMessage
		err error
	)
	switch req.Power {
	case "on":
		ack, err = a.client.On(ctx)
	case "off":
		ack, err = a.client.Off(ctx)
	default:
		http.Error(w, `power must be "on" or "off"`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, powerResponse{Power: req.Power, Ack: ack})
}

type rawRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rawResponse struct {
	Method string          `json:"method"`
	Result json.RawMessage `json:"result,omitempty"`
}

func (a *api) handleRaw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Method == "" {
		http.Error(w, "method is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := a.client.Raw(ctx, req.Method, req.Params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, rawResponse{Method: req.Method, Result: result})
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
