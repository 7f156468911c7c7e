// Package http exposes the fleet to a browser: a JSON API over the latest
// snapshot, the selection endpoints, probes, metrics and a websocket stream.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/selection"
	"github.com/autopeer-io/ridertrack/internal/pkg/metrics"
	"github.com/autopeer-io/ridertrack/pkg/log"
)

// Fleet is the read side of the engine.
type Fleet interface {
	Snapshot() model.Snapshot
	Running() bool
}

// Selector is the selection tracker.
type Selector interface {
	Select(id string) error
	Clear()
	Selected() (string, bool)
	Current() (model.Entity, bool)
}

type handler struct {
	fleet Fleet
	sel   Selector
	log   log.Logger
}

type ridersResponse struct {
	Seq    uint64         `json:"seq"`
	At     time.Time      `json:"at"`
	Riders []model.Entity `json:"riders"`
}

type countsResponse struct {
	All      int `json:"all"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Offline  int `json:"offline"`
}

type selectionRequest struct {
	RiderID string `json:"riderId"`
}

type selectionResponse struct {
	RiderID string        `json:"riderId,omitempty"`
	Rider   *model.Entity `json:"rider,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the dashboard routes.
func NewRouter(fleet Fleet, sel Selector, hub *Hub, logger log.Logger) *mux.Router {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	h := &handler{fleet: fleet, sel: sel, log: logger}

	r := mux.NewRouter()
	r.Use(h.accessLog)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/riders", h.listRiders).Methods(http.MethodGet)
	// Registered before {id} so "counts" is not taken for a rider id.
	api.HandleFunc("/riders/counts", h.counts).Methods(http.MethodGet)
	api.HandleFunc("/riders/{id}", h.getRider).Methods(http.MethodGet)
	api.HandleFunc("/selection", h.getSelection).Methods(http.MethodGet)
	api.HandleFunc("/selection", h.putSelection).Methods(http.MethodPut)
	api.HandleFunc("/selection", h.deleteSelection).Methods(http.MethodDelete)
	api.Handle("/stream", hub).Methods(http.MethodGet)

	return r
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handler) readyz(w http.ResponseWriter, _ *http.Request) {
	if !h.fleet.Running() {
		http.Error(w, "engine not running", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handler) listRiders(w http.ResponseWriter, r *http.Request) {
	snap := h.fleet.Snapshot()
	riders := snap.Entities()

	if raw := r.URL.Query().Get("status"); raw != "" && raw != "all" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		riders = snap.Filter(status)
	}
	h.writeJSON(w, http.StatusOK, ridersResponse{Seq: snap.Seq(), At: snap.At(), Riders: riders})
}

func (h *handler) counts(w http.ResponseWriter, _ *http.Request) {
	snap := h.fleet.Snapshot()
	c := snap.Counts()
	h.writeJSON(w, http.StatusOK, countsResponse{
		All:      snap.Len(),
		Active:   c[model.StatusActive],
		Inactive: c[model.StatusInactive],
		Offline:  c[model.StatusOffline],
	})
}

func (h *handler) getRider(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e, ok := h.fleet.Snapshot().Get(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, errors.New("rider "+id+" not found"))
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

func (h *handler) getSelection(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.selection())
}

func (h *handler) putSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.sel.Select(req.RiderID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, selection.ErrInvalidSelection) {
			status = http.StatusNotFound
		}
		h.writeError(w, status, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.selection())
}

func (h *handler) deleteSelection(w http.ResponseWriter, _ *http.Request) {
	h.sel.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) selection() selectionResponse {
	e, ok := h.sel.Current()
	if !ok {
		return selectionResponse{}
	}
	return selectionResponse{RiderID: e.ID, Rider: &e}
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error(err, "Failed to write response")
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.log.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
