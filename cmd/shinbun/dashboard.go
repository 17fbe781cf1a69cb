package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Dashboard is the read-mostly HTTP surface over the snapshot store plus
// the manual update trigger.
type Dashboard struct {
	cfg      *Config
	pipeline *Pipeline

	wsUpgrader websocket.Upgrader
	wsMu       sync.Mutex
	wsClients  map[*websocket.Conn]bool

	// updating guards against concurrent manual triggers; the run lock
	// already protects the store, this just gives callers a clean 409.
	updating sync.Mutex
}

// NewDashboard builds the HTTP surface for a pipeline.
func NewDashboard(cfg *Config, pipeline *Pipeline) *Dashboard {
	return &Dashboard{
		cfg:      cfg,
		pipeline: pipeline,
		wsUpgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// Router assembles the route table.
func (d *Dashboard) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", d.apiGetStatus).Methods("GET")
	api.HandleFunc("/update", d.apiTriggerUpdate).Methods("POST")
	api.HandleFunc("/news", d.apiGetNews).Methods("GET")
	api.HandleFunc("/news/{id}", d.apiGetSourceNews).Methods("GET")
	api.HandleFunc("/meta", d.apiGetMeta).Methods("GET")

	r.HandleFunc("/healthz", d.handleHealthz).Methods("GET")
	r.HandleFunc("/ws", d.handleWebsocket)

	return r
}

// Start runs the HTTP server in the background.
func (d *Dashboard) Start() {
	go func() {
		addr := fmt.Sprintf(":%d", d.cfg.DashboardPort)
		Logger().Info("dashboard listening on %s", addr)
		if err := http.ListenAndServe(addr, d.Router()); err != nil {
			Logger().Error("dashboard server failed: %v", err)
		}
	}()
}

// apiGetStatus reports freshness and runtime counters. Always structured
// JSON, even when the meta document is missing.
func (d *Dashboard) apiGetStatus(w http.ResponseWriter, r *http.Request) {
	freshness := d.pipeline.CheckFreshness(time.Now().UTC())

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"needsUpdate":   freshness.NeedsUpdate,
		"lastUpdated":   freshness.LastUpdated,
		"elapsed":       freshness.Elapsed,
		"nextUpdateIn":  freshness.NextUpdateIn,
		"totalArticles": freshness.TotalArticles,
		"sources":       freshness.Sources,
		"system":        GetSystemStatus(),
	})
}

// apiTriggerUpdate runs the pipeline when the data is stale. `?force=1`
// bypasses the staleness check.
func (d *Dashboard) apiTriggerUpdate(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "1"

	freshness := d.pipeline.CheckFreshness(time.Now().UTC())
	if !freshness.NeedsUpdate && !force {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"updated":      false,
			"message":      "already fresh",
			"nextUpdateIn": freshness.NextUpdateIn,
		})
		return
	}

	if !d.updating.TryLock() {
		respondWithError(w, http.StatusConflict, "update already in progress")
		return
	}
	defer d.updating.Unlock()

	d.notifyClients("run_started", map[string]string{"trigger": "api"})

	report, err := d.pipeline.Run(r.Context())
	if err != nil {
		d.notifyClients("run_finished", map[string]string{"error": err.Error()})
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	d.notifyClients("run_finished", report)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"updated": true,
		"report":  report,
	})
}

// apiGetNews serves the latest unified snapshot.
func (d *Dashboard) apiGetNews(w http.ResponseWriter, r *http.Request) {
	snap, err := d.pipeline.Store().ReadUnifiedSnapshot()
	if err != nil {
		respondWithError(w, http.StatusNotFound, "no news snapshot yet")
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

// apiGetSourceNews serves one source's latest snapshot.
func (d *Dashboard) apiGetSourceNews(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	for _, src := range d.pipeline.Sources() {
		if src.ID != id {
			continue
		}
		snap, err := d.pipeline.Store().ReadSourceSnapshot(id)
		if err != nil {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("no snapshot for source %q yet", id))
			return
		}
		respondWithJSON(w, http.StatusOK, snap)
		return
	}

	respondWithError(w, http.StatusNotFound, fmt.Sprintf("unknown source %q", id))
}

// apiGetMeta serves the staleness metadata document.
func (d *Dashboard) apiGetMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := d.pipeline.Store().ReadMeta()
	if err != nil {
		respondWithError(w, http.StatusNotFound, "no meta yet")
		return
	}
	respondWithJSON(w, http.StatusOK, meta)
}

// handleHealthz provides a simple health check endpoint.
func (d *Dashboard) handleHealthz(w http.ResponseWriter, r *http.Request) {
	system := GetSystemStatus()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  system["status"],
		"version": VERSION,
		"uptime":  system["uptime_seconds"],
	})
}

// handleWebsocket handles WebSocket connections for run event broadcasts.
func (d *Dashboard) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := d.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger().Warning("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	d.wsMu.Lock()
	d.wsClients[conn] = true
	d.wsMu.Unlock()
	defer func() {
		d.wsMu.Lock()
		delete(d.wsClients, conn)
		d.wsMu.Unlock()
	}()

	init, _ := json.Marshal(map[string]interface{}{
		"type": "init",
		"data": GetSystemStatus(),
	})
	if err := conn.WriteMessage(websocket.TextMessage, init); err != nil {
		return
	}

	for {
		messageType, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType == websocket.PingMessage {
			conn.WriteMessage(websocket.PongMessage, nil)
		}
	}
}

// notifyClients sends an event to all connected WebSocket clients.
func (d *Dashboard) notifyClients(eventType string, data interface{}) {
	message, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
		"time": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		Logger().Warning("failed to marshal websocket event: %v", err)
		return
	}

	d.wsMu.Lock()
	defer d.wsMu.Unlock()
	for client := range d.wsClients {
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			client.Close()
			delete(d.wsClients, client)
		}
	}
}

// NotifyRunFinished lets the scheduler broadcast scheduled-run results.
func (d *Dashboard) NotifyRunFinished(report *RunReport) {
	d.notifyClients("run_finished", report)
}

// NotifyRunStarted lets the scheduler broadcast scheduled-run starts.
func (d *Dashboard) NotifyRunStarted() {
	d.notifyClients("run_started", map[string]string{"trigger": "scheduler"})
}

// RunLocked wraps a pipeline run with the dashboard's trigger mutex so a
// scheduled run and a manual trigger never overlap.
func (d *Dashboard) RunLocked(ctx context.Context) (*RunReport, error) {
	d.updating.Lock()
	defer d.updating.Unlock()
	return d.pipeline.Run(ctx)
}

// respondWithError sends a JSON error response.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
