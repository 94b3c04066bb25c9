package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/gridsweep/internal/ctxlog"
)

// statusPayload is the JSON body served by /status.
type statusPayload struct {
	State      string `json:"state"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Invocation string `json:"invocation"`
}

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// statusHandler reports orchestrator progress for the current invocation.
func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	orch := a.orch
	a.mu.Unlock()

	if orch == nil {
		http.Error(w, "no experiment running", http.StatusServiceUnavailable)
		return
	}

	completed, total := orch.Progress()
	payload := statusPayload{
		State:      orch.State().String(),
		Completed:  completed,
		Total:      total,
		Invocation: orch.InvocationID(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("Failed to encode status payload.", "error", err)
	}
}

// startStatusServer runs the status HTTP server in a goroutine.
func (a *App) startStatusServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/status", a.statusHandler)

	addr := fmt.Sprintf(":%d", a.appCfg.StatusPort)
	a.mu.Lock()
	a.httpServer = &http.Server{Addr: addr, Handler: mux}
	server := a.httpServer
	a.mu.Unlock()

	go func() {
		logger.Info("🩺 Status server starting.", "address", fmt.Sprintf("http://localhost%s/status", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed unexpectedly.", "error", err)
		}
	}()
}

// closeStatusServer shuts the status server down gracefully.
func (a *App) closeStatusServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	a.mu.Lock()
	server := a.httpServer
	a.mu.Unlock()
	if server == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Status server shutdown failed.", "error", err)
		return
	}
	logger.Debug("Status server shut down gracefully.")
}
