package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// statusServer exposes /health and a /status summary of the running build.
type statusServer struct {
	logger   *slog.Logger
	tally    *buildlog.Tally
	listener net.Listener
	server   *http.Server
}

type statusResponse struct {
	Counts buildlog.Counts   `json:"counts"`
	Assets map[string]string `json:"assets"`
}

// startStatusServer binds port and serves in the background. Port 0 picks a
// free port.
func startStatusServer(ctx context.Context, port int, tally *buildlog.Tally) (*statusServer, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring status server.")

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}

	s := &statusServer{logger: logger, tally: tally, listener: ln}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://%s/status", ln.Addr()))
		// Serve returns http.ErrServerClosed on graceful shutdown.
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed unexpectedly", "error", err)
		}
	}()
	return s, nil
}

// Addr is the bound address.
func (s *statusServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *statusServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *statusServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Status endpoint hit.", "remote_addr", r.RemoteAddr)
	resp := statusResponse{Counts: s.tally.Counts(), Assets: make(map[string]string)}
	for p, st := range s.tally.Statuses() {
		resp.Assets[p] = st.String()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Writing status response failed.", "error", err)
	}
}

// Close shuts the server down, waiting at most five seconds.
func (s *statusServer) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	s.logger.Debug("Shutting down status server...")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Status server shutdown failed", "error", err)
		return err
	}
	return nil
}
