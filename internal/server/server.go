// Package server exposes the adapter's network surface: the viewer
// WebSocket, the JOCP controller endpoint, and a small status/admin API.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/hub"
)

// Status is the /api/state payload.
type Status struct {
	Mode     string      `json:"mode"`
	Modes    []string    `json:"modes"`
	Slots    interface{} `json:"slots"`
	Attached int         `json:"attached"`
	Viewers  int         `json:"viewers"`
	Profiles []string    `json:"profiles"`
}

// StatusSource produces the current adapter status.
type StatusSource func() Status

type Server struct {
	hub        *hub.Hub
	ctrl       hub.Controls
	status     StatusSource
	jocpWS     http.HandlerFunc
	addr       string
	httpServer *http.Server
	log        *zap.SugaredLogger
}

func New(h *hub.Hub, ctrl hub.Controls, status StatusSource, jocpWS http.HandlerFunc, addr string, log *zap.SugaredLogger) *Server {
	return &Server{
		hub:    h,
		ctrl:   ctrl,
		status: status,
		jocpWS: jocpWS,
		addr:   addr,
		log:    log,
	}
}

func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()

	// Viewer WebSocket endpoint
	mux.HandleFunc("/ws", handleWebSocket(s.hub, s.ctrl, s.log))

	// JOCP controller endpoint
	mux.HandleFunc("/jocp", s.jocpWS)

	// Status API
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.status()); err != nil {
			s.log.Warnf("encode status: %v", err)
		}
	})

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	s.log.Infof("HTTP server listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Infof("shutting down HTTP server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
