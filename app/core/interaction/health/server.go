package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"
)

// Server exposes the liveness probe and a JSON status snapshot. It carries no
// message traffic; the chat platform is the only conversational surface.
type Server struct {
	port            int
	server          *http.Server
	statusProvider  func(context.Context) map[string]interface{}
	shutdownTimeout time.Duration
	startedUnix     atomic.Int64
}

type statusResponse struct {
	StartedAt string                 `json:"started_at,omitempty"`
	UptimeSec int64                  `json:"uptime_sec"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
}

func NewServer(port int) *Server {
	return &Server{
		port:            port,
		shutdownTimeout: 5 * time.Second,
	}
}

func (s *Server) SetStatusProvider(provider func(context.Context) map[string]interface{}) {
	s.statusProvider = provider
}

func (s *Server) Start(ctx context.Context) error {
	s.startedUnix.Store(time.Now().Unix())

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/status", s.handleStatus)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Health] Shutdown error: %v", err)
		}
	}()

	log.Printf("[Health] Listening on port %d...", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := statusResponse{}
	if started := s.startedUnix.Load(); started > 0 {
		startAt := time.Unix(started, 0).UTC()
		resp.StartedAt = startAt.Format(time.RFC3339)
		resp.UptimeSec = int64(time.Since(startAt).Seconds())
		if resp.UptimeSec < 0 {
			resp.UptimeSec = 0
		}
	}
	if s.statusProvider != nil {
		resp.Runtime = s.statusProvider(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
