// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"

	"classhub/api"
	"classhub/internal/config"
	"classhub/internal/realtime"
	"classhub/internal/roster"
	"classhub/internal/rules"
	"classhub/internal/service"
	"classhub/internal/session"
	"classhub/internal/store"
)

// Server owns the HTTP listener and the background loops around the
// application service: the periodic snapshot save and the session
// sweep.
type Server struct {
	config   *config.Config
	srv      *http.Server
	service  *service.Service
	sessions session.Store
	hub      *realtime.Hub
}

// New wires the whole application from configuration: persisted state
// is loaded into the store, the session registry and realtime hub are
// attached, and the router goes behind CORS and recovery middleware.
func New(cfg *config.Config) (*Server, error) {
	persist, err := store.NewPersistence(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data dir: %w", err)
	}

	logs, attendance, err := persist.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted data: %w", err)
	}

	st := store.New(cfg.Data.LogCap)
	st.Seed(logs, attendance)
	nuts.L.Infof("[Server] Loaded %d log entries, %d attendance records", len(logs), len(attendance))

	sessions, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub(sessions)
	classifier := rules.NewClassifier(cfg.Rules.Severity)
	students := roster.New(cfg.Data.FacesDir)

	svc := service.New(st, persist, sessions, classifier, hub, students, cfg.Auth)
	hub.SetController(svc)

	router := api.NewRouter(svc, sessions, hub)

	handler := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.CorsOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Session-Id"}),
	)(handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
	)(requestLogger(router)))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:   cfg,
		srv:      srv,
		service:  svc,
		sessions: sessions,
		hub:      hub,
	}, nil
}

func newSessionStore(cfg *config.Config) (session.Store, error) {
	if cfg.Auth.Store == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rs, err := session.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Auth.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect session store: %w", err)
		}
		nuts.L.Infof("[Server] Sessions backed by redis at %s", cfg.Redis.Addr)
		return rs, nil
	}
	return session.NewMemoryStore(cfg.Auth.SessionTTL), nil
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan struct{})
	go s.saveLoop(stop)
	go s.sweepLoop(stop)

	go func() {
		logs, attendance := s.service.Counts()
		nuts.L.Infof("[Server] Listening on %s", s.srv.Addr)
		nuts.L.Infof("[Server] Data dir %s, %d logs, %d attendance, LED %s",
			s.config.Data.Dir, logs, attendance, s.service.Led().Color)
		nuts.L.Infof("[Server] Operator login: %s / ********", s.config.Auth.AdminUser)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	err := s.waitForShutdown()
	close(stop)
	return err
}

// saveLoop mirrors the store to disk on a fixed interval. Mutations
// already save synchronously; this catches anything that slipped.
func (s *Server) saveLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.config.Data.SaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.service.SaveNow()
		case <-stop:
			return
		}
	}
}

// sweepLoop evicts expired sessions so an idle registry does not grow
// with every abandoned login.
func (s *Server) sweepLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.config.Auth.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			removed, err := s.sessions.Sweep(context.Background())
			if err != nil {
				nuts.L.Warnf("[Server] Session sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				nuts.L.Infof("[Server] Swept %d expired sessions", removed)
			}
		case <-stop:
			return
		}
	}
}

// waitForShutdown blocks on SIGINT/SIGTERM, then closes the realtime
// hub, takes a final snapshot and drains the HTTP server.
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down...")

	s.hub.CloseAll()
	s.service.SaveNow()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	nuts.L.Errorf("[Server] Panic recovered: %v", v)
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Websocket upgrades need the raw ResponseWriter (Hijacker).
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		nuts.L.Debugf("[HTTP] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
