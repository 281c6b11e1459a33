package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"classhub/api/middleware"
	"classhub/api/resources"
	"classhub/internal/realtime"
	"classhub/internal/service"
	"classhub/internal/session"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.SessionMiddleware
	resources *resources.Resources
	hub       *realtime.Hub
}

func NewRouter(svc *service.Service, sessions session.Store, hub *realtime.Hub) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewSessionMiddleware(sessions),
		resources: resources.NewResources(svc),
		hub:       hub,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Device and ingest routes are unauthenticated; the ESP and the AI
	// pipeline sit on the classroom network and carry no credentials.
	r.router.HandleFunc("/api/login", r.resources.Auth.Login).Methods(http.MethodPost)
	r.router.HandleFunc("/api/auth/check", r.resources.Auth.CheckAuth).Methods(http.MethodGet)

	r.router.HandleFunc("/api/env", r.resources.Ingest.SubmitEnv).Methods(http.MethodPost)
	r.router.HandleFunc("/api/report", r.resources.Ingest.SubmitReport).Methods(http.MethodPost)
	r.router.HandleFunc("/api/attendance", r.resources.Ingest.SubmitAttendance).Methods(http.MethodPost)

	r.router.HandleFunc("/api/esp/led", r.resources.Device.GetLed).Methods(http.MethodGet)
	r.router.HandleFunc("/api/esp/last-alert", r.resources.Device.GetLastAlert).Methods(http.MethodGet)
	r.router.HandleFunc("/api/esp/health", r.resources.Device.GetHealth).Methods(http.MethodGet)
	r.router.HandleFunc("/api/test", r.resources.Device.Test).Methods(http.MethodGet)
	r.router.HandleFunc("/health", r.resources.Device.Health).Methods(http.MethodGet)

	r.router.HandleFunc("/ws", r.hub.HandleSocket)

	// Operator routes require a live session token.
	protected := r.router.PathPrefix("/api").Subrouter()
	protected.Use(r.auth.Authenticate)

	protected.HandleFunc("/logout", r.resources.Auth.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/iot/led", r.resources.Admin.SetLed).Methods(http.MethodPost)
	protected.HandleFunc("/iot/led/status", r.resources.Admin.GetLedStatus).Methods(http.MethodGet)
	protected.HandleFunc("/logs", r.resources.Admin.GetLogs).Methods(http.MethodGet)
	protected.HandleFunc("/attendance/list", r.resources.Admin.GetAttendance).Methods(http.MethodGet)
	protected.HandleFunc("/students", r.resources.Admin.GetStudents).Methods(http.MethodGet)
	protected.HandleFunc("/stats", r.resources.Admin.GetStats).Methods(http.MethodGet)
	protected.HandleFunc("/reset", r.resources.Admin.Reset).Methods(http.MethodPost)
	protected.HandleFunc("/export", r.resources.Admin.Export).Methods(http.MethodGet)

	r.router.NotFoundHandler = http.HandlerFunc(notFound)
}

func notFound(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error":  "Not found",
		"path":   req.URL.Path,
		"method": req.Method,
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
