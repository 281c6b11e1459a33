package service

import (
	"time"

	nuts "github.com/vaudience/go-nuts"

	"classhub/internal/config"
	"classhub/internal/models"
	"classhub/internal/realtime"
	"classhub/internal/roster"
	"classhub/internal/rules"
	"classhub/internal/session"
	"classhub/internal/store"
)

// Broadcaster is what the service needs from the realtime layer.
type Broadcaster interface {
	Broadcast(event string, data any)
	ClientCount() int
}

// Service wires the store, the persistence mirror, the session
// registry, the rule classifier and the realtime broadcaster into the
// hub's operations. Handlers stay thin; every business rule lives here.
type Service struct {
	store      *store.Store
	persist    *store.Persistence
	sessions   session.Store
	classifier *rules.Classifier
	hub        Broadcaster
	roster     *roster.Roster
	auth       config.AuthConfig
	startedAt  time.Time
}

// New creates the service. The broadcaster may be attached to the same
// hub that routes inbound control frames back into this service.
func New(
	st *store.Store,
	persist *store.Persistence,
	sessions session.Store,
	classifier *rules.Classifier,
	hub Broadcaster,
	students *roster.Roster,
	auth config.AuthConfig,
) *Service {
	return &Service{
		store:      st,
		persist:    persist,
		sessions:   sessions,
		classifier: classifier,
		hub:        hub,
		roster:     students,
		auth:       auth,
		startedAt:  time.Now(),
	}
}

// Uptime reports how long the hub has been running.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.startedAt)
}

// Env returns the current environment reading.
func (s *Service) Env() models.EnvReading {
	return s.store.Env()
}

// Led returns the current LED state.
func (s *Service) Led() models.LedStatus {
	return s.store.Led()
}

// Counts returns the collection sizes.
func (s *Service) Counts() (logs, attendance int) {
	return s.store.Counts()
}

// LastAlert returns the newest non-environment, non-LED log entry, or
// nil when none exists.
func (s *Service) LastAlert() *models.LogEntry {
	return s.store.LastAlert()
}

// ClientCount returns the number of connected dashboards.
func (s *Service) ClientCount() int {
	return s.hub.ClientCount()
}

// InitState builds the snapshot a dashboard receives on connect.
func (s *Service) InitState() realtime.InitState {
	env := s.store.Env()
	return realtime.InitState{
		Temp:    env.Temperature,
		Hum:     env.Humidity,
		Led:     s.store.Led().Color,
		Clients: s.hub.ClientCount(),
	}
}

// SaveNow synchronously mirrors both collections to disk. Failures are
// logged and swallowed: the in-memory state already changed, only
// durability is at risk.
func (s *Service) SaveNow() {
	logs, attendance := s.store.Snapshot()
	if err := s.persist.Save(logs, attendance); err != nil {
		nuts.L.Errorf("[Service] Snapshot save failed: %v", err)
		return
	}
	nuts.L.Debugf("[Service] Saved %d logs, %d attendance records", len(logs), len(attendance))
}
