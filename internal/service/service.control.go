package service

import (
	"context"
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"classhub/internal/errors"
	"classhub/internal/models"
	"classhub/internal/realtime"
	"classhub/internal/store"
)

// Stats is the dashboard counter block plus the live figures only the
// service can see.
type Stats struct {
	store.StatsSnapshot
	OnlineClients int     `json:"online_clients"`
	ServerUptime  float64 `json:"server_uptime"`
}

// ResetResult reports what a reset cleared.
type ResetResult struct {
	Reset   bool   `json:"reset"`
	Type    string `json:"type"`
	Cleared any    `json:"cleared"`
}

// Login checks the credential pair and issues a session on success.
// A wrong pair is not an error; the dashboard expects success=false.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Session, error) {
	if username != s.auth.AdminUser || password != s.auth.AdminPass {
		nuts.L.Warnf("[Control] Login failed for %q", username)
		return nil, nil
	}
	sess, err := s.sessions.Create(ctx, username)
	if err != nil {
		return nil, errors.NewInternalError("failed to create session", err)
	}
	nuts.L.Infof("[Control] %s logged in", username)
	return &sess, nil
}

// Logout revokes the token if present. Always succeeds.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		nuts.L.Warnf("[Control] Logout revoke failed: %v", err)
		return
	}
	nuts.L.Infof("[Control] Operator logged out")
}

// CheckAuth resolves a token to its session, or nil.
func (s *Service) CheckAuth(ctx context.Context, token string) (*models.Session, error) {
	return s.sessions.Validate(ctx, token)
}

// SetLED validates the color, replaces the LED state, records a
// led_control entry and broadcasts the change to every dashboard. Both
// the HTTP endpoint and the realtime control frame go through here.
func (s *Service) SetLED(username, color string) (models.LedStatus, error) {
	if !models.LedColors[color] {
		return models.LedStatus{}, errors.NewValidationError("invalid LED color", nil).
			WithDetails(map[string]string{"color": color})
	}

	previous := s.store.Led().Color
	status := s.store.SetLed(color)

	s.store.AppendLog(models.LogEntry{
		Kind:      models.KindLEDControl,
		Message:   fmt.Sprintf("LED changed to %s", color),
		Color:     color,
		Timestamp: models.Timestamp(time.Now()),
	})

	s.hub.Broadcast(realtime.EventLEDCommand, color)
	s.SaveNow()
	nuts.L.Infof("[Control] LED %s → %s by %s", previous, color, username)
	return status, nil
}

// ControlLED adapts SetLED to the realtime hub's controller interface.
func (s *Service) ControlLED(username, color string) error {
	_, err := s.SetLED(username, color)
	return err
}

// Logs returns one filtered page of the event log.
func (s *Service) Logs(filter store.LogFilter) store.LogPage {
	return s.store.Logs(filter)
}

// TodayAttendance lists today's check-ins with the hour-of-day buckets
// the dashboard chart uses.
func (s *Service) TodayAttendance() ([]models.AttendanceRecord, map[string][]models.AttendanceRecord) {
	today := models.DayOf(models.Timestamp(time.Now()))
	records := s.store.AttendanceForDay(today)
	return records, store.GroupByHour(records)
}

// Students lists known subjects from the face database directory.
func (s *Service) Students() ([]models.Student, error) {
	students, err := s.roster.Students()
	if err != nil {
		return nil, errors.NewInternalError("failed to read face database", err)
	}
	return students, nil
}

// Stats aggregates the dashboard counters for today.
func (s *Service) Stats() Stats {
	today := models.DayOf(models.Timestamp(time.Now()))
	return Stats{
		StatsSnapshot: s.store.Stats(today),
		OnlineClients: s.hub.ClientCount(),
		ServerUptime:  s.Uptime().Seconds(),
	}
}

// Reset clears the requested collection ("logs", "attendance", anything
// else clears both), persists immediately and notifies every dashboard.
func (s *Service) Reset(username, resetType string) ResetResult {
	var result ResetResult
	switch resetType {
	case "logs":
		cleared := s.store.ResetLogs()
		result = ResetResult{Reset: true, Type: "logs", Cleared: cleared}
	case "attendance":
		cleared := s.store.ResetAttendance()
		result = ResetResult{Reset: true, Type: "attendance", Cleared: cleared}
	default:
		clearedLogs := s.store.ResetLogs()
		clearedAttendance := s.store.ResetAttendance()
		result = ResetResult{
			Reset: true,
			Type:  "all",
			Cleared: map[string]int{
				"logs":       clearedLogs,
				"attendance": clearedAttendance,
			},
		}
	}

	s.SaveNow()
	s.hub.Broadcast(realtime.EventDataReset, map[string]string{"type": result.Type})
	nuts.L.Infof("[Control] Data reset (%s) by %s", result.Type, username)
	return result
}

// Export snapshots the requested collection for download. Returns the
// suggested attachment filename and the payload to serialize.
func (s *Service) Export(exportType string) (string, any) {
	today := models.DayOf(models.Timestamp(time.Now()))
	logs, attendance := s.store.Snapshot()

	switch exportType {
	case "attendance":
		return fmt.Sprintf("attendance_%s.json", today), attendance
	case "logs":
		return fmt.Sprintf("logs_%s.json", today), logs
	default:
		return fmt.Sprintf("iot_system_%s.json", today), map[string]any{
			"logs":       logs,
			"attendance": attendance,
		}
	}
}
