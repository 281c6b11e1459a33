package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"classhub/internal/models"
)

// Store owns every mutable collection and domain singleton of the hub:
// the capped event log, the append-only attendance log, the LED state
// and the current environment reading. The original process was
// single-threaded; here one coarse mutex gives the same all-or-nothing
// visibility to concurrent handlers. The lock is never held across I/O.
type Store struct {
	mu         sync.Mutex
	logs       []models.LogEntry // newest first
	attendance []models.AttendanceRecord
	led        models.LedStatus
	env        models.EnvReading
	logCap     int
}

// LogFilter narrows and pages the log listing.
type LogFilter struct {
	Page   int    `schema:"page"`
	Limit  int    `schema:"limit"`
	Kind   string `schema:"type"`
	Search string `schema:"search"`
}

// LogPage is one page of filtered log entries.
type LogPage struct {
	Logs       []models.LogEntry `json:"logs"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

// StatsSnapshot aggregates the counters the dashboard renders.
type StatsSnapshot struct {
	TotalLogs       int              `json:"total_logs"`
	TotalAttendance int              `json:"total_attendance"`
	StudentsToday   int              `json:"students_today"`
	AttendanceToday int              `json:"attendance_today"`
	ViolationsToday int              `json:"violations_today"`
	ViolationTypes  map[string]int   `json:"violation_types"`
	CurrentTemp     models.JSONFloat `json:"current_temp"`
	CurrentHum      models.JSONFloat `json:"current_hum"`
	LedStatus       string           `json:"led_status"`
}

// New creates an empty store. logCap bounds the event log; insertions
// beyond it evict the oldest entry.
func New(logCap int) *Store {
	return &Store{
		logCap: logCap,
		led:    models.LedStatus{Color: "off", UpdatedAt: time.Now()},
		env:    models.EnvReading{Temperature: 25.0, Humidity: 60.0},
	}
}

// Seed replaces both collections with previously persisted records.
// Called once at startup, before any handler runs.
func (s *Store) Seed(logs []models.LogEntry, attendance []models.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = logs
	s.attendance = attendance
}

// AppendLog assigns the next sequential ID, prepends the entry and
// evicts the oldest entry once the cap is exceeded. Returns the stored
// entry.
func (s *Store) AppendLog(entry models.LogEntry) models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = len(s.logs) + 1
	s.logs = append([]models.LogEntry{entry}, s.logs...)
	if len(s.logs) > s.logCap {
		s.logs = s.logs[:s.logCap]
	}
	return entry
}

// SetEnv replaces the environment singleton.
func (s *Store) SetEnv(temp, hum models.JSONFloat) models.EnvReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = models.EnvReading{Temperature: temp, Humidity: hum}
	return s.env
}

// Env returns the current environment reading.
func (s *Store) Env() models.EnvReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}

// SetLed replaces the LED singleton and stamps the change time.
func (s *Store) SetLed(color string) models.LedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.led = models.LedStatus{Color: color, UpdatedAt: time.Now()}
	return s.led
}

// Led returns the current LED state.
func (s *Store) Led() models.LedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.led
}

// HasViolationToday reports whether a log entry with the exact same
// subject and violation type string exists for the given UTC day.
func (s *Store) HasViolationToday(name, violationType, day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.logs {
		if entry.Name == name && entry.Kind == violationType && models.DayOf(entry.Timestamp) == day {
			return true
		}
	}
	return false
}

// HasAttendanceToday reports whether the subject already checked in on
// the given UTC day.
func (s *Store) HasAttendanceToday(name, day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.attendance {
		if record.Name == name && models.DayOf(record.Timestamp) == day {
			return true
		}
	}
	return false
}

// AppendAttendance assigns the next sequential ID and appends the
// record. The attendance log is append-only and uncapped.
func (s *Store) AppendAttendance(record models.AttendanceRecord) models.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = len(s.attendance) + 1
	s.attendance = append(s.attendance, record)
	return record
}

// Logs returns one page of entries matching the filter. Pages are
// 1-indexed; out-of-range pages yield an empty slice, not an error.
func (s *Store) Logs(filter LogFilter) LogPage {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]models.LogEntry, 0, len(s.logs))
	search := strings.ToLower(filter.Search)
	for _, entry := range s.logs {
		if filter.Kind != "" && filter.Kind != "all" && entry.Kind != filter.Kind {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(entry.Message), search) &&
			!strings.Contains(strings.ToLower(entry.Name), search) {
			continue
		}
		filtered = append(filtered, entry)
	}

	total := len(filtered)
	totalPages := (total + filter.Limit - 1) / filter.Limit
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return LogPage{
		Logs:       filtered[start:end],
		Total:      total,
		Page:       filter.Page,
		TotalPages: totalPages,
	}
}

// LastAlert returns the most recent entry that is neither an
// environment reading nor an LED change, or nil when none exists.
func (s *Store) LastAlert() *models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.logs {
		if entry.Kind != models.KindEnv && entry.Kind != models.KindLEDControl {
			alert := entry
			return &alert
		}
	}
	return nil
}

// AttendanceForDay returns the check-ins recorded on the given UTC day,
// in insertion order.
func (s *Store) AttendanceForDay(day string) []models.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]models.AttendanceRecord, 0)
	for _, record := range s.attendance {
		if models.DayOf(record.Timestamp) == day {
			records = append(records, record)
		}
	}
	return records
}

// Stats computes the dashboard counters for the given UTC day.
func (s *Store) Stats(day string) StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	attendanceToday := 0
	seen := make(map[string]bool)
	for _, record := range s.attendance {
		if models.DayOf(record.Timestamp) == day {
			attendanceToday++
			seen[record.Name] = true
		}
	}

	violationsToday := 0
	violationTypes := make(map[string]int)
	for _, entry := range s.logs {
		if entry.Kind == models.KindEnv || entry.Kind == models.KindLEDControl {
			continue
		}
		if models.DayOf(entry.Timestamp) != day {
			continue
		}
		violationsToday++
		violationTypes[entry.Kind]++
	}

	return StatsSnapshot{
		TotalLogs:       len(s.logs),
		TotalAttendance: len(s.attendance),
		StudentsToday:   len(seen),
		AttendanceToday: attendanceToday,
		ViolationsToday: violationsToday,
		ViolationTypes:  violationTypes,
		CurrentTemp:     s.env.Temperature,
		CurrentHum:      s.env.Humidity,
		LedStatus:       s.led.Color,
	}
}

// Counts returns the sizes of both collections.
func (s *Store) Counts() (logs, attendance int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs), len(s.attendance)
}

// ResetLogs clears the event log and returns the number of cleared
// entries.
func (s *Store) ResetLogs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := len(s.logs)
	s.logs = nil
	return cleared
}

// ResetAttendance clears the attendance log and returns the number of
// cleared records.
func (s *Store) ResetAttendance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := len(s.attendance)
	s.attendance = nil
	return cleared
}

// Snapshot copies both collections for persistence or export. The
// copies are safe to serialize outside the lock.
func (s *Store) Snapshot() ([]models.LogEntry, []models.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := make([]models.LogEntry, len(s.logs))
	copy(logs, s.logs)
	attendance := make([]models.AttendanceRecord, len(s.attendance))
	copy(attendance, s.attendance)
	return logs, attendance
}

// GroupByHour buckets attendance records by the hour-of-day fragment of
// their timestamp, with bucket keys like "07". Hours are sorted within
// the map's natural iteration by the caller if needed.
func GroupByHour(records []models.AttendanceRecord) map[string][]models.AttendanceRecord {
	byHour := make(map[string][]models.AttendanceRecord)
	for _, record := range records {
		hour := hourOf(record.Timestamp)
		byHour[hour] = append(byHour[hour], record)
	}
	return byHour
}

func hourOf(timestamp string) string {
	if idx := strings.IndexByte(timestamp, 'T'); idx >= 0 && len(timestamp) >= idx+3 {
		return timestamp[idx+1 : idx+3]
	}
	return ""
}

// Hours returns the sorted bucket keys of a GroupByHour result.
func Hours(byHour map[string][]models.AttendanceRecord) []string {
	hours := make([]string, 0, len(byHour))
	for hour := range byHour {
		hours = append(hours, hour)
	}
	sort.Strings(hours)
	return hours
}
