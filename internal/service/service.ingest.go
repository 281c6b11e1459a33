package service

import (
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"classhub/internal/models"
	"classhub/internal/realtime"
)

// IngestStatus distinguishes accepted submissions from business-rule
// rejections. Rejections are not errors: the device gets HTTP 200 with
// the status field set.
type IngestStatus string

const (
	StatusOK              IngestStatus = "ok"
	StatusAlreadyReported IngestStatus = "already_reported"
	StatusAlreadyAttended IngestStatus = "already_attended"
)

// SensorData is the payload broadcast on every environment submission.
type SensorData struct {
	Temp      models.JSONFloat `json:"temp"`
	Hum       models.JSONFloat `json:"hum"`
	Timestamp string           `json:"timestamp"`
}

// AttendanceEvent is the payload broadcast on every accepted check-in.
type AttendanceEvent struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// SubmitEnv replaces the environment singleton, records an env log
// entry and fans the reading out to connected dashboards. Values are
// stored as given; the devices are trusted and no range check applies.
func (s *Service) SubmitEnv(temp, hum models.JSONFloat) models.EnvReading {
	reading := s.store.SetEnv(temp, hum)

	t, h := reading.Temperature, reading.Humidity
	entry := s.store.AppendLog(models.LogEntry{
		Kind:        models.KindEnv,
		Message:     fmt.Sprintf("Temperature: %.1f°C, Humidity: %.1f%%", t, h),
		Temperature: &t,
		Humidity:    &h,
		Timestamp:   models.Timestamp(time.Now()),
	})

	s.hub.Broadcast(realtime.EventSensorData, SensorData{
		Temp:      t,
		Hum:       h,
		Timestamp: entry.Timestamp,
	})

	s.SaveNow()
	nuts.L.Infof("[Ingest] Environment: %.1f°C / %.1f%%", t, h)
	return reading
}

// SubmitViolation classifies the report, applies the per-subject-per-day
// rule for de-duplicated types and records the entry. A duplicate
// returns StatusAlreadyReported and leaves the log untouched.
func (s *Service) SubmitViolation(name, violationType string) (IngestStatus, *models.LogEntry) {
	level, dailyDedup := s.classifier.Classify(violationType)

	now := time.Now()
	if dailyDedup {
		today := models.DayOf(models.Timestamp(now))
		if s.store.HasViolationToday(name, violationType, today) {
			nuts.L.Infof("[Ingest] %s already reported %q today", name, violationType)
			return StatusAlreadyReported, nil
		}
	}

	entry := s.store.AppendLog(models.LogEntry{
		Kind:      violationType,
		Level:     level,
		Message:   fmt.Sprintf("%s: %s", name, violationType),
		Name:      name,
		Timestamp: models.Timestamp(now),
	})

	s.hub.Broadcast(realtime.EventViolation, entry)
	s.SaveNow()
	nuts.L.Infof("[Ingest] Violation: %s - %s (%s)", name, violationType, level)
	return StatusOK, &entry
}

// SubmitAttendance records a check-in at most once per subject per UTC
// day. A duplicate returns StatusAlreadyAttended and changes nothing.
func (s *Service) SubmitAttendance(name string) (IngestStatus, *models.AttendanceRecord) {
	now := time.Now()
	today := models.DayOf(models.Timestamp(now))
	if s.store.HasAttendanceToday(name, today) {
		nuts.L.Infof("[Ingest] %s already checked in today", name)
		return StatusAlreadyAttended, nil
	}

	record := s.store.AppendAttendance(models.AttendanceRecord{
		Name:      name,
		Timestamp: models.Timestamp(now),
	})

	s.hub.Broadcast(realtime.EventAttendance, AttendanceEvent{
		Name:      record.Name,
		Timestamp: record.Timestamp,
	})

	s.SaveNow()
	nuts.L.Infof("[Ingest] Attendance: %s", name)
	return StatusOK, &record
}
