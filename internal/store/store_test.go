package store

import (
	"fmt"
	"testing"
	"time"

	"classhub/internal/models"
)

func entryAt(day, hour string, kind, name string) models.LogEntry {
	return models.LogEntry{
		Kind:      kind,
		Name:      name,
		Message:   name + ": " + kind,
		Timestamp: day + "T" + hour + ":00:00Z",
	}
}

func TestAppendLogAssignsSequentialIDsNewestFirst(t *testing.T) {
	s := New(10)
	first := s.AppendLog(models.LogEntry{Kind: "env", Message: "one"})
	second := s.AppendLog(models.LogEntry{Kind: "env", Message: "two"})

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("IDs = %d, %d, want 1, 2", first.ID, second.ID)
	}

	page := s.Logs(LogFilter{})
	if page.Logs[0].Message != "two" {
		t.Errorf("newest entry = %q, want %q", page.Logs[0].Message, "two")
	}
}

func TestAppendLogEvictsOldestAtCap(t *testing.T) {
	s := New(3)
	for i := 1; i <= 5; i++ {
		s.AppendLog(models.LogEntry{Kind: "env", Message: fmt.Sprintf("entry %d", i)})
	}

	page := s.Logs(LogFilter{})
	if page.Total != 3 {
		t.Fatalf("total = %d, want 3", page.Total)
	}
	if page.Logs[0].Message != "entry 5" || page.Logs[2].Message != "entry 3" {
		t.Errorf("kept entries %q..%q, want entry 5..entry 3",
			page.Logs[0].Message, page.Logs[2].Message)
	}
}

func TestHasViolationTodayMatchesExactTriple(t *testing.T) {
	s := New(100)
	s.AppendLog(entryAt("2026-03-02", "08", "Đồng phục", "An"))

	cases := []struct {
		name, kind, day string
		want            bool
	}{
		{"An", "Đồng phục", "2026-03-02", true},
		{"An", "Đồng phục", "2026-03-03", false},
		{"Binh", "Đồng phục", "2026-03-02", false},
		{"An", "Ngu gat", "2026-03-02", false},
	}
	for _, tc := range cases {
		if got := s.HasViolationToday(tc.name, tc.kind, tc.day); got != tc.want {
			t.Errorf("HasViolationToday(%q, %q, %q) = %v, want %v",
				tc.name, tc.kind, tc.day, got, tc.want)
		}
	}
}

func TestLogsPagination(t *testing.T) {
	s := New(200)
	for i := 0; i < 120; i++ {
		s.AppendLog(models.LogEntry{Kind: "env", Message: fmt.Sprintf("entry %d", i)})
	}

	page := s.Logs(LogFilter{Page: 3, Limit: 50})
	if page.Total != 120 {
		t.Errorf("total = %d, want 120", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("totalPages = %d, want 3", page.TotalPages)
	}
	if len(page.Logs) != 20 {
		t.Errorf("page 3 size = %d, want 20", len(page.Logs))
	}

	empty := s.Logs(LogFilter{Page: 9, Limit: 50})
	if len(empty.Logs) != 0 {
		t.Errorf("out-of-range page size = %d, want 0", len(empty.Logs))
	}
}

func TestLogsDefaultsPageAndLimit(t *testing.T) {
	s := New(200)
	for i := 0; i < 60; i++ {
		s.AppendLog(models.LogEntry{Kind: "env"})
	}

	page := s.Logs(LogFilter{})
	if page.Page != 1 {
		t.Errorf("page = %d, want 1", page.Page)
	}
	if len(page.Logs) != 50 {
		t.Errorf("default page size = %d, want 50", len(page.Logs))
	}
}

func TestLogsFilterByKindAndSearch(t *testing.T) {
	s := New(100)
	s.AppendLog(entryAt("2026-03-02", "08", "Ngu gat", "An"))
	s.AppendLog(entryAt("2026-03-02", "08", "Đồng phục", "Binh"))
	s.AppendLog(models.LogEntry{Kind: "env", Message: "Temperature: 25.0°C"})

	byKind := s.Logs(LogFilter{Kind: "Ngu gat"})
	if byKind.Total != 1 || byKind.Logs[0].Name != "An" {
		t.Errorf("kind filter got %d entries", byKind.Total)
	}

	all := s.Logs(LogFilter{Kind: "all"})
	if all.Total != 3 {
		t.Errorf("kind=all got %d entries, want 3", all.Total)
	}

	// Search is case-insensitive over message and name.
	bySearch := s.Logs(LogFilter{Search: "binh"})
	if bySearch.Total != 1 || bySearch.Logs[0].Name != "Binh" {
		t.Errorf("search filter got %d entries", bySearch.Total)
	}
}

func TestLastAlertSkipsEnvAndLedEntries(t *testing.T) {
	s := New(100)
	if s.LastAlert() != nil {
		t.Fatal("empty store should have no alert")
	}

	s.AppendLog(entryAt("2026-03-02", "08", "Ngu gat", "An"))
	s.AppendLog(models.LogEntry{Kind: models.KindEnv, Message: "env"})
	s.AppendLog(models.LogEntry{Kind: models.KindLEDControl, Message: "led"})

	alert := s.LastAlert()
	if alert == nil || alert.Name != "An" {
		t.Fatalf("alert = %+v, want the violation entry", alert)
	}
}

func TestAttendanceDailyDedupAndListing(t *testing.T) {
	s := New(100)
	s.AppendAttendance(models.AttendanceRecord{Name: "An", Timestamp: "2026-03-02T07:05:00Z"})
	s.AppendAttendance(models.AttendanceRecord{Name: "Binh", Timestamp: "2026-03-02T07:50:00Z"})
	s.AppendAttendance(models.AttendanceRecord{Name: "An", Timestamp: "2026-03-01T07:00:00Z"})

	if !s.HasAttendanceToday("An", "2026-03-02") {
		t.Error("expected An present on 2026-03-02")
	}
	if s.HasAttendanceToday("Chi", "2026-03-02") {
		t.Error("Chi never checked in")
	}

	records := s.AttendanceForDay("2026-03-02")
	if len(records) != 2 {
		t.Fatalf("records for day = %d, want 2", len(records))
	}
	if records[0].Name != "An" || records[1].Name != "Binh" {
		t.Errorf("records out of insertion order: %v", records)
	}
}

func TestGroupByHour(t *testing.T) {
	records := []models.AttendanceRecord{
		{Name: "An", Timestamp: "2026-03-02T07:05:00Z"},
		{Name: "Binh", Timestamp: "2026-03-02T07:50:00Z"},
		{Name: "Chi", Timestamp: "2026-03-02T08:10:00Z"},
	}

	byHour := GroupByHour(records)
	if len(byHour["07"]) != 2 || len(byHour["08"]) != 1 {
		t.Errorf("byHour = %v", byHour)
	}
	hours := Hours(byHour)
	if len(hours) != 2 || hours[0] != "07" || hours[1] != "08" {
		t.Errorf("hours = %v, want [07 08]", hours)
	}
}

func TestStatsCountsOnlyGivenDay(t *testing.T) {
	s := New(100)
	s.AppendLog(entryAt("2026-03-02", "08", "Ngu gat", "An"))
	s.AppendLog(entryAt("2026-03-02", "09", "Ngu gat", "Binh"))
	s.AppendLog(entryAt("2026-03-01", "08", "Ngu gat", "An"))
	s.AppendLog(models.LogEntry{Kind: models.KindEnv, Timestamp: "2026-03-02T08:00:00Z"})
	s.AppendAttendance(models.AttendanceRecord{Name: "An", Timestamp: "2026-03-02T07:05:00Z"})
	s.AppendAttendance(models.AttendanceRecord{Name: "An", Timestamp: "2026-03-01T07:05:00Z"})

	stats := s.Stats("2026-03-02")
	if stats.ViolationsToday != 2 {
		t.Errorf("violationsToday = %d, want 2", stats.ViolationsToday)
	}
	if stats.ViolationTypes["Ngu gat"] != 2 {
		t.Errorf("violationTypes = %v", stats.ViolationTypes)
	}
	if stats.AttendanceToday != 1 || stats.StudentsToday != 1 {
		t.Errorf("attendanceToday = %d, studentsToday = %d", stats.AttendanceToday, stats.StudentsToday)
	}
	if stats.TotalLogs != 4 || stats.TotalAttendance != 2 {
		t.Errorf("totals = %d logs, %d attendance", stats.TotalLogs, stats.TotalAttendance)
	}
}

func TestResetReturnsClearedCounts(t *testing.T) {
	s := New(100)
	s.AppendLog(models.LogEntry{Kind: "env"})
	s.AppendLog(models.LogEntry{Kind: "env"})
	s.AppendAttendance(models.AttendanceRecord{Name: "An", Timestamp: models.Timestamp(time.Now())})

	if cleared := s.ResetLogs(); cleared != 2 {
		t.Errorf("ResetLogs = %d, want 2", cleared)
	}
	if cleared := s.ResetAttendance(); cleared != 1 {
		t.Errorf("ResetAttendance = %d, want 1", cleared)
	}

	logs, attendance := s.Counts()
	if logs != 0 || attendance != 0 {
		t.Errorf("counts after reset = %d, %d", logs, attendance)
	}

	// IDs restart after a reset.
	if entry := s.AppendLog(models.LogEntry{Kind: "env"}); entry.ID != 1 {
		t.Errorf("first ID after reset = %d, want 1", entry.ID)
	}
}
