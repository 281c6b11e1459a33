// FilePath: internal/store/persist.go
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"classhub/internal/models"
)

const (
	logsFileName       = "logs.json"
	attendanceFileName = "attendance.json"
)

// Persistence mirrors the store's collections to two JSON array files.
// The files are a one-way mirror, rewritten wholesale on every save;
// the in-memory store stays the source of truth.
type Persistence struct {
	logsFile       string
	attendanceFile string
}

// NewPersistence prepares the data directory and returns the mirror.
func NewPersistence(dataDir string) (*Persistence, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Persistence{
		logsFile:       filepath.Join(dataDir, logsFileName),
		attendanceFile: filepath.Join(dataDir, attendanceFileName),
	}, nil
}

// Load reads both files. A missing file yields an empty collection, not
// an error; a corrupt file does.
func (p *Persistence) Load() ([]models.LogEntry, []models.AttendanceRecord, error) {
	var logs []models.LogEntry
	if err := readJSONFile(p.logsFile, &logs); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", p.logsFile, err)
	}
	var attendance []models.AttendanceRecord
	if err := readJSONFile(p.attendanceFile, &attendance); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", p.attendanceFile, err)
	}
	return logs, attendance, nil
}

// Save rewrites both files from the given snapshots.
func (p *Persistence) Save(logs []models.LogEntry, attendance []models.AttendanceRecord) error {
	if logs == nil {
		logs = []models.LogEntry{}
	}
	if attendance == nil {
		attendance = []models.AttendanceRecord{}
	}
	if err := writeJSONFile(p.logsFile, logs); err != nil {
		return fmt.Errorf("save %s: %w", p.logsFile, err)
	}
	if err := writeJSONFile(p.attendanceFile, attendance); err != nil {
		return fmt.Errorf("save %s: %w", p.attendanceFile, err)
	}
	return nil
}

func readJSONFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func writeJSONFile(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	// Write-then-rename keeps a crashed save from truncating the
	// previous snapshot.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
