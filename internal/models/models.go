package models

import (
	"bytes"
	"math"
	"strconv"
	"time"
)

// JSONFloat is a float64 that marshals NaN as null. Devices are trusted
// and unparseable sensor values are stored as NaN rather than rejected;
// encoding/json refuses bare NaN, so the wire carries null instead.
type JSONFloat float64

func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

func (f *JSONFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = JSONFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = JSONFloat(v)
	return nil
}

// Severity is the display level attached to a log entry.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityRed   Severity = "red"
	SeverityGreen Severity = "green"
)

// Reserved log entry kinds. Any other kind is a violation type string
// supplied by the AI pipeline.
const (
	KindEnv        = "env"
	KindLEDControl = "led_control"
)

// LogEntry is one recorded system event: a sensor reading, a rule
// violation or an LED change. Entries are immutable after creation.
// Timestamps are RFC3339 UTC strings; the daily de-duplication window
// is the date prefix of the string.
type LogEntry struct {
	ID          int        `json:"id"`
	Kind        string     `json:"type"`
	Level       Severity   `json:"level,omitempty"`
	Message     string     `json:"message"`
	Name        string     `json:"name,omitempty"`
	Temperature *JSONFloat `json:"temp,omitempty"`
	Humidity    *JSONFloat `json:"hum,omitempty"`
	Color       string     `json:"color,omitempty"`
	Timestamp   string     `json:"timestamp"`
}

// AttendanceRecord is one person's daily check-in.
type AttendanceRecord struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// LedStatus is the singleton indicator state.
type LedStatus struct {
	Color     string    `json:"color"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LedColors is the fixed set of accepted indicator colors.
var LedColors = map[string]bool{
	"red":    true,
	"green":  true,
	"yellow": true,
	"off":    true,
}

// EnvReading is the singleton current sensor snapshot. Values are
// replaced wholesale on each env ingestion; no bounds validation.
type EnvReading struct {
	Temperature JSONFloat `json:"temp"`
	Humidity    JSONFloat `json:"hum"`
}

// Session is a server-issued proof of a successful login.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Student is a known subject derived from the face database directory
// maintained by the AI pipeline.
type Student struct {
	Name         string    `json:"name"`
	ImageCount   int       `json:"imageCount"`
	LastModified time.Time `json:"lastModified"`
}

// Timestamp renders t in the wire format used throughout the log and
// attendance collections.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// DayOf extracts the UTC calendar day ("2006-01-02") from a wire
// timestamp. It is the de-duplication window key.
func DayOf(timestamp string) string {
	if len(timestamp) < 10 {
		return timestamp
	}
	return timestamp[:10]
}
