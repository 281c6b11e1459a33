package resources

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	nuts "github.com/vaudience/go-nuts"

	"classhub/internal/models"
	"classhub/internal/service"
)

// alertDisplayLimit caps the alert text to what fits on the ESP's OLED.
const alertDisplayLimit = 32

// DeviceHandlers serves the polling endpoints the ESP firmware hits.
// Responses stay flat and small; the device parses them on a few KB of
// heap.
type DeviceHandlers struct {
	service *service.Service
}

type ledResponse struct {
	Color     string    `json:"color"`
	UpdatedAt time.Time `json:"updatedAt"`
	Status    string    `json:"status"`
}

type lastAlertResponse struct {
	Message   string `json:"message"`
	Level     string `json:"level"`
	Timestamp string `json:"timestamp,omitempty"`
	Status    string `json:"status"`
}

// @Summary Poll LED state
// @Description Current LED color for the device to apply
// @Tags device
// @Produce json
// @Success 200 {object} ledResponse
// @Router /api/esp/led [get]
func (h *DeviceHandlers) GetLed(w http.ResponseWriter, r *http.Request) {
	led := h.service.Led()
	respondWithJSON(w, http.StatusOK, ledResponse{
		Color:     led.Color,
		UpdatedAt: led.UpdatedAt,
		Status:    "ok",
	})
}

// @Summary Poll newest alert
// @Description Newest violation or attendance entry, truncated for the device display
// @Tags device
// @Produce json
// @Success 200 {object} lastAlertResponse
// @Router /api/esp/last-alert [get]
func (h *DeviceHandlers) GetLastAlert(w http.ResponseWriter, r *http.Request) {
	entry := h.service.LastAlert()
	if entry == nil {
		respondWithJSON(w, http.StatusOK, lastAlertResponse{
			Message: "No alert",
			Level:   string(models.SeverityInfo),
			Status:  "ok",
		})
		return
	}

	// Truncate by characters, not bytes: messages carry Vietnamese
	// text and a byte slice would cut mid-rune.
	message := entry.Message
	if runes := []rune(message); len(runes) > alertDisplayLimit {
		message = string(runes[:alertDisplayLimit])
	}
	respondWithJSON(w, http.StatusOK, lastAlertResponse{
		Message:   message,
		Level:     string(entry.Level),
		Timestamp: entry.Timestamp,
		Status:    "ok",
	})
}

// @Summary Device-facing health
// @Description Compact liveness summary for the ESP
// @Tags device
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/esp/health [get]
func (h *DeviceHandlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	env := h.service.Env()
	logs, _ := h.service.Counts()
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":            "online",
		"server_time":       models.Timestamp(time.Now()),
		"led_status":        h.service.Led().Color,
		"last_temp":         env.Temperature,
		"last_hum":          env.Humidity,
		"total_logs":        logs,
		"connected_clients": h.service.ClientCount(),
	})
}

// @Summary Connectivity test
// @Description Simple echo for firmware bring-up
// @Tags device
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/test [get]
func (h *DeviceHandlers) Test(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":    "Server is reachable",
		"timestamp":  models.Timestamp(time.Now()),
		"led_status": h.service.Led().Color,
	})
}

// @Summary Process health
// @Description Full process snapshot for operators and uptime monitors
// @Tags device
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *DeviceHandlers) Health(w http.ResponseWriter, r *http.Request) {
	logs, attendance := h.service.Counts()

	payload := map[string]any{
		"status":         "healthy",
		"timestamp":      models.Timestamp(time.Now()),
		"uptime_seconds": h.service.Uptime().Seconds(),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
		"counts": map[string]int{
			"logs":       logs,
			"attendance": attendance,
			"clients":    h.service.ClientCount(),
		},
		"led": h.service.Led().Color,
		"env": h.service.Env(),
	}

	if info, err := host.Info(); err == nil {
		payload["platform"] = info.Platform + " " + info.PlatformVersion
	} else {
		nuts.L.Debugf("[Device] Host info unavailable: %v", err)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		payload["system_memory"] = map[string]any{
			"total_mb":     vm.Total / 1024 / 1024,
			"used_percent": vm.UsedPercent,
		}
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := proc.MemoryInfo(); err == nil {
			payload["process_memory"] = map[string]any{
				"rss_mb": mi.RSS / 1024 / 1024,
				"vms_mb": mi.VMS / 1024 / 1024,
			}
		}
	}

	respondWithJSON(w, http.StatusOK, payload)
}
