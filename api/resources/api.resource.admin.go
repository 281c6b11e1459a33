// FilePath: api/resources/api.resource.admin.go
package resources

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"

	"classhub/api/middleware"
	"classhub/internal/errors"
	"classhub/internal/service"
	"classhub/internal/store"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// AdminHandlers serves the session-gated operator API behind the
// dashboard. Every route here runs after SessionMiddleware.
type AdminHandlers struct {
	service *service.Service
}

type ledRequest struct {
	Color string `json:"color"`
}

type ledStateResponse struct {
	OK        bool      `json:"ok"`
	Color     string    `json:"color"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type resetRequest struct {
	Type string `json:"type"`
}

type exportQuery struct {
	Type string `schema:"type"`
}

// @Summary Set LED color
// @Description Change the classroom indicator; broadcast to dashboards and picked up by the device on next poll
// @Tags admin
// @Accept json
// @Produce json
// @Param command body ledRequest true "Target color"
// @Success 200 {object} ledStateResponse
// @Failure 400 {object} errors.APIError
// @Router /api/iot/led [post]
func (h *AdminHandlers) SetLed(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req ledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	username := ""
	if sess := middleware.SessionFrom(r); sess != nil {
		username = sess.Username
	}

	status, err := h.service.SetLED(username, req.Color)
	if err != nil {
		if apiErr, ok := err.(*errors.APIError); ok {
			respondWithError(w, apiErr.WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to set LED", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, ledStateResponse{
		OK:        true,
		Color:     status.Color,
		UpdatedAt: status.UpdatedAt,
	})
}

// @Summary Current LED state
// @Tags admin
// @Produce json
// @Success 200 {object} models.LedStatus
// @Router /api/iot/led/status [get]
func (h *AdminHandlers) GetLedStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Led())
}

// @Summary Browse the event log
// @Description Paged, filtered view of the event log, newest first
// @Tags admin
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Page size"
// @Param type query string false "Entry type filter, or all"
// @Param search query string false "Substring match on message and name"
// @Success 200 {object} store.LogPage
// @Failure 400 {object} errors.APIError
// @Router /api/logs [get]
func (h *AdminHandlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	var filter store.LogFilter
	if err := queryDecoder.Decode(&filter, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err))
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.Logs(filter))
}

// @Summary Today's attendance
// @Description Today's check-ins with the per-hour buckets the chart uses
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/attendance/list [get]
func (h *AdminHandlers) GetAttendance(w http.ResponseWriter, r *http.Request) {
	records, byHour := h.service.TodayAttendance()
	respondWithJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"byHour":  byHour,
		"total":   len(records),
	})
}

// @Summary Known students
// @Description Subjects in the face database directory with image counts
// @Tags admin
// @Produce json
// @Success 200 {array} models.Student
// @Failure 500 {object} errors.APIError
// @Router /api/students [get]
func (h *AdminHandlers) GetStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.Students()
	if err != nil {
		if apiErr, ok := err.(*errors.APIError); ok {
			respondWithError(w, apiErr)
			return
		}
		respondWithError(w, errors.NewInternalError("failed to list students", err))
		return
	}
	respondWithJSON(w, http.StatusOK, students)
}

// @Summary Dashboard statistics
// @Tags admin
// @Produce json
// @Success 200 {object} service.Stats
// @Router /api/stats [get]
func (h *AdminHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Stats())
}

// @Summary Reset collections
// @Description Clear logs, attendance, or both; persists immediately
// @Tags admin
// @Accept json
// @Produce json
// @Param request body resetRequest true "What to clear"
// @Success 200 {object} service.ResetResult
// @Router /api/reset [post]
func (h *AdminHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	// An empty or malformed body means "reset everything".
	_ = json.NewDecoder(r.Body).Decode(&req)

	username := ""
	if sess := middleware.SessionFrom(r); sess != nil {
		username = sess.Username
	}

	respondWithJSON(w, http.StatusOK, h.service.Reset(username, req.Type))
}

// @Summary Export data
// @Description Download logs, attendance, or both as a pretty-printed JSON attachment
// @Tags admin
// @Produce json
// @Param type query string false "logs, attendance, or all"
// @Success 200 {object} any
// @Router /api/export [get]
func (h *AdminHandlers) Export(w http.ResponseWriter, r *http.Request) {
	var q exportQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err))
		return
	}

	filename, payload := h.service.Export(q.Type)

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to serialize export", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		nuts.L.Errorf("[Admin] Export write failed: %v", err)
	}
}
