package resources

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	nuts "github.com/vaudience/go-nuts"

	"classhub/internal/errors"
	"classhub/internal/models"
	"classhub/internal/service"
)

// IngestHandlers accepts submissions from the ESP and AI pipeline. No
// authentication: the devices sit on a trusted network segment.
type IngestHandlers struct {
	service *service.Service
}

// envRequest keeps temp and hum raw so an absent key (rejected) can be
// told apart from an explicit null (stored as an unknown reading).
type envRequest struct {
	Temp json.RawMessage `json:"temp"`
	Hum  json.RawMessage `json:"hum"`
}

type reportRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type attendanceRequest struct {
	Name string `json:"name"`
}

type statusResponse struct {
	Status  service.IngestStatus `json:"status"`
	Message string               `json:"message"`
	Temp    *models.JSONFloat    `json:"temp,omitempty"`
	Hum     *models.JSONFloat    `json:"hum,omitempty"`
}

// @Summary Submit environment reading
// @Description Record the current temperature and humidity from the ESP
// @Tags ingest
// @Accept json
// @Produce json
// @Param reading body envRequest true "Sensor values"
// @Success 200 {object} statusResponse
// @Failure 400 {object} errors.APIError
// @Router /api/env [post]
func (h *IngestHandlers) SubmitEnv(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req envRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.Temp == nil || req.Hum == nil {
		respondWithError(w, errors.NewValidationError("missing temp or hum", nil).WithRequestID(requestID))
		return
	}

	// Values arrive as numbers or numeric strings depending on the
	// firmware build. Non-numeric input, null included, becomes NaN and
	// is stored as such; the devices are trusted and no range check
	// applies.
	reading := h.service.SubmitEnv(models.JSONFloat(asFloat(req.Temp)), models.JSONFloat(asFloat(req.Hum)))

	respondWithJSON(w, http.StatusOK, statusResponse{
		Status:  service.StatusOK,
		Message: "reading received",
		Temp:    &reading.Temperature,
		Hum:     &reading.Humidity,
	})
}

// @Summary Submit violation report
// @Description Record a rule violation reported by the AI pipeline
// @Tags ingest
// @Accept json
// @Produce json
// @Param report body reportRequest true "Violation report"
// @Success 200 {object} statusResponse
// @Failure 400 {object} errors.APIError
// @Router /api/report [post]
func (h *IngestHandlers) SubmitReport(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.Name == "" || req.Type == "" {
		respondWithError(w, errors.NewValidationError("missing name or type", nil).WithRequestID(requestID))
		return
	}

	status, _ := h.service.SubmitViolation(req.Name, req.Type)
	message := "report received"
	if status == service.StatusAlreadyReported {
		message = req.Name + " already reported this today"
	}
	respondWithJSON(w, http.StatusOK, statusResponse{Status: status, Message: message})
}

// @Summary Submit attendance
// @Description Record a daily check-in recognized by the AI pipeline
// @Tags ingest
// @Accept json
// @Produce json
// @Param checkin body attendanceRequest true "Check-in"
// @Success 200 {object} statusResponse
// @Failure 400 {object} errors.APIError
// @Router /api/attendance [post]
func (h *IngestHandlers) SubmitAttendance(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.Name == "" {
		respondWithError(w, errors.NewValidationError("missing name", nil).WithRequestID(requestID))
		return
	}

	status, _ := h.service.SubmitAttendance(req.Name)
	message := "attendance recorded"
	if status == service.StatusAlreadyAttended {
		message = req.Name + " already checked in today"
	}
	respondWithJSON(w, http.StatusOK, statusResponse{Status: status, Message: message})
}

// asFloat mirrors JavaScript parseFloat: numbers pass through, numeric
// strings parse, anything else (null, objects, bad strings) is NaN.
func asFloat(raw json.RawMessage) float64 {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return math.NaN()
	}
	switch v := value.(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return math.NaN()
		}
		return parsed
	default:
		return math.NaN()
	}
}
