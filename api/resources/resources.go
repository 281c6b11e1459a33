// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"classhub/internal/errors"
	"classhub/internal/service"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Auth   *AuthHandlers
	Ingest *IngestHandlers
	Device *DeviceHandlers
	Admin  *AdminHandlers
}

// NewResources creates a new Resources instance
func NewResources(svc *service.Service) *Resources {
	return &Resources{
		Auth:   &AuthHandlers{service: svc},
		Ingest: &IngestHandlers{service: svc},
		Device: &DeviceHandlers{service: svc},
		Admin:  &AdminHandlers{service: svc},
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		nuts.L.Errorf("[API] Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %v", err)
	}
	respondWithJSON(w, err.Code, err)
}
