package api

import (
	"net/http"
	"time"

	respond "github.com/ILara-wd/firebase-remote-config/internal/api/respond"
)

// ProjectInfo is what /api/project-info reports about the bound credential.
type ProjectInfo struct {
	ProjectID   string `json:"projectId"`
	ClientEmail string `json:"clientEmail"`
}

// HealthHandler handles the liveness and project info endpoints.
type HealthHandler struct {
	service string
	info    ProjectInfo
	// vendorUp reports the last background vendor probe; nil means not monitored.
	vendorUp func() bool
}

func NewHealthHandler(service string, info ProjectInfo, vendorUp func() bool) *HealthHandler {
	return &HealthHandler{service: service, info: info, vendorUp: vendorUp}
}

// CheckHealth handles GET /health
// Always returns 200 with status "ok"; the vendor field carries the probe result.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	vendor := "unknown"
	if h.vendorUp != nil {
		vendor = "down"
		if h.vendorUp() {
			vendor = "up"
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"service":   h.service,
		"vendor":    vendor,
	})
}

// ProjectInfo handles GET /api/project-info
func (h *HealthHandler) ProjectInfo(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"projectId":   h.info.ProjectID,
		"clientEmail": h.info.ClientEmail,
		"status":      "connected",
	})
}
