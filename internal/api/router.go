package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ILara-wd/firebase-remote-config/internal/api/recovery"
	"github.com/ILara-wd/firebase-remote-config/internal/api/requestid"
	"github.com/ILara-wd/firebase-remote-config/internal/api/respond"
	"github.com/ILara-wd/firebase-remote-config/internal/services"
)

// RouterConfig carries everything the relay routes need.
type RouterConfig struct {
	ServiceName     string
	Info            ProjectInfo
	VendorUp        func() bool
	AllowedOrigins  []string
	RateLimitPerMin int
	MaxBodyBytes    int64
}

// NewRouter wires the relay routes and wraps them in the middleware chain.
func NewRouter(svc *services.TemplateService, cfg RouterConfig, log zerolog.Logger) http.Handler {
	root := mux.NewRouter()
	root.NotFoundHandler = http.HandlerFunc(notFound)
	root.MethodNotAllowedHandler = http.HandlerFunc(notFound)

	healthHandler := NewHealthHandler(cfg.ServiceName, cfg.Info, cfg.VendorUp)
	root.HandleFunc("/", index).Methods("GET")
	root.HandleFunc("/health", healthHandler.CheckHealth).Methods("GET")
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := root.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(notFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(notFound)
	api.Use(RateLimit(cfg.RateLimitPerMin))
	api.HandleFunc("/project-info", healthHandler.ProjectInfo).Methods("GET")

	tpl := NewTemplateHandler(svc, cfg.MaxBodyBytes)
	api.HandleFunc("/remote-config/template", tpl.GetTemplate).Methods("GET")
	api.HandleFunc("/remote-config/update", tpl.UpdateConfigs).Methods("POST")
	api.HandleFunc("/remote-config/publish", tpl.PublishTemplate).Methods("POST")
	api.HandleFunc("/remote-config/versions", tpl.ListVersions).Methods("GET")
	api.HandleFunc("/remote-config/rollback", tpl.Rollback).Methods("POST")

	return Chain(root,
		requestid.Middleware(log),
		recovery.Middleware(log),
		AccessLog,
		Metrics(root),
		CORS(cfg.AllowedOrigins),
	)
}

var endpoints = map[string]string{
	"GET /health":                      "Health check",
	"GET /metrics":                     "Prometheus metrics",
	"GET /api/project-info":            "Project information",
	"GET /api/remote-config/template":  "Get the active template",
	"POST /api/remote-config/update":   "Update configuration parameters",
	"POST /api/remote-config/publish":  "Publish the active template",
	"GET /api/remote-config/versions":  "List published versions",
	"POST /api/remote-config/rollback": "Roll back to a published version",
}

func index(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Firebase Remote Config Backend API",
		"version":   "1.0.0",
		"endpoints": endpoints,
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusNotFound, map[string]string{
		"error": "Endpoint not found",
		"path":  r.URL.Path,
	})
}
