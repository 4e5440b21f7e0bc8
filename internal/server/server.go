package server

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/strefethen/soundtouch-hub-go/internal/api"
	"github.com/strefethen/soundtouch-hub-go/internal/auth"
	"github.com/strefethen/soundtouch-hub-go/internal/config"
	"github.com/strefethen/soundtouch-hub-go/internal/openapi"
	"github.com/strefethen/soundtouch-hub-go/internal/system"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch"
)

// DeviceSource is the set of watched devices. *hub.Hub implements it.
type DeviceSource interface {
	Devices() []*soundtouch.Device
	Device(id string) (*soundtouch.Device, bool)
}

// responseWriter captures the status code for the request log.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func requestLoggerMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			logger.Printf("%s %s %d %s", r.Method, r.URL.Path, wrapped.status, time.Since(start).Round(time.Millisecond))
		})
	}
}

// NewHandler builds the hub HTTP API. mqttConnected is nil when no broker
// is configured.
func NewHandler(cfg config.Config, devices DeviceSource, mqttConnected func() bool, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	timeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(requestLoggerMiddleware(logger))
	router.Use(api.RequestIDMiddleware)
	router.Use(api.Recoverer(logger))
	router.Use(auth.Middleware(cfg.JWTSecret))
	router.NotFound(api.NotFound.ServeHTTP)
	router.MethodNotAllowed(api.MethodNotAllowed.ServeHTTP)

	registerHealthRoutes(router, devices)
	registerDeviceRoutes(router, devices, timeout)
	system.RegisterRoutes(router, system.NewService(devices, mqttConnected, cfg.ResyncSchedule))
	openapi.RegisterRoutes(router)

	return router
}

func registerHealthRoutes(router chi.Router, devices DeviceSource) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, _ *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"service":   "soundtouch-hub",
			"devices":   len(devices.Devices()),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}))
	router.Method(http.MethodGet, "/v1/health/live", api.Handler(func(w http.ResponseWriter, _ *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}))
	router.Method(http.MethodGet, "/v1/health/ready", api.Handler(func(w http.ResponseWriter, _ *http.Request) error {
		if len(devices.Devices()) == 0 {
			return api.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "no_devices"})
		}
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}))
}
