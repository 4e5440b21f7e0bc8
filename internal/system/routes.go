package system

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/soundtouch-hub-go/internal/api"
)

// RegisterRoutes wires system routes to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/system/info", api.Handler(func(w http.ResponseWriter, _ *http.Request) error {
		return api.WriteResource(w, service.GetSystemInfo())
	}))
}
