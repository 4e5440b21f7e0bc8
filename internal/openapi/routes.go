package openapi

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/strefethen/soundtouch-hub-go/internal/api"
	"github.com/strefethen/soundtouch-hub-go/internal/apperrors"
)

//go:embed soundtouch-hub.v1.yaml
var specYAML []byte

// RegisterRoutes serves the API description as YAML and JSON.
func RegisterRoutes(router chi.Router) {
	router.Method(http.MethodGet, "/v1/openapi", api.Handler(serveYAML))
	router.Method(http.MethodGet, "/v1/openapi.json", api.Handler(serveJSON))
}

func serveYAML(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "text/yaml; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(specYAML)
	return nil
}

func serveJSON(w http.ResponseWriter, _ *http.Request) error {
	var parsed map[string]any
	if err := yaml.Unmarshal(specYAML, &parsed); err != nil {
		return apperrors.NewInternalError("Failed to parse OpenAPI specification")
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	return api.WriteJSON(w, http.StatusOK, parsed)
}
