package api

import (
	"log"
	"net/http"

	"github.com/strefethen/soundtouch-hub-go/internal/apperrors"
)

// Handler is an http.Handler whose errors become JSON error bodies.
type Handler func(w http.ResponseWriter, r *http.Request) error

func (handler Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := handler(w, r); err != nil {
		WriteError(w, r, err)
	}
}

// Recoverer turns a panicking handler into a 500 and logs the value with
// the request id.
func Recoverer(logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.Printf("API: panic recovered on %s %s (request %s): %v", r.Method, r.URL.Path, GetRequestID(r), recovered)
					WriteError(w, r, apperrors.NewInternalError("Internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NotFound answers unknown routes with the JSON error envelope.
var NotFound = Handler(func(_ http.ResponseWriter, r *http.Request) error {
	return apperrors.NewNotFoundResource("route", r.URL.Path)
})

// MethodNotAllowed answers known routes called with the wrong verb.
var MethodNotAllowed = Handler(func(_ http.ResponseWriter, r *http.Request) error {
	return apperrors.NewAppError(apperrors.ErrorCodeValidationError,
		"Method "+r.Method+" is not allowed on "+r.URL.Path,
		http.StatusMethodNotAllowed, nil)
})
