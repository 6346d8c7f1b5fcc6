package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows any origin to call the wrapped routes and answers preflight
// requests for methods. Cross-origin callers authenticate with the
// Authorization header; cookies are not exposed.
func CORS(methods ...string) func(http.Handler) http.Handler {
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: methods,
		AllowedHeaders: []string{"Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag", "Retry-After", "X-Widget-Warning"},
		MaxAge:         86400,
	})
}
