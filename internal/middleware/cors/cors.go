// Package cors configures cross-origin access for the browser frontend.
package cors

import (
	"net/http"

	"github.com/rs/cors"
)

// Middleware allows the given origins to call the API with credentials.
// A single "*" origin allows any origin without credentials.
func Middleware(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 1 && origins[0] == "*"
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !allowAll,
		MaxAge:           600,
	})
	return c.Handler
}
