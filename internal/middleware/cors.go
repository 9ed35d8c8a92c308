// Package middleware provides the HTTP middleware of the booking API: request
// logging, CORS, body limits, admin authentication, tenant resolution and
// per-client rate limiting.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// preflightMaxAge is how long, in seconds, browsers may cache a preflight.
const preflightMaxAge = 600

// NewCORSHandler allows the booking widget and admin console origins to call
// the API. Origins are full scheme+host values without a trailing slash.
// Retry-After is exposed so the widget can back off after a 429.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         preflightMaxAge,
	})
	return c.Handler
}
