package middleware

import (
	"net/http"

	"ticket-booking/pkg/utils"

	"github.com/go-chi/cors"
)

// CORS lets the browser storefront, served from another origin, call the
// API with a bearer token. Origins come from CORS_ALLOWED_ORIGINS.
func CORS(config utils.CORSConfig) func(http.Handler) http.Handler {
	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	})
}
