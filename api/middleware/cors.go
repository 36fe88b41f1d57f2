package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/seifpharma/storefront-gateway/pkg/config"
)

// CORS returns middleware applying the configured origin policy.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Visitor-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Visitor-Id", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
