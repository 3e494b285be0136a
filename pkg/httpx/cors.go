package httpx

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSConfig describes what browsers may send.
type CORSConfig struct {
	// AllowedOrigins is the origin allow-list. Empty or "*" allows any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CORS answers preflight requests and decorates actual responses with the
// Access-Control-* headers. Preflights never reach next.
func CORS(cfg CORSConfig) Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		MaxAge:           cfg.MaxAge,
		AllowCredentials: false,
	})
	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
