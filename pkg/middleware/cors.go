package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS echoes any request origin and allows credentials. Preflight requests
// are answered directly with 200.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc:  func(*http.Request, string) bool { return true },
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
		MaxAge:           300,
	})
}
