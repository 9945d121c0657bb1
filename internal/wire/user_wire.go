package wire

import (
	"marketplace-auth/internal/adaptor"
	"marketplace-auth/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser registers profile routes behind session token verification.
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	tokens middleware.TokenVerifier,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthToken(tokens, log))
		r.Get("/profile", userHandler.GetProfile)
		r.Put("/profile", userHandler.UpdateProfile)
	})
}
