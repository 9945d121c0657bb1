package wire

import (
	"marketplace-auth/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireAuth registers the public credential endpoints.
func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler) {
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/google", authHandler.GoogleLogin)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Post("/verify-reset-code", authHandler.VerifyResetCode)
	r.Post("/reset-password", authHandler.ResetPassword)
}
