package adaptor

import (
	"net/http"

	"marketplace-auth/internal/dto/request"
	"marketplace-auth/internal/usecase"
	"marketplace-auth/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	errs    *errorWriter
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, errs *errorWriter, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		errs:    errs,
		log:     log,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	response, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.errs.write(w, err, "register")
		return
	}

	utils.ResponseCreated(w, "Registration successful", response)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	response, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.errs.write(w, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", response)
}

// GoogleLogin handles POST /api/auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req request.FederatedLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if req.Credential == "" {
		utils.ResponseBadRequest(w, "No credential provided", nil)
		return
	}

	response, err := h.service.FederatedLogin(r.Context(), &req)
	if err != nil {
		h.errs.write(w, err, "federated login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", response)
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), &req); err != nil {
		h.errs.write(w, err, "request password reset")
		return
	}

	utils.ResponseSuccess(w, "Reset code sent to email", nil)
}

// VerifyResetCode handles POST /api/auth/verify-reset-code
func (h *AuthHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyResetCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.VerifyResetCode(r.Context(), &req); err != nil {
		h.errs.write(w, err, "verify reset code")
		return
	}

	utils.ResponseSuccess(w, "Reset code verified", nil)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		h.errs.write(w, err, "reset password")
		return
	}

	utils.ResponseSuccess(w, "Password reset successful", nil)
}
