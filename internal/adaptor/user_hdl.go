package adaptor

import (
	"net/http"

	"marketplace-auth/internal/dto/request"
	"marketplace-auth/internal/usecase"
	"marketplace-auth/pkg/utils"

	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	errs    *errorWriter
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, errs *errorWriter, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		errs:    errs,
		log:     log,
	}
}

// GetProfile handles GET /api/auth/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context (set by auth middleware)
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.errs.write(w, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", map[string]any{"user": profile})
}

// UpdateProfile handles PUT /api/auth/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if req.IsEmpty() {
		utils.ResponseBadRequest(w, "No fields to update", nil)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		h.errs.write(w, err, "update profile")
		return
	}

	utils.ResponseSuccess(w, "Profile updated successfully", map[string]any{"user": profile})
}
