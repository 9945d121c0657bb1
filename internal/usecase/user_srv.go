package usecase

import (
	"context"
	"errors"
	"strings"

	"marketplace-auth/internal/data/repository"
	"marketplace-auth/internal/dto/request"
	"marketplace-auth/internal/dto/response"
	"marketplace-auth/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService serves the authenticated user's own profile. userID is the
// subject of an already verified session token.
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, serverError("PROFILE_LOOKUP_FAILED", "find user by id", err)
	}
	if user == nil {
		return nil, notFoundError(MsgUserNotFound)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (resp *response.UserResponse, err error) {
	defer func() { recordOutcome(OpUpdateProfile, err) }()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Update profile validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))
		return nil, validationError(errs)
	}

	// Only supplied fields are overwritten
	patch := repository.UserPatch{
		Name:     trimmed(req.Name),
		Phone:    req.Phone,
		Address:  req.Address,
		Location: req.Location,
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		patch.Email = &email
	}

	user, err := us.userRepo.Update(ctx, userID, patch, nil)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, notFoundError(MsgUserNotFound)
	case errors.Is(err, repository.ErrDuplicateEmail):
		us.log.Warn("Update profile rejected - email taken", zap.String("user_id", userID.String()))
		return nil, conflictError(MsgEmailTaken, err)
	case err != nil:
		us.log.Error("Failed to update profile", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, serverError("PROFILE_UPDATE_FAILED", "update user", err)
	}

	us.log.Info("Profile updated", zap.String("user_id", userID.String()))

	updated := response.UserToResponse(user)
	return &updated, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
