package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketplace-auth/internal/data/entity"
	"marketplace-auth/internal/data/repository"
	"marketplace-auth/internal/dto/request"
	"marketplace-auth/internal/dto/response"
	"marketplace-auth/pkg/auth"
	"marketplace-auth/pkg/notify"
	"marketplace-auth/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	FederatedLogin(ctx context.Context, req *request.FederatedLoginRequest) (*response.AuthResponse, error)
	RequestPasswordReset(ctx context.Context, req *request.ForgotPasswordRequest) error
	VerifyResetCode(ctx context.Context, req *request.VerifyResetCodeRequest) error
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
}

type authService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	tokens     *auth.TokenIssuer
	resetCodes *auth.ResetCodeManager
	identities auth.IdentityVerifier
	notifier   notify.Sender
	config     *utils.Config
	now        func() time.Time
	log        *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	deps Dependencies,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &authService{
		users:      repo.User,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		resetCodes: deps.ResetCodes,
		identities: deps.Identities,
		notifier:   deps.Notifier,
		config:     config,
		now:        now,
		log:        log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (resp *response.AuthResponse, err error) {
	defer func() { recordOutcome(OpRegister, err) }()

	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))
		return nil, validationError(errs)
	}

	// 2. Hash password
	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, serverError("REGISTER_HASH_FAILED", "hash password", err)
	}

	role := entity.RoleUser
	if req.Role != "" {
		role = entity.UserRole(req.Role)
	}

	// 3. Create user entity
	now := s.now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		Phone:        &req.Phone,
		Location:     optionalString(req.Location),
		Role:         role,
		PasswordHash: &hashedPassword,
	}

	// 4. Create-if-absent; the store decides uniqueness atomically
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.log.Warn("Register rejected - email taken", zap.String("email", user.Email))
			return nil, conflictError(MsgEmailTaken, err)
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", user.Email))
		return nil, serverError("REGISTER_STORE_FAILED", "create user", err)
	}

	// 5. Issue session token
	resp, err = s.issueSession(user, s.config.JWT.TokenTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (resp *response.AuthResponse, err error) {
	defer func() { recordOutcome(OpLogin, err) }()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))
		return nil, validationError(errs)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err), zap.String("email", req.Email))
		return nil, serverError("LOGIN_LOOKUP_FAILED", "find user by email", err)
	}

	// Unknown email, federated-only account and wrong password all produce
	// the same error. The first two still pay for a hash so timing matches.
	if user == nil {
		s.hasher.Verify(req.Password, "")
		s.log.Warn("Login failed - unknown email", zap.String("email", req.Email))
		return nil, authError(MsgInvalidCredentials, errors.New("unknown email"))
	}

	if !user.HasPassword() {
		s.hasher.Verify(req.Password, "")
		s.log.Warn("Login failed - account has no password", zap.String("user_id", user.ID.String()))
		return nil, authError(MsgInvalidCredentials, errors.New("federated-only account"))
	}

	if !s.hasher.Verify(req.Password, *user.PasswordHash) {
		s.log.Warn("Login failed - invalid password", zap.String("user_id", user.ID.String()))
		return nil, authError(MsgInvalidCredentials, errors.New("password mismatch"))
	}

	resp, err = s.issueSession(user, s.config.JWT.TokenTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *authService) FederatedLogin(ctx context.Context, req *request.FederatedLoginRequest) (resp *response.AuthResponse, err error) {
	defer func() { recordOutcome(OpFederatedLogin, err) }()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Federated login validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))
		return nil, validationError(errs)
	}

	// 1. Verify assertion; unverified claims are never read
	identity, err := s.identities.Verify(ctx, req.Credential)
	if err != nil {
		s.log.Warn("Federated assertion rejected", zap.Error(err))
		return nil, authError(MsgInvalidFederated, err)
	}

	// 2. Link to an existing account or provision one
	user, err := s.users.FindByEmail(ctx, identity.Email)
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err), zap.String("email", identity.Email))
		return nil, serverError("FEDERATED_LOOKUP_FAILED", "find user by email", err)
	}

	if user == nil {
		user, err = s.provisionFederatedUser(ctx, identity)
		if err != nil {
			return nil, err
		}
	} else if !user.HasAvatar() && identity.Picture != "" {
		user, err = s.backfillAvatar(ctx, user, identity.Picture)
		if err != nil {
			return nil, err
		}
	}

	// 3. Longer-lived token for federated sessions
	resp, err = s.issueSession(user, s.config.JWT.FederatedTokenTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in via federated identity",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return resp, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, req *request.ForgotPasswordRequest) (err error) {
	defer func() { recordOutcome(OpRequestReset, err) }()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Password reset request validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))
		return validationError(errs)
	}

	// 1. Find user
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find user for reset", zap.Error(err), zap.String("email", req.Email))
		return serverError("RESET_REQUEST_LOOKUP_FAILED", "find user by email", err)
	}
	if user == nil {
		return notFoundError(MsgUserNotFound)
	}

	// 2. Generate code
	code, err := s.resetCodes.Generate()
	if err != nil {
		s.log.Error("Failed to generate reset code", zap.Error(err))
		return serverError("RESET_CODE_GENERATE_FAILED", "generate reset code", err)
	}
	expiresAt := s.resetCodes.ComputeExpiry(s.now())

	// 3. Persist code and expiry together
	patch := repository.UserPatch{
		SetResetCode: &repository.ResetCodeChange{Code: code, ExpiresAt: expiresAt},
	}
	if _, err := s.users.Update(ctx, user.ID, patch, nil); err != nil {
		s.log.Error("Failed to save reset code", zap.Error(err), zap.String("user_id", user.ID.String()))
		return serverError("RESET_REQUEST_STORE_FAILED", "save reset code", err)
	}

	// 4. Dispatch. The stored code stays valid if delivery fails.
	if err := s.notifier.SendResetCode(ctx, user.Email, code); err != nil {
		s.log.Error("Failed to send reset code", zap.Error(err), zap.String("user_id", user.ID.String()))
		return serverError("RESET_CODE_DISPATCH_FAILED", "send reset code", err)
	}

	s.log.Info("Password reset requested",
		zap.String("user_id", user.ID.String()),
		zap.Time("expires_at", expiresAt))

	return nil
}

func (s *authService) VerifyResetCode(ctx context.Context, req *request.VerifyResetCodeRequest) (err error) {
	defer func() { recordOutcome(OpVerifyReset, err) }()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Verify reset code validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))
		return validationError(errs)
	}

	if _, err := s.checkResetCode(ctx, req.Email, req.Code); err != nil {
		return err
	}

	s.log.Info("Reset code verified", zap.String("email", req.Email))
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) (err error) {
	defer func() { recordOutcome(OpResetPassword, err) }()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Reset password validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))
		return validationError(errs)
	}

	// 1. Same checks as VerifyResetCode
	user, err := s.checkResetCode(ctx, req.Email, req.Code)
	if err != nil {
		return err
	}

	// 2. Hash new password
	hashedPassword, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return serverError("RESET_PASSWORD_HASH_FAILED", "hash password", err)
	}

	// 3. Write the hash and clear the code in one conditional update, keyed
	// on the code we validated. A concurrent completion loses here.
	patch := repository.UserPatch{
		PasswordHash:   &hashedPassword,
		ClearResetCode: true,
	}
	cond := &repository.UpdateCondition{
		ResetCode: user.ResetCodeValue(),
		ValidAt:   s.now(),
	}
	if _, err := s.users.Update(ctx, user.ID, patch, cond); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			s.log.Warn("Reset code consumed concurrently or expired", zap.String("user_id", user.ID.String()))
			return authError(MsgInvalidResetCode, err)
		}
		s.log.Error("Failed to reset password", zap.Error(err), zap.String("user_id", user.ID.String()))
		return serverError("RESET_PASSWORD_STORE_FAILED", "update password", err)
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

// ==================== HELPER METHODS ====================

// checkResetCode returns the user when code is the current, unexpired code
// for email. Every failure is the same auth error.
func (s *authService) checkResetCode(ctx context.Context, email, code string) (*entity.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for reset code", zap.Error(err), zap.String("email", email))
		return nil, serverError("RESET_CODE_LOOKUP_FAILED", "find user by email", err)
	}
	if user == nil {
		s.log.Warn("Reset code check failed - unknown email", zap.String("email", email))
		return nil, authError(MsgInvalidResetCode, errors.New("unknown email"))
	}

	if !s.resetCodes.Validate(user.ResetCodeValue(), user.ResetCodeExpiresAt, code, s.now()) {
		s.log.Warn("Reset code check failed", zap.String("user_id", user.ID.String()))
		return nil, authError(MsgInvalidResetCode, errors.New("code missing, mismatched or expired"))
	}

	return user, nil
}

func (s *authService) provisionFederatedUser(ctx context.Context, identity *auth.Identity) (*entity.User, error) {
	now := s.now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:   displayName(identity),
		Email:  normalizeEmail(identity.Email),
		Avatar: optionalString(identity.Picture),
		Role:   entity.RoleUser,
		// no PasswordHash: the account cannot log in with a password
	}

	err := s.users.Create(ctx, user)
	if err == nil {
		s.log.Info("Provisioned federated user",
			zap.String("user_id", user.ID.String()),
			zap.String("email", user.Email))
		return user, nil
	}
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		s.log.Error("Failed to provision federated user", zap.Error(err), zap.String("email", user.Email))
		return nil, serverError("FEDERATED_PROVISION_FAILED", "create user", err)
	}

	// Lost a race with another first login for the same email; link to the winner.
	existing, err := s.users.FindByEmail(ctx, user.Email)
	if err != nil || existing == nil {
		if err == nil {
			err = errors.New("user vanished after duplicate insert")
		}
		s.log.Error("Failed to load concurrently provisioned user", zap.Error(err), zap.String("email", user.Email))
		return nil, serverError("FEDERATED_PROVISION_FAILED", "find user by email", err)
	}
	return existing, nil
}

func (s *authService) backfillAvatar(ctx context.Context, user *entity.User, picture string) (*entity.User, error) {
	patch := repository.UserPatch{Avatar: &picture}
	updated, err := s.users.Update(ctx, user.ID, patch, &repository.UpdateCondition{AvatarUnset: true})
	switch {
	case err == nil:
		s.log.Info("Backfilled avatar", zap.String("user_id", user.ID.String()))
		return updated, nil
	case errors.Is(err, repository.ErrConditionFailed):
		// someone set an avatar in the meantime; keep theirs
		return user, nil
	default:
		s.log.Error("Failed to backfill avatar", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, serverError("FEDERATED_AVATAR_FAILED", "update avatar", err)
	}
}

func (s *authService) issueSession(user *entity.User, ttl time.Duration) (*response.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID.String(), ttl)
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, serverError("TOKEN_ISSUE_FAILED", "issue token", err)
	}
	return response.AuthToResponse(user, token, expiresAt), nil
}

func displayName(identity *auth.Identity) string {
	if name := strings.TrimSpace(identity.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(identity.Email, "@")
	return local
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
