package usecase

import (
	"time"

	"marketplace-auth/internal/data/repository"
	"marketplace-auth/pkg/auth"
	"marketplace-auth/pkg/notify"
	"marketplace-auth/pkg/utils"

	"go.uber.org/zap"
)

// Dependencies are the credential primitives and collaborators the services
// delegate to. Clock defaults to time.Now.
type Dependencies struct {
	Hasher     auth.PasswordHasher
	Tokens     *auth.TokenIssuer
	ResetCodes *auth.ResetCodeManager
	Identities auth.IdentityVerifier
	Notifier   notify.Sender
	Clock      func() time.Time
}

type Service struct {
	Auth AuthService
	User UserService
}

func NewService(repo *repository.Repository, deps Dependencies, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Auth: NewAuthService(repo, deps, config, log),
		User: NewUserService(repo.User, log),
	}
}
