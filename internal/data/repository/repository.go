package repository

import (
	"errors"

	"marketplace-auth/pkg/database"

	"go.uber.org/zap"
)

var (
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrUserNotFound    = errors.New("user not found")
	ErrConditionFailed = errors.New("update condition not met")
)

type Repository struct {
	User UserRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User: NewUserRepository(db, log),
	}
}
