package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-auth/internal/data/entity"
	"marketplace-auth/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// UserRepository is the credential store. Create is an atomic
// create-if-absent keyed on email; Update applies a partial patch and can be
// made conditional on the stored row.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, id uuid.UUID, patch UserPatch, cond *UpdateCondition) (*entity.User, error)
}

// ResetCodeChange sets both reset columns at once.
type ResetCodeChange struct {
	Code      string
	ExpiresAt time.Time
}

// UserPatch lists the columns to overwrite. Nil fields are left untouched.
// The reset code pair can only be set or cleared as a whole.
type UserPatch struct {
	Name         *string
	Email        *string
	Phone        *string
	Location     *string
	Address      *string
	Avatar       *string
	PasswordHash *string

	SetResetCode   *ResetCodeChange
	ClearResetCode bool
}

// UpdateCondition guards an update. When the stored row does not satisfy it
// Update returns ErrConditionFailed and nothing is written.
type UpdateCondition struct {
	// ResetCode must equal the stored code, and the stored expiry must be after ValidAt.
	ResetCode string
	ValidAt   time.Time

	// AvatarUnset requires the stored avatar to be empty.
	AvatarUnset bool
}

const userColumns = `id, name, email, phone, location, address, avatar, role,
		       password_hash, reset_code, reset_code_expires_at, created_at, updated_at`

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
	now func() time.Time
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
		now: time.Now,
	}
}

// Create inserts a new user unless the email is already taken.
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	user.Email = normalizeEmail(user.Email)

	query := `
		INSERT INTO users (id, name, email, phone, location, address, avatar, role,
		                   password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (email) DO NOTHING
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.Location,
		user.Address,
		user.Avatar,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	if result.RowsAffected() == 0 {
		return ErrDuplicateEmail
	}

	return nil
}

// FindByID returns nil, nil when no user has the id.
func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(ur.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return user, nil
}

// FindByEmail returns nil, nil when no user has the email.
func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(ur.db.QueryRow(ctx, query, normalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find user by email %s: %w", email, err)
	}

	return user, nil
}

// Update applies patch in a single statement and returns the stored row.
func (ur *userRepository) Update(ctx context.Context, id uuid.UUID, patch UserPatch, cond *UpdateCondition) (*entity.User, error) {
	query, args := buildUpdate(id, patch, cond, ur.now())

	user, err := scanUser(ur.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		if cond != nil {
			return nil, ErrConditionFailed
		}
		return nil, ErrUserNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		ur.log.Error("Failed to update user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("update user %s: %w", id.String(), err)
	}

	return user, nil
}

func buildUpdate(id uuid.UUID, patch UserPatch, cond *UpdateCondition, now time.Time) (string, []any) {
	args := []any{id}
	var sets []string

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Email != nil {
		set("email", normalizeEmail(*patch.Email))
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Address != nil {
		set("address", *patch.Address)
	}
	if patch.Avatar != nil {
		set("avatar", *patch.Avatar)
	}
	if patch.PasswordHash != nil {
		set("password_hash", *patch.PasswordHash)
	}
	switch {
	case patch.ClearResetCode:
		sets = append(sets, "reset_code = NULL", "reset_code_expires_at = NULL")
	case patch.SetResetCode != nil:
		set("reset_code", patch.SetResetCode.Code)
		set("reset_code_expires_at", patch.SetResetCode.ExpiresAt)
	}
	set("updated_at", now)

	where := []string{"id = $1"}
	if cond != nil {
		if cond.ResetCode != "" {
			args = append(args, cond.ResetCode)
			where = append(where, fmt.Sprintf("reset_code = $%d", len(args)))
			args = append(args, cond.ValidAt)
			where = append(where, fmt.Sprintf("reset_code_expires_at > $%d", len(args)))
		}
		if cond.AvatarUnset {
			where = append(where, "(avatar IS NULL OR avatar = '')")
		}
	}

	query := "UPDATE users SET " + strings.Join(sets, ", ") +
		" WHERE " + strings.Join(where, " AND ") +
		" RETURNING " + userColumns

	return query, args
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Location,
		&user.Address,
		&user.Avatar,
		&user.Role,
		&user.PasswordHash,
		&user.ResetCode,
		&user.ResetCodeExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
