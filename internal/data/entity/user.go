package entity

import "time"

type UserRole string

const (
	RoleUser         UserRole = "user"
	RoleProfessional UserRole = "professional"
)

type User struct {
	Base
	Name     string   `db:"name"`
	Email    string   `db:"email"`
	Phone    *string  `db:"phone"`
	Location *string  `db:"location"`
	Address  *string  `db:"address"`
	Avatar   *string  `db:"avatar"`
	Role     UserRole `db:"role"`

	// PasswordHash is nil for federated-only accounts.
	PasswordHash *string `db:"password_hash"`

	// ResetCode and ResetCodeExpiresAt are set and cleared together.
	ResetCode          *string    `db:"reset_code"`
	ResetCodeExpiresAt *time.Time `db:"reset_code_expires_at"`
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasAvatar reports whether an avatar URL is set.
func (u *User) HasAvatar() bool {
	return u.Avatar != nil && *u.Avatar != ""
}

// ResetCodeValue returns the stored reset code or "" when none is set.
func (u *User) ResetCodeValue() string {
	if u.ResetCode == nil {
		return ""
	}
	return *u.ResetCode
}
