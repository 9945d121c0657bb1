package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketplace-auth/internal/data/entity"
	"marketplace-auth/internal/data/repository"
	"marketplace-auth/pkg/auth"
	"marketplace-auth/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory UserRepository with the same atomicity as the
// Postgres one: create-if-absent on email and conditional single-row updates.
type memUsers struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*entity.User
	err     error
	creates int

	// onCreate runs before the uniqueness check, outside the lock.
	onCreate func(u *entity.User)
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[uuid.UUID]*entity.User)}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

func (m *memUsers) Create(_ context.Context, user *entity.User) error {
	if m.onCreate != nil {
		hook := m.onCreate
		m.onCreate = nil
		hook(user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	user.Email = normalizeEmail(user.Email)
	for _, u := range m.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.byID[user.ID] = cloneUser(user)
	m.creates++
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	email = normalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (m *memUsers) Update(_ context.Context, id uuid.UUID, patch repository.UserPatch, cond *repository.UpdateCondition) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	u, ok := m.byID[id]
	if ok && cond != nil {
		if cond.ResetCode != "" && (u.ResetCodeValue() != cond.ResetCode ||
			u.ResetCodeExpiresAt == nil || !u.ResetCodeExpiresAt.After(cond.ValidAt)) {
			ok = false
		}
		if cond.AvatarUnset && u.HasAvatar() {
			ok = false
		}
	}
	if !ok {
		if cond != nil {
			return nil, repository.ErrConditionFailed
		}
		return nil, repository.ErrUserNotFound
	}

	if patch.Email != nil {
		for otherID, other := range m.byID {
			if otherID != id && other.Email == normalizeEmail(*patch.Email) {
				return nil, repository.ErrDuplicateEmail
			}
		}
	}

	next := cloneUser(u)
	assign := func(dst **string, v *string) {
		if v != nil {
			s := *v
			*dst = &s
		}
	}
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Email != nil {
		next.Email = normalizeEmail(*patch.Email)
	}
	assign(&next.Phone, patch.Phone)
	assign(&next.Location, patch.Location)
	assign(&next.Address, patch.Address)
	assign(&next.Avatar, patch.Avatar)
	assign(&next.PasswordHash, patch.PasswordHash)
	switch {
	case patch.ClearResetCode:
		next.ResetCode, next.ResetCodeExpiresAt = nil, nil
	case patch.SetResetCode != nil:
		code, exp := patch.SetResetCode.Code, patch.SetResetCode.ExpiresAt
		next.ResetCode, next.ResetCodeExpiresAt = &code, &exp
	}

	m.byID[id] = next
	return cloneUser(next), nil
}

func (m *memUsers) get(email string) *entity.User {
	u, _ := m.FindByEmail(context.Background(), email)
	return u
}

// recordingSender remembers the last code sent per email.
type recordingSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (s *recordingSender) SendResetCode(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[email] = code
	return nil
}

func (s *recordingSender) last(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, assertion string) (*auth.Identity, error) {
	args := m.Called(ctx, assertion)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	users    *memUsers
	sender   *recordingSender
	verifier *mockVerifier
	clock    *testClock
	tokens   *auth.TokenIssuer
	service  *Service
}

var errStoreDown = errors.New("connection refused")

func newFixture() *fixture {
	f := &fixture{
		users:    newMemUsers(),
		sender:   &recordingSender{},
		verifier: &mockVerifier{},
		clock:    &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	tokens, err := auth.NewTokenIssuer("test-secret", "marketplace-auth")
	if err != nil {
		panic(err)
	}
	f.tokens = tokens.WithClock(f.clock.Now)

	config := &utils.Config{
		JWT: utils.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "marketplace-auth",
			TokenTTL:          24 * time.Hour,
			FederatedTokenTTL: 7 * 24 * time.Hour,
		},
	}
	deps := Dependencies{
		Hasher:     auth.NewBcryptHasher(bcrypt.MinCost),
		Tokens:     f.tokens,
		ResetCodes: auth.NewResetCodeManager(time.Hour),
		Identities: f.verifier,
		Notifier:   f.sender,
		Clock:      f.clock.Now,
	}

	f.service = NewService(&repository.Repository{User: f.users}, deps, config, zap.NewNop())
	return f
}
