package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"hrcore/internal/auth"
	"hrcore/internal/employee"
	"hrcore/internal/shared/clock"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	autherrors "hrcore/internal/auth/errors"
	employeeerrors "hrcore/internal/employee/errors"
)

const testSecret = "test-secret"

type fakeAuthRepo struct {
	byEmail       map[string]*auth.User
	byID          map[uuid.UUID]*auth.User
	created       []*auth.User
	createErr     error
	passwordCalls []struct {
		ID           uuid.UUID
		Hash         string
		IsFirstLogin bool
	}
}

func newFakeAuthRepo(users ...*auth.User) *fakeAuthRepo {
	f := &fakeAuthRepo{
		byEmail: map[string]*auth.User{},
		byID:    map[uuid.UUID]*auth.User{},
	}
	for _, u := range users {
		f.byEmail[u.Email] = u
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeAuthRepo) Create(ctx context.Context, u *auth.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, u)
	return nil
}

func (f *fakeAuthRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeAuthRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, isFirstLogin bool) error {
	f.passwordCalls = append(f.passwordCalls, struct {
		ID           uuid.UUID
		Hash         string
		IsFirstLogin bool
	}{id, hash, isFirstLogin})
	return nil
}

type memoryTokenStore struct {
	mu    sync.Mutex
	items map[string]string
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{items: map[string]string{}}
}

func (m *memoryTokenStore) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[jti] = userID
	return nil
}

func (m *memoryTokenStore) Consume(ctx context.Context, jti string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.items[jti]
	if !ok {
		return "", autherrors.ErrInvalidOrExpiredToken
	}
	delete(m.items, jti)
	return userID, nil
}

func (m *memoryTokenStore) Revoke(ctx context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, jti)
	return nil
}

type fakeEmployeeRepo struct {
	findByIDFn func(ctx context.Context, id string) (*employee.Employee, error)
}

func (f *fakeEmployeeRepo) WithTx(tx *sql.Tx) employee.Repository                  { return f }
func (f *fakeEmployeeRepo) Create(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepo) FindAll(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepo) FindAllActive(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepo) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeEmployeeRepo) Update(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepo) Deactivate(ctx context.Context, id string) error        { return nil }

func testUser(t *testing.T, password string, firstLogin bool) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)

	employeeID := uuid.New()
	return &auth.User{
		ID:           uuid.New(),
		EmployeeID:   &employeeID,
		Email:        "jane@corp.test",
		Name:         "Jane Roe",
		Password:     string(hash),
		Role:         "EMPLOYEE",
		IsFirstLogin: firstLogin,
		IsActive:     true,
	}
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	return claims
}

func newAuthService(repo auth.Repository, employees employee.Repository, tokens auth.TokenStore) auth.Service {
	return auth.NewService(repo, employees, tokens, clock.Fixed{Instant: time.Now().UTC()})
}

func TestAuthService_Login(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	ctx := context.Background()

	t.Run("issues an unrestricted session for a settled account", func(t *testing.T) {
		user := testUser(t, "Secret123!", false)
		store := newMemoryTokenStore()
		svc := newAuthService(newFakeAuthRepo(user), &fakeEmployeeRepo{}, store)

		pair, session, err := svc.Login(ctx, user.Email, "Secret123!")

		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.False(t, session.MustChangePassword)

		claims := parseClaims(t, pair.AccessToken)
		assert.Equal(t, user.ID.String(), claims["user_id"])
		assert.Equal(t, "access", claims["token_use"])
		assert.Equal(t, false, claims["pwd_change"])
	})

	t.Run("first login yields a password-change-restricted session", func(t *testing.T) {
		user := testUser(t, "Secret123!", true)
		svc := newAuthService(newFakeAuthRepo(user), &fakeEmployeeRepo{}, newMemoryTokenStore())

		pair, session, err := svc.Login(ctx, user.Email, "Secret123!")

		assert.NoError(t, err)
		assert.True(t, session.MustChangePassword)
		assert.Equal(t, true, parseClaims(t, pair.AccessToken)["pwd_change"])
	})

	t.Run("unknown email fails with invalid credentials", func(t *testing.T) {
		svc := newAuthService(newFakeAuthRepo(), &fakeEmployeeRepo{}, newMemoryTokenStore())

		_, _, err := svc.Login(ctx, "ghost@corp.test", "Secret123!")
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("wrong password fails with the same error", func(t *testing.T) {
		user := testUser(t, "Secret123!", false)
		svc := newAuthService(newFakeAuthRepo(user), &fakeEmployeeRepo{}, newMemoryTokenStore())

		_, _, err := svc.Login(ctx, user.Email, "not-the-password")
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})
}

func TestAuthService_ChangePasswordFirstLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	ctx := context.Background()

	t.Run("clears the first-login flag and issues a fresh session", func(t *testing.T) {
		user := testUser(t, "TempPass1!", true)
		repo := newFakeAuthRepo(user)
		svc := newAuthService(repo, &fakeEmployeeRepo{}, newMemoryTokenStore())

		pair, session, err := svc.ChangePasswordFirstLogin(ctx, user.ID.String(), auth.ChangePasswordRequest{
			CurrentPassword: "TempPass1!",
			NewPassword:     "Fresh#Pass9",
			ConfirmPassword: "Fresh#Pass9",
		})

		assert.NoError(t, err)
		assert.False(t, session.MustChangePassword)
		assert.Equal(t, false, parseClaims(t, pair.AccessToken)["pwd_change"])
		if assert.Len(t, repo.passwordCalls, 1) {
			assert.Equal(t, user.ID, repo.passwordCalls[0].ID)
			assert.False(t, repo.passwordCalls[0].IsFirstLogin)
			assert.NoError(t, bcrypt.CompareHashAndPassword(
				[]byte(repo.passwordCalls[0].Hash), []byte("Fresh#Pass9"),
			))
		}
	})

	t.Run("confirmation must match", func(t *testing.T) {
		user := testUser(t, "TempPass1!", true)
		svc := newAuthService(newFakeAuthRepo(user), &fakeEmployeeRepo{}, newMemoryTokenStore())

		_, _, err := svc.ChangePasswordFirstLogin(ctx, user.ID.String(), auth.ChangePasswordRequest{
			CurrentPassword: "TempPass1!",
			NewPassword:     "Fresh#Pass9",
			ConfirmPassword: "Other#Pass9",
		})
		assert.ErrorIs(t, err, autherrors.ErrPasswordMismatch)
	})

	t.Run("rejects a password below policy", func(t *testing.T) {
		user := testUser(t, "TempPass1!", true)
		svc := newAuthService(newFakeAuthRepo(user), &fakeEmployeeRepo{}, newMemoryTokenStore())

		_, _, err := svc.ChangePasswordFirstLogin(ctx, user.ID.String(), auth.ChangePasswordRequest{
			CurrentPassword: "TempPass1!",
			NewPassword:     "short1!",
			ConfirmPassword: "short1!",
		})
		assert.ErrorIs(t, err, autherrors.ErrWeakPassword)
	})

	t.Run("rejects reusing the current password", func(t *testing.T) {
		user := testUser(t, "TempPass1!", true)
		svc := newAuthService(newFakeAuthRepo(user), &fakeEmployeeRepo{}, newMemoryTokenStore())

		_, _, err := svc.ChangePasswordFirstLogin(ctx, user.ID.String(), auth.ChangePasswordRequest{
			CurrentPassword: "TempPass1!",
			NewPassword:     "TempPass1!",
			ConfirmPassword: "TempPass1!",
		})
		assert.ErrorIs(t, err, autherrors.ErrSamePassword)
	})

	t.Run("rejects a wrong current password", func(t *testing.T) {
		user := testUser(t, "TempPass1!", true)
		repo := newFakeAuthRepo(user)
		svc := newAuthService(repo, &fakeEmployeeRepo{}, newMemoryTokenStore())

		_, _, err := svc.ChangePasswordFirstLogin(ctx, user.ID.String(), auth.ChangePasswordRequest{
			CurrentPassword: "not-the-password",
			NewPassword:     "Fresh#Pass9",
			ConfirmPassword: "Fresh#Pass9",
		})
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
		assert.Empty(t, repo.passwordCalls)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	ctx := context.Background()

	t.Run("rotates the pair and consumes the presented token", func(t *testing.T) {
		user := testUser(t, "Secret123!", false)
		store := newMemoryTokenStore()
		svc := newAuthService(newFakeAuthRepo(user), &fakeEmployeeRepo{}, store)

		pair, _, err := svc.Login(ctx, user.Email, "Secret123!")
		assert.NoError(t, err)

		rotated, err := svc.Refresh(ctx, pair.RefreshToken)
		assert.NoError(t, err)
		assert.NotEmpty(t, rotated.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

		// The consumed token is single-use.
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, autherrors.ErrInvalidOrExpiredToken)
	})

	t.Run("an access token is not accepted as a refresh token", func(t *testing.T) {
		user := testUser(t, "Secret123!", false)
		svc := newAuthService(newFakeAuthRepo(user), &fakeEmployeeRepo{}, newMemoryTokenStore())

		pair, _, err := svc.Login(ctx, user.Email, "Secret123!")
		assert.NoError(t, err)

		_, err = svc.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, autherrors.ErrInvalidOrExpiredToken)
	})

	t.Run("garbage input fails", func(t *testing.T) {
		svc := newAuthService(newFakeAuthRepo(), &fakeEmployeeRepo{}, newMemoryTokenStore())

		_, err := svc.Refresh(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, autherrors.ErrInvalidOrExpiredToken)
	})
}

func TestAuthService_Register(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	ctx := context.Background()
	employeeID := uuid.New()

	employees := &fakeEmployeeRepo{
		findByIDFn: func(ctx context.Context, id string) (*employee.Employee, error) {
			return &employee.Employee{ID: employeeID, FullName: "Jane Roe"}, nil
		},
	}

	t.Run("creates a first-login account with a policy-compliant temp password", func(t *testing.T) {
		repo := newFakeAuthRepo()
		svc := newAuthService(repo, employees, newMemoryTokenStore())

		resp, err := svc.Register(ctx, auth.RegisterRequest{
			EmployeeID: employeeID.String(),
			Email:      "jane@corp.test",
			Name:       "Jane Roe",
		})

		assert.NoError(t, err)
		assert.Equal(t, "EMPLOYEE", resp.Role)
		assert.NoError(t, auth.ValidatePasswordPolicy(resp.TempPassword))
		if assert.Len(t, repo.created, 1) {
			created := repo.created[0]
			assert.True(t, created.IsFirstLogin)
			assert.NoError(t, bcrypt.CompareHashAndPassword(
				[]byte(created.Password), []byte(resp.TempPassword),
			))
		}
	})

	t.Run("unknown employee fails", func(t *testing.T) {
		missing := &fakeEmployeeRepo{
			findByIDFn: func(ctx context.Context, id string) (*employee.Employee, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := newAuthService(newFakeAuthRepo(), missing, newMemoryTokenStore())

		_, err := svc.Register(ctx, auth.RegisterRequest{
			EmployeeID: uuid.New().String(),
			Email:      "jane@corp.test",
			Name:       "Jane Roe",
		})
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("duplicate email maps to a conflict", func(t *testing.T) {
		repo := newFakeAuthRepo()
		repo.createErr = gorm.ErrDuplicatedKey
		svc := newAuthService(repo, employees, newMemoryTokenStore())

		_, err := svc.Register(ctx, auth.RegisterRequest{
			EmployeeID: employeeID.String(),
			Email:      "jane@corp.test",
			Name:       "Jane Roe",
		})
		assert.ErrorIs(t, err, autherrors.ErrEmailAlreadyRegistered)
	})
}
