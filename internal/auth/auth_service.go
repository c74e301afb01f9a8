package auth

import (
	"context"
	"os"
	"time"

	autherrors "hrcore/internal/auth/errors"
	"hrcore/internal/employee"
	employeeerrors "hrcore/internal/employee/errors"
	"hrcore/internal/shared/clock"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	// Login authenticates the credentials. When the account still carries the
	// first-login flag the returned session is restricted to the password
	// change endpoint.
	Login(ctx context.Context, email, password string) (TokenPair, SessionResponse, error)

	// ChangePasswordFirstLogin completes the first-login gate and issues a
	// fresh, unrestricted session.
	ChangePasswordFirstLogin(ctx context.Context, userID string, req ChangePasswordRequest) (TokenPair, SessionResponse, error)

	// Refresh rotates both tokens. The presented refresh token is consumed;
	// reusing it fails.
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)

	// Register creates an account for an existing employee with a generated
	// temporary password, which the response carries back to the HR actor.
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)

	GetMe(ctx context.Context, userID string) (*SessionResponse, error)
}

type service struct {
	repo         Repository
	employeeRepo employee.Repository
	tokens       TokenStore
	clk          clock.Clock
	logger       *zap.Logger
}

func NewService(
	repo Repository,
	employeeRepo employee.Repository,
	tokens TokenStore,
	clk clock.Clock,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{
		repo:         repo,
		employeeRepo: employeeRepo,
		tokens:       tokens,
		clk:          clk,
		logger:       l,
	}
}

func (s *service) Login(ctx context.Context, email, password string) (TokenPair, SessionResponse, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("login unknown email", zap.String("email", email))
		return TokenPair{}, SessionResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn("login password mismatch", zap.String("user_id", user.ID.String()))
		return TokenPair{}, SessionResponse{}, autherrors.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user, user.IsFirstLogin)
	if err != nil {
		return TokenPair{}, SessionResponse{}, err
	}

	s.logger.Info("login success",
		zap.String("user_id", user.ID.String()),
		zap.Bool("first_login", user.IsFirstLogin),
	)
	return pair, mapToSession(user), nil
}

func (s *service) ChangePasswordFirstLogin(ctx context.Context, userID string, req ChangePasswordRequest) (TokenPair, SessionResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return TokenPair{}, SessionResponse{}, autherrors.ErrInvalidUserID
	}

	if req.NewPassword != req.ConfirmPassword {
		return TokenPair{}, SessionResponse{}, autherrors.ErrPasswordMismatch
	}
	if err := ValidatePasswordPolicy(req.NewPassword); err != nil {
		return TokenPair{}, SessionResponse{}, err
	}
	if req.NewPassword == req.CurrentPassword {
		return TokenPair{}, SessionResponse{}, autherrors.ErrSamePassword
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TokenPair{}, SessionResponse{}, autherrors.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		s.logger.Warn("password change current mismatch", zap.String("user_id", userID))
		return TokenPair{}, SessionResponse{}, autherrors.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return TokenPair{}, SessionResponse{}, err
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hash), false); err != nil {
		s.logger.Error("password change persist failed", zap.String("user_id", userID), zap.Error(err))
		return TokenPair{}, SessionResponse{}, err
	}
	user.Password = string(hash)
	user.IsFirstLogin = false

	pair, err := s.issueTokens(ctx, user, false)
	if err != nil {
		return TokenPair{}, SessionResponse{}, err
	}

	s.logger.Info("first-login password change success", zap.String("user_id", userID))
	return pair, mapToSession(user), nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, autherrors.ErrInvalidToken
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return TokenPair{}, autherrors.ErrInvalidOrExpiredToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenPair{}, autherrors.ErrInvalidOrExpiredToken
	}
	if use, _ := claims["token_use"].(string); use != tokenUseRefresh {
		return TokenPair{}, autherrors.ErrInvalidOrExpiredToken
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return TokenPair{}, autherrors.ErrInvalidOrExpiredToken
	}

	// Single-use consumption: a replayed token is gone from the store and
	// fails here even though its signature still verifies.
	ownerID, err := s.tokens.Consume(ctx, jti)
	if err != nil {
		s.logger.Warn("refresh token consume failed", zap.String("jti", jti), zap.Error(err))
		return TokenPair{}, autherrors.ErrInvalidOrExpiredToken
	}

	userID, err := uuid.Parse(ownerID)
	if err != nil {
		return TokenPair{}, autherrors.ErrInvalidOrExpiredToken
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, autherrors.ErrUserNotFound
	}

	pair, err := s.issueTokens(ctx, user, user.IsFirstLogin)
	if err != nil {
		return TokenPair{}, err
	}

	s.logger.Info("token refresh success", zap.String("user_id", ownerID))
	return pair, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return RegisterResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	if _, err := s.employeeRepo.FindByID(ctx, employeeID.String()); err != nil {
		return RegisterResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	tempPassword, err := GenerateTempPassword()
	if err != nil {
		return RegisterResponse{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResponse{}, err
	}

	role := req.Role
	if role == "" {
		role = "EMPLOYEE"
	}

	user := &User{
		ID:           uuid.New(),
		EmployeeID:   &employeeID,
		Email:        req.Email,
		Name:         req.Name,
		Password:     string(hash),
		Role:         role,
		IsFirstLogin: true,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Warn("register create failed", zap.String("email", req.Email), zap.Error(err))
		return RegisterResponse{}, autherrors.ErrEmailAlreadyRegistered
	}

	s.logger.Info("account registered",
		zap.String("user_id", user.ID.String()),
		zap.String("employee_id", employeeID.String()),
	)
	return RegisterResponse{
		ID:           user.ID.String(),
		EmployeeID:   employeeID.String(),
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		TempPassword: tempPassword,
	}, nil
}

func (s *service) GetMe(ctx context.Context, userID string) (*SessionResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, autherrors.ErrInvalidUserID
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, autherrors.ErrUserNotFound
	}

	resp := mapToSession(u)
	return &resp, nil
}

func (s *service) issueTokens(ctx context.Context, user *User, restricted bool) (TokenPair, error) {
	access, err := s.signToken(user, tokenUseAccess, restricted, "", accessTokenTTL)
	if err != nil {
		return TokenPair{}, autherrors.ErrTokenGenerationFailed
	}

	jti := uuid.New().String()
	refresh, err := s.signToken(user, tokenUseRefresh, restricted, jti, refreshTokenTTL)
	if err != nil {
		return TokenPair{}, autherrors.ErrTokenGenerationFailed
	}
	if err := s.tokens.Save(ctx, jti, user.ID.String(), refreshTokenTTL); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) signToken(user *User, use string, restricted bool, jti string, ttl time.Duration) (string, error) {
	employeeID := ""
	if user.EmployeeID != nil {
		employeeID = user.EmployeeID.String()
	}

	claims := jwt.MapClaims{
		"user_id":     user.ID.String(),
		"employee_id": employeeID,
		"role":        user.Role,
		"token_use":   use,
		"pwd_change":  restricted,
		"exp":         s.clk.Now().Add(ttl).Unix(),
	}
	if jti != "" {
		claims["jti"] = jti
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func mapToSession(u *User) SessionResponse {
	resp := SessionResponse{
		ID:                 u.ID.String(),
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.Role,
		MustChangePassword: u.IsFirstLogin,
	}
	if u.EmployeeID != nil {
		resp.EmployeeID = u.EmployeeID.String()
	}
	return resp
}
