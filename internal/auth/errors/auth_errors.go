package autherrors

import (
	"net/http"

	"hrcore/internal/shared/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(
		apperror.CodeUnauthorized,
		"invalid email or password",
		http.StatusUnauthorized,
	)
	ErrUnauthenticated = apperror.New(
		apperror.CodeUnauthorized,
		"authentication required",
		http.StatusUnauthorized,
	)
	ErrInvalidToken = apperror.New(
		apperror.CodeUnauthorized,
		"invalid token",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		apperror.CodeUnauthorized,
		"token has expired",
		http.StatusUnauthorized,
	)
	ErrInvalidOrExpiredToken = apperror.New(
		apperror.CodeUnauthorized,
		"refresh token is invalid or has expired",
		http.StatusUnauthorized,
	)
	ErrPasswordChangeRequired = apperror.New(
		apperror.CodeForbidden,
		"password change is required before accessing this resource",
		http.StatusForbidden,
	)
	ErrPasswordMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"new password and confirmation do not match",
		http.StatusBadRequest,
	)
	ErrWeakPassword = apperror.New(
		apperror.CodeInvalidInput,
		"password must be at least 8 characters with upper, lower, digit and symbol",
		http.StatusBadRequest,
	)
	ErrSamePassword = apperror.New(
		apperror.CodeInvalidState,
		"new password must differ from the current password",
		http.StatusBadRequest,
	)
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"user not found",
		http.StatusNotFound,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrEmailAlreadyRegistered = apperror.New(
		apperror.CodeConflict,
		"email is already registered",
		http.StatusConflict,
	)
	ErrTokenGenerationFailed = apperror.New(
		apperror.CodeInternalError,
		"failed to generate token",
		http.StatusInternalServerError,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"you do not have permission to perform this action",
		http.StatusForbidden,
	)
)
