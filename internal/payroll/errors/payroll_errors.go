package payrollerrors

import (
	"net/http"

	"hrcore/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidWage = apperror.New(
		apperror.CodeInvalidInput,
		"monthly wage must be positive",
		http.StatusBadRequest,
	)
	ErrInvalidComponent = apperror.New(
		apperror.CodeInvalidInput,
		"invalid salary component",
		http.StatusBadRequest,
	)
	ErrDuplicateResidual = apperror.New(
		apperror.CodeInvalidInput,
		"template must contain exactly one residual component",
		http.StatusBadRequest,
	)
	ErrTemplateExists = apperror.New(
		apperror.CodeConflict,
		"salary template already exists for this employee",
		http.StatusConflict,
	)
	ErrTemplateNotFound = apperror.New(
		apperror.CodeNotFound,
		"salary template not found",
		http.StatusNotFound,
	)
)
