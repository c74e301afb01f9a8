package attendanceerrors

import (
	"net/http"

	"hrcore/internal/shared/apperror"
)

var (
	ErrDuplicateCheckIn = apperror.New(
		apperror.CodeConflict,
		"already checked in for this date",
		http.StatusConflict,
	)
	ErrNoActiveCheckIn = apperror.New(
		apperror.CodeInvalidState,
		"no open check-in exists for this date",
		http.StatusConflict,
	)
	ErrInvalidOrdering = apperror.New(
		apperror.CodeInvalidInput,
		"check-out must be after check-in",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"attendance record not found",
		http.StatusNotFound,
	)
)
