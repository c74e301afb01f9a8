package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	TypePaid = "PAID"
	TypeSick = "SICK"
)

const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

// Annual entitlements granted at onboarding, whole-year, no accrual.
const (
	DefaultPaidDays = 15
	DefaultSickDays = 10
)

func ValidType(t string) bool {
	return t == TypePaid || t == TypeSick
}

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`
	LeaveType  string    `gorm:"type:varchar(20);not null"`

	StartDate time.Time `gorm:"column:start_date;type:date;not null"`
	EndDate   time.Time `gorm:"column:end_date;type:date;not null"`

	// Working-day count over the range, computed at submission and never
	// recomputed afterwards.
	NumberOfDays int    `gorm:"type:int;not null"`
	Reason       string `gorm:"type:text;not null"`
	Status       string `gorm:"type:varchar(20);not null;default:'PENDING'"`

	AppliedOn time.Time  `gorm:"column:applied_on;type:timestamptz;not null"`
	DecidedBy *uuid.UUID `gorm:"column:decided_by;type:uuid"`
	DecidedOn *time.Time `gorm:"column:decided_on;type:timestamptz"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balance_employee_type_year"`
	LeaveType  string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_leave_balance_employee_type_year"`
	Year       int       `gorm:"type:int;not null;uniqueIndex:uq_leave_balance_employee_type_year"`

	TotalDays int `gorm:"type:int;not null"`
	UsedDays  int `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

func (b LeaveBalance) Remaining() int {
	return b.TotalDays - b.UsedDays
}
