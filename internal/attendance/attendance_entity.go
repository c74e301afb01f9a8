package attendance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Attendance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_employee_date"`
	WorkDate   time.Time `gorm:"column:work_date;type:date;not null;uniqueIndex:uq_attendance_employee_date"`

	CheckInAt  *time.Time `gorm:"column:check_in_at;type:timestamptz"`
	CheckOutAt *time.Time `gorm:"column:check_out_at;type:timestamptz"`

	Status          string `gorm:"type:varchar(20);not null"`
	WorkedMinutes   int    `gorm:"type:int;not null;default:0"`
	OvertimeMinutes int    `gorm:"type:int;not null;default:0"`
	Notes           *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Employee *EmployeeRef `gorm:"foreignKey:EmployeeID;references:ID"`
}

func (Attendance) TableName() string {
	return "attendances"
}

type EmployeeRef struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName string    `gorm:"column:full_name"`
}

func (EmployeeRef) TableName() string {
	return "employees"
}
