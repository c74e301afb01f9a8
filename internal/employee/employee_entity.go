package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeCode string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	FullName     string    `gorm:"column:full_name;type:varchar(255);not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Department   string    `gorm:"type:varchar(120);not null"`
	Designation  string    `gorm:"type:varchar(120);not null"`
	JoinDate     time.Time `gorm:"type:date;not null"`
	IsActive     bool      `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
	// Historical attendance, leave and payroll rows reference employees, so
	// rows are soft-deleted only.
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}
