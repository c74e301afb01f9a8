package payroll

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	KindEarning   = "EARNING"
	KindDeduction = "DEDUCTION"
	KindEmployer  = "EMPLOYER"
)

const (
	CalcPercent = "PERCENT"
	CalcFixed   = "FIXED"
	// CalcResidual marks the single component that absorbs whatever the
	// other earning components leave of the monthly wage.
	CalcResidual = "RESIDUAL"
)

// SalaryTemplate is the one active compensation definition per employee.
// Edits replace the whole record.
type SalaryTemplate struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_salary_template_employee"`

	MonthlyWage        float64 `gorm:"type:numeric(12,2);not null"`
	WorkingDaysPerWeek int     `gorm:"type:int;not null;default:5"`
	BreakTimeHours     float64 `gorm:"type:numeric(4,2);not null;default:1"`

	Components []SalaryComponent `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (SalaryTemplate) TableName() string {
	return "salary_templates"
}

type SalaryComponent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name     string  `gorm:"type:varchar(80);not null"`
	Kind     string  `gorm:"type:varchar(20);not null"`
	CalcType string  `gorm:"type:varchar(20);not null"`
	// Percentage of the monthly wage for PERCENT, an absolute amount for
	// FIXED, ignored for RESIDUAL.
	Value    float64 `gorm:"type:numeric(12,3);not null"`
	Position int     `gorm:"type:int;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SalaryComponent) TableName() string {
	return "salary_components"
}
