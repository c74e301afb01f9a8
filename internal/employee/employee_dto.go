package employee

type CreateEmployeeRequest struct {
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Department   string `json:"department" binding:"required"`
	Designation  string `json:"designation" binding:"required"`
	JoinDate     string `json:"join_date" binding:"required"`
}

type UpdateEmployeeRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	Department  string `json:"department" binding:"required"`
	Designation string `json:"designation" binding:"required"`
}

type EmployeeResponse struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Department   string `json:"department"`
	Designation  string `json:"designation"`
	JoinDate     string `json:"join_date"`
	IsActive     bool   `json:"is_active"`
}

type EmployeeOption struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
}
