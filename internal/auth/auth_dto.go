package auth

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RegisterRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Name       string `json:"name" binding:"required"`
	Role       string `json:"role" binding:"omitempty,oneof=ADMIN EMPLOYEE"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type SessionResponse struct {
	ID                 string `json:"id"`
	EmployeeID         string `json:"employee_id,omitempty"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password"`
}

// RegisterResponse carries the generated temporary password back to the HR
// actor; delivering it to the employee (email) is the caller's concern.
type RegisterResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	TempPassword string `json:"temp_password"`
}
