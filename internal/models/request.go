package models

// CreateProfileRequest is the body of POST /auth/register and POST /profiles
type CreateProfileRequest struct {
	Username  string   `json:"username" validate:"required,min=3"`
	Password  string   `json:"password" validate:"required,min=6"`
	Name      string   `json:"name" validate:"required,min=2"`
	Age       int      `json:"age" validate:"required,gte=18,lte=99"`
	Bio       *string  `json:"bio" validate:"omitempty"`
	Interests []string `json:"interests" validate:"omitempty,dive,required"`
}

// LoginRequest represents the login credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}
