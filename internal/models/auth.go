package models

type SignupRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"required,indianphone"`
	Password string `json:"password" validate:"required"`
	Pincode  string `json:"pincode" validate:"required,pincode"`
}

type SignupResult struct {
	UserID string `json:"userId"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
}

type VerifyOTPRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type Login struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type ResendOTPRequest struct {
	UserID string `json:"userId"`
}

type ForgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

type ResetPasswordRequest struct {
	UserID      string `json:"userId"`
	Identifier  string `json:"identifier"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Session is returned by verify-otp and login.
type Session struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
