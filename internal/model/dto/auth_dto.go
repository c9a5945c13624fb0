package dto

import (
	"github.com/kenerlee/navix-server/internal/model"
)

type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	InviteCode string `json:"invite_code"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string             `json:"token"`
	User  *model.UserProfile `json:"user"`
}

type SMSSendRequest struct {
	Phone        string `json:"phone" binding:"required"`
	CaptchaToken string `json:"captcha_token" binding:"required"`
}

type SMSVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type CaptchaVerifyRequest struct {
	CaptchaID string `json:"captcha_id" binding:"required"`
	Answer    string `json:"answer" binding:"required"`
}

type BootstrapAdminRequest struct {
	Token string `json:"token" binding:"required"`
}
