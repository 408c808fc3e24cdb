package dto

import "github.com/hongminglow/minigames-be/internal/models"

type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string          `json:"token"`
	User  models.Identity `json:"user"`
}

type SignupResponse struct {
	User models.Identity `json:"user"`
}

// SessionResponse carries a nil user for guests.
type SessionResponse struct {
	User *models.Identity `json:"user"`
}
