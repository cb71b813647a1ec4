package dto

import (
	"time"

	"github.com/yourusername/training-api/internal/domain/entity"
)

// UserResponse: профиль без хеша пароля
type UserResponse struct {
	ID           uint      `json:"id"`
	TCNo         string    `json:"tc_no"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsFirstLogin bool      `json:"is_first_login"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUserResponse создает DTO профиля
func NewUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:           u.ID,
		TCNo:         u.TCNo,
		FullName:     u.FullName,
		Role:         u.Role,
		IsFirstLogin: u.IsFirstLogin,
		CreatedAt:    u.CreatedAt,
	}
}

// NewUserListResponse создает список DTO профилей
func NewUserListResponse(users []entity.User) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// LoginResponse: ответ на вход
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        *UserResponse `json:"user"`
}
