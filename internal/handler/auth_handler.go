package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/training-api/internal/handler/dto"
	"github.com/yourusername/training-api/internal/middleware"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/internal/service"
	"github.com/yourusername/training-api/pkg/auth"
)

// AuthHandler обрабатывает вход, выход и профиль текущего пользователя
type AuthHandler struct {
	authService *service.AuthService
	log         *logger.Logger
}

// NewAuthHandler создает обработчик аутентификации
func NewAuthHandler(authService *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log.With("handler", "AuthHandler")}
}

// LoginRequest: вход по номеру TC
type LoginRequest struct {
	TCNo     string `json:"tc_no" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login выдает токен доступа
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.TCNo, req.Password)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt,
		User:        dto.NewUserResponse(res.User),
	})
}

// Logout отзывает текущий токен
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	value, _ := c.Get(middleware.ContextClaims)
	claims, ok := value.(*auth.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me возвращает профиль текущего пользователя
// GET /api/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// ChangePasswordRequest: смена пароля
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword меняет пароль и снимает флаг первого входа
// PUT /api/users/me/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.authService.ChangePassword(c.Request.Context(), currentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}
