package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/training-api/internal/middleware"
	apperrors "github.com/yourusername/training-api/internal/pkg/errors"
	"github.com/yourusername/training-api/internal/pkg/logger"
	"github.com/yourusername/training-api/internal/service"
)

// handleError переводит ошибку сервиса в HTTP-ответ
func handleError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "already_submitted"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, service.ErrInvalidSpreadsheet):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "validation"})
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "error_type": "forbidden"})
	case apperrors.IsStoreError(err):
		var se *apperrors.StoreError
		errors.As(err, &se)
		log.Error("Ошибка хранилища", "op", se.Op, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "error_type": "store"})
	default:
		log.Error("Внутренняя ошибка сервера", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal"})
	}
}

// bindError отвечает 400 на ошибку разбора тела запроса
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "bad_request"})
}

// currentUserID возвращает ID пользователя, установленный RequireAuth
func currentUserID(c *gin.Context) uint {
	return c.GetUint(middleware.ContextUserID)
}

// pathID возвращает параметр, извлеченный ExtractUintParam
func pathID(c *gin.Context, key string) uint {
	return c.MustGet(key).(uint)
}
