package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/training-api/internal/domain/repository"
	"github.com/yourusername/training-api/internal/pkg/logger"
)

const rateLimitTimeout = 2 * time.Second

// RateLimitConfig содержит настройки ограничения частоты запросов
type RateLimitConfig struct {
	// MaxRequests: максимальное количество запросов за Window
	MaxRequests int
	// Window: временное окно подсчета
	Window time.Duration
	// KeyPrefix: префикс ключей в Redis
	KeyPrefix string
}

// LoginRateLimitConfig: лимит попыток входа (защита от перебора паролей)
func LoginRateLimitConfig(maxRequests int, window time.Duration) RateLimitConfig {
	if maxRequests <= 0 {
		maxRequests = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitConfig{MaxRequests: maxRequests, Window: window, KeyPrefix: "rl:login"}
}

// RateLimiter считает запросы в Redis по IP и маршруту
type RateLimiter struct {
	counter repository.CacheRepository
	log     *logger.Logger
}

// NewRateLimiter создает RateLimiter
func NewRateLimiter(counter repository.CacheRepository, log *logger.Logger) *RateLimiter {
	return &RateLimiter{counter: counter, log: log.With("component", "RateLimiter")}
}

// Limit возвращает middleware с заданной конфигурацией.
// При недоступности Redis запрос пропускается.
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, clientIP, path)

		ctx, cancel := context.WithTimeout(c.Request.Context(), rateLimitTimeout)
		defer cancel()

		count, err := rl.counter.Increment(ctx, key)
		if err != nil {
			rl.log.Warn("Ошибка Redis в rate limiter, запрос пропущен", "key", key, "error", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.counter.Expire(ctx, key, cfg.Window); err != nil {
				rl.log.Warn("Не удалось задать TTL счетчика", "key", key, "error", err)
			}
		}

		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		retryAfter := int(cfg.Window.Seconds())
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > cfg.MaxRequests {
			rl.log.Warn("Превышен лимит запросов", "ip", clientIP, "path", path, "count", count, "limit", cfg.MaxRequests)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"error_type":  "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}
