package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "training-api"
	revokedPrefix = "auth:revoked:"
)

var (
	// ErrInvalidToken: подпись, формат или обязательные поля токена некорректны
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken: срок действия токена истек
	ErrExpiredToken = errors.New("token expired")
	// ErrRevokedToken: токен отозван через logout
	ErrRevokedToken = errors.New("token revoked")
)

// RevocationStore хранит идентификаторы (jti) отозванных токенов до истечения их срока
type RevocationStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Claims содержит пользовательские поля токена
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService выдает и проверяет токены доступа (HS256)
type JWTService struct {
	secret     []byte
	expiration time.Duration
	revoked    RevocationStore
	now        func() time.Time
}

// NewJWTService создает сервис JWT. revoked может быть nil, тогда logout не поддерживается.
func NewJWTService(secret string, expirationHrs int, revoked RevocationStore) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	return &JWTService{
		secret:     []byte(secret),
		expiration: time.Duration(expirationHrs) * time.Hour,
		revoked:    revoked,
		now:        time.Now,
	}, nil
}

// GenerateToken создает токен для пользователя и возвращает его вместе со сроком действия
func (s *JWTService) GenerateToken(userID uint, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken проверяет подпись, срок действия и отзыв токена
func (s *JWTService) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 || claims.ID == "" || claims.Issuer != tokenIssuer {
		return nil, ErrInvalidToken
	}

	if s.revoked != nil {
		revoked, err := s.revoked.Exists(ctx, revokedPrefix+claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// RevokeToken отзывает токен до истечения его срока действия
func (s *JWTService) RevokeToken(ctx context.Context, claims *Claims) error {
	if s.revoked == nil {
		return errors.New("token revocation store is not configured")
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Time.Sub(s.now()); left > 0 {
			ttl = left
		}
	}
	return s.revoked.Set(ctx, revokedPrefix+claims.ID, 1, ttl)
}
