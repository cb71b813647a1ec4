package entity

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Роли пользователей
const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// User представляет профиль сотрудника или администратора.
// Вход выполняется по номеру TC (национальный идентификатор).
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TCNo         string    `gorm:"column:tc_no;size:11;not null;uniqueIndex" json:"tc_no"`
	FullName     string    `gorm:"size:150;not null" json:"full_name"`
	Password     string    `gorm:"column:password_hash;size:100;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:'worker'" json:"role"`
	IsFirstLogin bool      `gorm:"not null;default:true" json:"is_first_login"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "profiles"
}

// IsAdmin возвращает true для администратора
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !isBcryptHash(u.Password) {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// IsValidRole проверяет допустимость роли
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleWorker
}
