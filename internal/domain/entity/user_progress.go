package entity

import (
	"time"
)

// Статусы просмотра видео. Статус меняется только started -> completed.
const (
	ProgressStatusStarted   = "started"
	ProgressStatusCompleted = "completed"
)

// UserProgress хранит состояние просмотра видео пользователем.
// Пара (user_id, video_id) уникальна.
type UserProgress struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_progress_user_video" json:"user_id"`
	VideoID       uint      `gorm:"not null;uniqueIndex:idx_user_progress_user_video" json:"video_id"`
	Status        string    `gorm:"size:20;not null" json:"status"`
	LastWatchedAt time.Time `gorm:"not null" json:"last_watched_at"`
}

// TableName определяет имя таблицы для GORM
func (UserProgress) TableName() string {
	return "user_progress"
}

// IsCompleted возвращает true, если видео досмотрено
func (p *UserProgress) IsCompleted() bool {
	return p.Status == ProgressStatusCompleted
}
