package entity

import (
	"time"
)

// Module представляет учебный модуль (набор видео и экзаменов)
type Module struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	Order       int       `gorm:"column:order;not null;default:0" json:"order"`
	Videos      []Video   `gorm:"foreignKey:ModuleID" json:"videos,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Module) TableName() string {
	return "modules"
}

// Video представляет обучающее видео внутри модуля
type Video struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ModuleID    uint   `gorm:"not null;index" json:"module_id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	VideoURL    string `gorm:"type:text;not null;default:''" json:"video_url"`
	ObjectKey   string `gorm:"size:512;not null;default:''" json:"object_key"`
	// Duration в секундах
	Duration  int       `gorm:"not null;default:0" json:"duration"`
	Order     int       `gorm:"column:order;not null;default:0" json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Video) TableName() string {
	return "videos"
}
