package models

import "time"

type Upload struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID       string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"file_id"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	SafeName     string    `gorm:"type:varchar(255);not null" json:"safe_name"`
	StorageName  string    `gorm:"type:varchar(300);not null" json:"storage_name"`
	Extension    string    `gorm:"type:varchar(10);not null" json:"extension"`
	FileSize     int64     `gorm:"not null" json:"file_size"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
