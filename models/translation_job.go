package models

import "time"

// 任务状态流转: queued -> splitting -> translating -> assembling -> completed
// 任一非终态都可转入 failed；canceled 由删除文件时触发
const (
	JobStatusQueued      = "queued"
	JobStatusSplitting   = "splitting"
	JobStatusTranslating = "translating"
	JobStatusAssembling  = "assembling"
	JobStatusCompleted   = "completed"
	JobStatusFailed      = "failed"
	JobStatusCanceled    = "canceled"
)

type TranslationJob struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID     string `gorm:"type:varchar(36);index;not null" json:"file_id"`
	TargetLang string `gorm:"type:varchar(10);not null" json:"target_lang"`
	Status     string `gorm:"type:varchar(20);default:queued;index" json:"status"`
	Percent    int    `gorm:"default:0" json:"percent"`
	OutputName string `gorm:"type:varchar(300);index" json:"output_name"`
	// DownloadName 为下载时展示给用户的文件名，避免从存储名里反解 ID
	DownloadName string    `gorm:"type:varchar(300)" json:"download_name"`
	Error        string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Terminal 判断任务是否已结束
func (j *TranslationJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed || j.Status == JobStatusCanceled
}
