package repositories

import (
	"context"
	"time"

	"github.com/kangsuek/translate-app/models"

	"gorm.io/gorm"
)

type UploadRepository interface {
	Create(ctx context.Context, tx *gorm.DB, upload *models.Upload) error
	GetByFileID(ctx context.Context, tx *gorm.DB, fileID string) (models.Upload, error)
	DeleteByFileID(ctx context.Context, tx *gorm.DB, fileID string) error
	ListOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]models.Upload, error)
}

type JobRepository interface {
	Create(ctx context.Context, tx *gorm.DB, job *models.TranslationJob) error
	GetByID(ctx context.Context, tx *gorm.DB, jobID uint) (models.TranslationJob, error)
	GetLatestByFileID(ctx context.Context, tx *gorm.DB, fileID string) (models.TranslationJob, error)
	GetByOutputName(ctx context.Context, tx *gorm.DB, outputName string) (models.TranslationJob, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, jobID uint, status string, percent int) error
	MarkCompleted(ctx context.Context, tx *gorm.DB, jobID uint, outputName string, downloadName string) error
	MarkFailed(ctx context.Context, tx *gorm.DB, jobID uint, message string) error
	MarkCanceled(ctx context.Context, tx *gorm.DB, jobID uint) error
	DeleteTerminalOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type Container struct {
	Uploads UploadRepository
	Jobs    JobRepository
}
