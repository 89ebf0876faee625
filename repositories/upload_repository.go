package repositories

import (
	"context"
	"time"

	"github.com/kangsuek/translate-app/models"

	"gorm.io/gorm"
)

type GormUploadRepository struct {
	db *gorm.DB
}

func NewGormUploadRepository(db *gorm.DB) *GormUploadRepository {
	return &GormUploadRepository{db: db}
}

func (r *GormUploadRepository) Create(_ context.Context, tx *gorm.DB, upload *models.Upload) error {
	return useTx(r.db, tx).Create(upload).Error
}

func (r *GormUploadRepository) GetByFileID(_ context.Context, tx *gorm.DB, fileID string) (models.Upload, error) {
	var upload models.Upload
	err := useTx(r.db, tx).Where("file_id = ?", fileID).First(&upload).Error
	return upload, err
}

func (r *GormUploadRepository) DeleteByFileID(_ context.Context, tx *gorm.DB, fileID string) error {
	return useTx(r.db, tx).Where("file_id = ?", fileID).Delete(&models.Upload{}).Error
}

func (r *GormUploadRepository) ListOlderThan(_ context.Context, tx *gorm.DB, cutoff time.Time) ([]models.Upload, error) {
	var uploads []models.Upload
	err := useTx(r.db, tx).Where("created_at < ?", cutoff).Find(&uploads).Error
	return uploads, err
}
