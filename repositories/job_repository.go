package repositories

import (
	"context"
	"time"

	"github.com/kangsuek/translate-app/models"

	"gorm.io/gorm"
)

type GormJobRepository struct {
	db *gorm.DB
}

func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

func (r *GormJobRepository) Create(_ context.Context, tx *gorm.DB, job *models.TranslationJob) error {
	return useTx(r.db, tx).Create(job).Error
}

func (r *GormJobRepository) GetByID(_ context.Context, tx *gorm.DB, jobID uint) (models.TranslationJob, error) {
	var job models.TranslationJob
	err := useTx(r.db, tx).First(&job, jobID).Error
	return job, err
}

func (r *GormJobRepository) GetLatestByFileID(_ context.Context, tx *gorm.DB, fileID string) (models.TranslationJob, error) {
	var job models.TranslationJob
	err := useTx(r.db, tx).Where("file_id = ?", fileID).Order("id DESC").First(&job).Error
	return job, err
}

func (r *GormJobRepository) GetByOutputName(_ context.Context, tx *gorm.DB, outputName string) (models.TranslationJob, error) {
	var job models.TranslationJob
	err := useTx(r.db, tx).Where("output_name = ?", outputName).Order("id DESC").First(&job).Error
	return job, err
}

func (r *GormJobRepository) UpdateProgress(_ context.Context, tx *gorm.DB, jobID uint, status string, percent int) error {
	return useTx(r.db, tx).Model(&models.TranslationJob{}).Where("id = ?", jobID).
		Updates(map[string]interface{}{"status": status, "percent": percent}).Error
}

func (r *GormJobRepository) MarkCompleted(_ context.Context, tx *gorm.DB, jobID uint, outputName string, downloadName string) error {
	return useTx(r.db, tx).Model(&models.TranslationJob{}).Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":        models.JobStatusCompleted,
			"percent":       100,
			"output_name":   outputName,
			"download_name": downloadName,
		}).Error
}

func (r *GormJobRepository) MarkFailed(_ context.Context, tx *gorm.DB, jobID uint, message string) error {
	return useTx(r.db, tx).Model(&models.TranslationJob{}).Where("id = ?", jobID).
		Updates(map[string]interface{}{"status": models.JobStatusFailed, "error": message}).Error
}

func (r *GormJobRepository) MarkCanceled(_ context.Context, tx *gorm.DB, jobID uint) error {
	return useTx(r.db, tx).Model(&models.TranslationJob{}).Where("id = ?", jobID).
		Update("status", models.JobStatusCanceled).Error
}

func (r *GormJobRepository) DeleteTerminalOlderThan(_ context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	res := useTx(r.db, tx).Where("updated_at < ? AND status IN ?", cutoff,
		[]string{models.JobStatusCompleted, models.JobStatusFailed, models.JobStatusCanceled}).
		Delete(&models.TranslationJob{})
	return res.RowsAffected, res.Error
}
