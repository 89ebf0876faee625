package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/kangsuek/translate-app/config"
	"github.com/kangsuek/translate-app/models"

	"gorm.io/gorm"
)

func setTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Storage: config.StorageConfig{
			UploadDir:         t.TempDir(),
			ProcessedDir:      t.TempDir(),
			AllowedExtensions: []string{".txt", ".srt", ".csv", ".pdf"},
			MaxFileSize:       1 << 20,
			MaxChunkChars:     200,
			RetentionMinutes:  60,
		},
		Languages: []config.Language{
			{Code: "ko", Name: "한국어"},
			{Code: "en", Name: "English"},
		},
		Translator: config.TranslatorConfig{
			Provider:       "identity",
			SourceLanguage: "auto",
		},
	}

	old := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = old })
	return cfg
}

type fakeUploadRepo struct {
	mu      sync.Mutex
	seq     uint
	uploads map[string]models.Upload
	deleted []string
}

func newFakeUploadRepo() *fakeUploadRepo {
	return &fakeUploadRepo{uploads: map[string]models.Upload{}}
}

func (r *fakeUploadRepo) Create(_ context.Context, _ *gorm.DB, upload *models.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	upload.ID = r.seq
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now()
	}
	r.uploads[upload.FileID] = *upload
	return nil
}

func (r *fakeUploadRepo) GetByFileID(_ context.Context, _ *gorm.DB, fileID string) (models.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	upload, ok := r.uploads[fileID]
	if !ok {
		return models.Upload{}, gorm.ErrRecordNotFound
	}
	return upload, nil
}

func (r *fakeUploadRepo) DeleteByFileID(_ context.Context, _ *gorm.DB, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.uploads, fileID)
	r.deleted = append(r.deleted, fileID)
	return nil
}

func (r *fakeUploadRepo) ListOlderThan(_ context.Context, _ *gorm.DB, cutoff time.Time) ([]models.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Upload
	for _, u := range r.uploads {
		if u.CreatedAt.Before(cutoff) {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeUploadRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.uploads)
}

type fakeJobRepo struct {
	mu       sync.Mutex
	seq      uint
	jobs     map[uint]models.TranslationJob
	percents []int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[uint]models.TranslationJob{}}
}

func (r *fakeJobRepo) Create(_ context.Context, _ *gorm.DB, job *models.TranslationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	job.ID = r.seq
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, _ *gorm.DB, jobID uint) (models.TranslationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return models.TranslationJob{}, gorm.ErrRecordNotFound
	}
	return job, nil
}

func (r *fakeJobRepo) GetLatestByFileID(_ context.Context, _ *gorm.DB, fileID string) (models.TranslationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest models.TranslationJob
	found := false
	for _, j := range r.jobs {
		if j.FileID == fileID && (!found || j.ID > latest.ID) {
			latest = j
			found = true
		}
	}
	if !found {
		return models.TranslationJob{}, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *fakeJobRepo) GetByOutputName(_ context.Context, _ *gorm.DB, outputName string) (models.TranslationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.OutputName == outputName {
			return j, nil
		}
	}
	return models.TranslationJob{}, gorm.ErrRecordNotFound
}

func (r *fakeJobRepo) UpdateProgress(_ context.Context, _ *gorm.DB, jobID uint, status string, percent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[jobID]
	job.ID = jobID
	job.Status = status
	job.Percent = percent
	r.jobs[jobID] = job
	r.percents = append(r.percents, percent)
	return nil
}

func (r *fakeJobRepo) MarkCompleted(_ context.Context, _ *gorm.DB, jobID uint, outputName string, downloadName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[jobID]
	job.ID = jobID
	job.Status = models.JobStatusCompleted
	job.Percent = 100
	job.OutputName = outputName
	job.DownloadName = downloadName
	r.jobs[jobID] = job
	return nil
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, _ *gorm.DB, jobID uint, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[jobID]
	job.ID = jobID
	job.Status = models.JobStatusFailed
	job.Error = message
	r.jobs[jobID] = job
	return nil
}

func (r *fakeJobRepo) MarkCanceled(_ context.Context, _ *gorm.DB, jobID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[jobID]
	job.ID = jobID
	job.Status = models.JobStatusCanceled
	r.jobs[jobID] = job
	return nil
}

func (r *fakeJobRepo) DeleteTerminalOlderThan(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, j := range r.jobs {
		if j.Terminal() && j.CreatedAt.Before(cutoff) {
			delete(r.jobs, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeJobRepo) get(jobID uint) models.TranslationJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[jobID]
}

func (r *fakeJobRepo) recordedPercents() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.percents...)
}

// fakeTranslator 默认在译文前加 [target] 前缀，便于断言翻译确实发生过
type fakeTranslator struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, text string) (string, error)
}

func (f *fakeTranslator) Translate(ctx context.Context, text, _, target string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, text)
	}
	return "[" + target + "]" + text, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRunner struct {
	mu       sync.Mutex
	activeID string
	canceled []string
}

func (f *fakeRunner) Cancel(fileID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, fileID)
	if f.activeID == fileID {
		f.activeID = ""
		return true
	}
	return false
}

func (f *fakeRunner) IsActive(fileID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeID == fileID
}
