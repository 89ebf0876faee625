package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kangsuek/translate-app/config"
	"github.com/kangsuek/translate-app/logger"
	"github.com/kangsuek/translate-app/models"
	"github.com/kangsuek/translate-app/repositories"
	"github.com/kangsuek/translate-app/translator"

	"gorm.io/gorm"
)

// FileRef 是前端引用一个已上传文件的方式。
type FileRef struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name"`
}

type StartTranslationInput struct {
	Files      []FileRef `json:"files"`
	TargetLang string    `json:"target_language"`
}

type TranslateService interface {
	// Start 校验请求后为每个文件启动一个后台翻译任务，返回任务 ID。
	// 任一文件校验失败则整个请求失败，不启动任何任务。
	Start(ctx context.Context, in StartTranslationInput) ([]uint, error)
	// Cancel 取消 fileID 的进行中任务，没有进行中任务时返回 false。
	Cancel(fileID string) bool
	// IsActive 判断 fileID 是否有进行中的任务。
	IsActive(fileID string) bool
	// JobStatus 返回 fileID 最近一次任务的状态。
	JobStatus(ctx context.Context, fileID string) (models.TranslationJob, error)
}

type translateService struct {
	uploads repositories.UploadRepository
	jobs    repositories.JobRepository
	hub     *ProgressHub
	trans   translator.Translator

	mu     sync.Mutex
	active map[string]context.CancelFunc

	// providerMu 只串行化对翻译接口的调用，磁盘 IO 和进度推送不受影响
	providerMu sync.Mutex
}

func NewTranslateService(uploads repositories.UploadRepository, jobs repositories.JobRepository, hub *ProgressHub, trans translator.Translator) TranslateService {
	return &translateService{
		uploads: uploads,
		jobs:    jobs,
		hub:     hub,
		trans:   trans,
		active:  make(map[string]context.CancelFunc),
	}
}

func (s *translateService) Start(ctx context.Context, in StartTranslationInput) ([]uint, error) {
	cfg := config.AppConfig

	if len(in.Files) == 0 {
		return nil, newAppError(http.StatusBadRequest, "未选择要翻译的文件", nil)
	}
	if in.TargetLang == "" {
		return nil, newAppError(http.StatusBadRequest, "缺少目标语言", nil)
	}
	if !cfg.IsLanguageSupported(in.TargetLang) {
		return nil, newAppError(http.StatusBadRequest, "不支持的目标语言: "+in.TargetLang, nil)
	}

	// 先整体校验，再整体启动，避免部分文件已开跑而请求报错
	uploads := make([]models.Upload, 0, len(in.Files))
	for _, f := range in.Files {
		upload, err := s.uploads.GetByFileID(ctx, nil, f.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newAppError(http.StatusNotFound, "上传文件不存在: "+f.Name, err)
			}
			return nil, newAppError(http.StatusInternalServerError, "查询上传文件失败", err)
		}
		if s.IsActive(f.ID) {
			return nil, newAppError(http.StatusConflict, "该文件已有进行中的翻译任务: "+upload.OriginalName, nil)
		}
		uploads = append(uploads, upload)
	}

	jobIDs := make([]uint, 0, len(uploads))
	for _, upload := range uploads {
		job := &models.TranslationJob{
			FileID:     upload.FileID,
			TargetLang: in.TargetLang,
			Status:     models.JobStatusQueued,
		}
		if err := s.jobs.Create(ctx, nil, job); err != nil {
			return nil, newAppError(http.StatusInternalServerError, "创建翻译任务失败", err)
		}

		jobCtx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		s.active[upload.FileID] = cancel
		s.mu.Unlock()

		go s.run(jobCtx, job.ID, upload, in.TargetLang)
		jobIDs = append(jobIDs, job.ID)
	}
	return jobIDs, nil
}

func (s *translateService) Cancel(fileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.active[fileID]
	if !ok {
		return false
	}
	cancel()
	delete(s.active, fileID)
	return true
}

func (s *translateService) IsActive(fileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[fileID]
	return ok
}

func (s *translateService) clearActive(fileID string) {
	s.mu.Lock()
	if cancel, ok := s.active[fileID]; ok {
		cancel()
		delete(s.active, fileID)
	}
	s.mu.Unlock()
}

func (s *translateService) JobStatus(ctx context.Context, fileID string) (models.TranslationJob, error) {
	job, err := s.jobs.GetLatestByFileID(ctx, nil, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TranslationJob{}, newAppError(http.StatusNotFound, "没有找到对应的翻译任务", err)
		}
		return models.TranslationJob{}, newAppError(http.StatusInternalServerError, "查询翻译任务失败", err)
	}
	return job, nil
}

// progressEmitter 把进度写入任务行并广播给订阅者。
// 进度只增不减，阶段回调乱序时取已达到的最大值。
type progressEmitter struct {
	svc    *translateService
	jobID  uint
	fileID string
	last   int
}

func (e *progressEmitter) emit(status string, percent int, message string) {
	if percent < e.last {
		percent = e.last
	}
	if percent > 100 {
		percent = 100
	}
	e.last = percent

	if err := e.svc.jobs.UpdateProgress(context.Background(), nil, e.jobID, status, percent); err != nil {
		logger.Warnf("更新任务进度失败 job=%d: %v", e.jobID, err)
	}
	e.svc.hub.Publish(ProgressEvent{
		FileID:     e.fileID,
		Status:     ProgressStatusRunning,
		Percentage: percent,
		Message:    message,
	})
}

// translate 带上配置的源语言调用翻译接口；开启串行化时全局排队。
func (s *translateService) translate(ctx context.Context, text, target string) (string, error) {
	cfg := config.AppConfig.Translator
	if cfg.SerializeRequests {
		s.providerMu.Lock()
		defer s.providerMu.Unlock()
	}
	return s.trans.Translate(ctx, text, cfg.SourceLanguage, target)
}

func (s *translateService) translatorFor(target string) translateFunc {
	return func(ctx context.Context, text string) (string, error) {
		return s.translate(ctx, text, target)
	}
}

// run 执行单个文件的完整翻译流水线。无论成功、失败还是取消，
// 退出时都会删除原始上传和所有中间分块文件。
func (s *translateService) run(ctx context.Context, jobID uint, upload models.Upload, targetLang string) {
	cfg := config.AppConfig
	uploadPath := filepath.Join(cfg.Storage.UploadDir, upload.StorageName)

	base := strings.TrimSuffix(upload.SafeName, upload.Extension)
	outputName := fmt.Sprintf("%s_%s_%s%s", base, upload.FileID, targetLang, upload.Extension)
	outPath := filepath.Join(cfg.Storage.ProcessedDir, outputName)
	downloadName := fmt.Sprintf("%s_%s%s",
		strings.TrimSuffix(upload.OriginalName, filepath.Ext(upload.OriginalName)), targetLang, upload.Extension)

	var tempPaths []string

	defer s.clearActive(upload.FileID)
	defer func() {
		for _, p := range tempPaths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				logger.Warnf("删除中间文件失败 %s: %v", p, err)
			}
		}
		if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
			logger.Warnf("删除上传文件失败 %s: %v", uploadPath, err)
		}
		if err := s.uploads.DeleteByFileID(context.Background(), nil, upload.FileID); err != nil {
			logger.Warnf("删除上传记录失败 %s: %v", upload.FileID, err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("翻译任务 panic job=%d file=%s: %v", jobID, upload.FileID, r)
			s.fail(jobID, upload.FileID, fmt.Errorf("internal error: %v", r))
		}
	}()

	em := &progressEmitter{svc: s, jobID: jobID, fileID: upload.FileID}

	var err error
	switch strings.ToLower(upload.Extension) {
	case ".csv":
		err = s.runCSV(ctx, upload, targetLang, uploadPath, outPath, em)
	case ".pdf":
		err = s.runPDF(ctx, upload, targetLang, uploadPath, outPath, em, &tempPaths)
	default:
		err = s.runText(ctx, upload, targetLang, uploadPath, outPath, em, &tempPaths)
	}

	if err != nil {
		os.Remove(outPath)
		if errors.Is(err, context.Canceled) {
			if mErr := s.jobs.MarkCanceled(context.Background(), nil, jobID); mErr != nil {
				logger.Warnf("标记任务取消失败 job=%d: %v", jobID, mErr)
			}
			s.hub.Publish(ProgressEvent{
				FileID:     upload.FileID,
				Status:     ProgressStatusFailed,
				Percentage: em.last,
				Message:    "翻译任务已取消",
			})
			log.Printf("翻译任务已取消: %s (%s)", upload.OriginalName, upload.FileID)
			return
		}
		s.fail(jobID, upload.FileID, err)
		return
	}

	if mErr := s.jobs.MarkCompleted(context.Background(), nil, jobID, outputName, downloadName); mErr != nil {
		logger.Warnf("标记任务完成失败 job=%d: %v", jobID, mErr)
	}
	s.hub.Publish(ProgressEvent{
		FileID:           upload.FileID,
		Status:           ProgressStatusCompleted,
		Percentage:       100,
		Message:          "翻译完成",
		DownloadFilename: outputName,
	})
	log.Printf("翻译完成: %s -> %s", upload.OriginalName, outputName)
}

func (s *translateService) fail(jobID uint, fileID string, err error) {
	log.Printf("翻译任务失败 job=%d file=%s: %v", jobID, fileID, err)
	if mErr := s.jobs.MarkFailed(context.Background(), nil, jobID, err.Error()); mErr != nil {
		logger.Warnf("标记任务失败状态失败 job=%d: %v", jobID, mErr)
	}
	s.hub.Publish(ProgressEvent{
		FileID:  fileID,
		Status:  ProgressStatusFailed,
		Message: "翻译失败: " + err.Error(),
	})
}

// runText 处理纯文本类格式（txt/srt）：按段落拆块、落盘、逐块翻译、按序合并。
func (s *translateService) runText(ctx context.Context, upload models.Upload, targetLang, uploadPath, outPath string, em *progressEmitter, tempPaths *[]string) error {
	em.emit(models.JobStatusSplitting, 5, "正在读取并拆分文件")

	data, err := os.ReadFile(uploadPath)
	if err != nil {
		return fmt.Errorf("读取上传文件失败: %w", err)
	}

	chunks := SplitText(string(data), config.AppConfig.Storage.MaxChunkChars)
	if len(chunks) == 0 {
		return fmt.Errorf("文件内容为空")
	}

	partPaths := make([]string, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := filepath.Join(config.AppConfig.Storage.UploadDir, fmt.Sprintf("%s_part_%d.txt", upload.FileID, i))
		if err := os.WriteFile(p, []byte(chunk), 0o644); err != nil {
			return fmt.Errorf("写入分块失败: %w", err)
		}
		partPaths[i] = p
		*tempPaths = append(*tempPaths, p)
		em.emit(models.JobStatusSplitting, 10+(i+1)*30/len(chunks), fmt.Sprintf("写入分块 %d/%d", i+1, len(chunks)))
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		translated, err := s.translate(ctx, chunk, targetLang)
		if err != nil {
			return fmt.Errorf("翻译第 %d/%d 块失败: %w", i+1, len(chunks), err)
		}
		if err := os.WriteFile(partPaths[i], []byte(translated), 0o644); err != nil {
			return fmt.Errorf("写入译文分块失败: %w", err)
		}
		em.emit(models.JobStatusTranslating, 40+(i+1)*50/len(chunks), fmt.Sprintf("正在翻译 %d/%d", i+1, len(chunks)))
	}

	em.emit(models.JobStatusAssembling, 92, "正在合并译文")

	parts := make([]string, len(partPaths))
	for i, p := range partPaths {
		b, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("读取译文分块失败: %w", err)
		}
		parts[i] = string(b)
	}
	if err := os.WriteFile(outPath, []byte(strings.Join(parts, "\n\n")), 0o644); err != nil {
		return fmt.Errorf("写出译文失败: %w", err)
	}
	return nil
}

func (s *translateService) runCSV(ctx context.Context, upload models.Upload, targetLang, uploadPath, outPath string, em *progressEmitter) error {
	em.emit(models.JobStatusSplitting, 5, "正在读取 CSV")

	rows, err := composeCSV(ctx, uploadPath, s.translatorFor(targetLang), func(done, total int) {
		em.emit(models.JobStatusTranslating, 10+done*80/total, fmt.Sprintf("正在翻译第 %d/%d 行", done, total))
	})
	if err != nil {
		return err
	}

	em.emit(models.JobStatusAssembling, 95, "正在写出译文")
	return writeCSV(outPath, rows)
}

func (s *translateService) runPDF(ctx context.Context, upload models.Upload, targetLang, uploadPath, outPath string, em *progressEmitter, tempPaths *[]string) error {
	fontPath := config.AppConfig.FontForLanguage(targetLang)
	if fontPath == "" {
		return fmt.Errorf("未配置 %s 的 PDF 字体", targetLang)
	}

	em.emit(models.JobStatusSplitting, 5, "正在解析 PDF")

	overlayPath := outPath + ".overlay"
	*tempPaths = append(*tempPaths, overlayPath)

	pages, err := composePDFOverlay(ctx, uploadPath, overlayPath, fontPath, s.translatorFor(targetLang), func(done, total int) {
		em.emit(models.JobStatusTranslating, 10+done*80/total, fmt.Sprintf("正在翻译第 %d/%d 页", done, total))
	})
	if err != nil {
		return err
	}

	em.emit(models.JobStatusAssembling, 92, "正在合并页面")
	return mergePDFOverlay(uploadPath, overlayPath, outPath, pages)
}
