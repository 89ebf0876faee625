package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kangsuek/translate-app/config"
	"github.com/kangsuek/translate-app/logger"
	"github.com/kangsuek/translate-app/models"
	"github.com/kangsuek/translate-app/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoredFile 返回给前端的上传结果，ID 供后续发起翻译和删除使用。
type StoredFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DownloadInfo 下载一个译文产物所需的信息。
type DownloadInfo struct {
	AbsPath      string
	ContentType  string
	DownloadName string
}

// JobController 上传服务对任务运行器的依赖：删除文件时先取消在跑任务。
type JobController interface {
	Cancel(fileID string) bool
	IsActive(fileID string) bool
}

type UploadService interface {
	// StoreFiles 校验并保存一批上传文件。任一文件不合法则整批拒绝；
	// 保存中途出错会回滚已落盘的文件。
	StoreFiles(ctx context.Context, headers []*multipart.FileHeader) ([]StoredFile, error)
	// DeleteFile 取消 fileID 的在跑任务（如有），删除其上传文件和译文产物。
	DeleteFile(ctx context.Context, fileID string) error
	// GetDownloadInfo 把译文文件名解析为受限在产物目录内的绝对路径。
	GetDownloadInfo(ctx context.Context, filename string) (DownloadInfo, error)
}

type uploadService struct {
	uploads repositories.UploadRepository
	jobs    repositories.JobRepository
	runner  JobController
}

func NewUploadService(uploads repositories.UploadRepository, jobs repositories.JobRepository, runner JobController) UploadService {
	return &uploadService{uploads: uploads, jobs: jobs, runner: runner}
}

func (s *uploadService) StoreFiles(ctx context.Context, headers []*multipart.FileHeader) ([]StoredFile, error) {
	cfg := config.AppConfig

	if len(headers) == 0 {
		return nil, newAppError(http.StatusBadRequest, "未选择任何文件", nil)
	}

	// 先整批校验再落盘，部分合法的请求不产生任何副作用
	for _, h := range headers {
		if !isFileExtensionAllowed(h.Filename) {
			return nil, newAppError(http.StatusBadRequest, "不支持的文件类型: "+h.Filename, nil)
		}
		if h.Size > cfg.Storage.MaxFileSize {
			return nil, newAppError(http.StatusBadRequest, "文件过大: "+h.Filename, nil)
		}
	}

	var stored []StoredFile
	var storedPaths []string
	cleanup := func() {
		for _, p := range storedPaths {
			os.Remove(p)
		}
		for _, f := range stored {
			if err := s.uploads.DeleteByFileID(ctx, nil, f.ID); err != nil {
				logger.Warnf("回滚上传记录失败 %s: %v", f.ID, err)
			}
		}
	}

	for _, h := range headers {
		fileID := uuid.New().String()
		safeName := sanitizeFilename(h.Filename)
		ext := strings.ToLower(filepath.Ext(safeName))
		storageName := fmt.Sprintf("%s_%s", fileID, safeName)
		dst := filepath.Join(cfg.Storage.UploadDir, storageName)

		if err := saveUploadedFile(h, dst); err != nil {
			cleanup()
			return nil, newAppError(http.StatusInternalServerError, "保存文件失败: "+h.Filename, err)
		}
		storedPaths = append(storedPaths, dst)

		upload := &models.Upload{
			FileID:       fileID,
			OriginalName: h.Filename,
			SafeName:     safeName,
			StorageName:  storageName,
			Extension:    ext,
			FileSize:     h.Size,
		}
		if err := s.uploads.Create(ctx, nil, upload); err != nil {
			cleanup()
			return nil, newAppError(http.StatusInternalServerError, "保存上传记录失败", err)
		}

		stored = append(stored, StoredFile{ID: fileID, Name: h.Filename})
		log.Printf("文件上传成功: %s (%s, %d bytes)", h.Filename, fileID, h.Size)
	}
	return stored, nil
}

func saveUploadedFile(h *multipart.FileHeader, dst string) error {
	src, err := h.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func (s *uploadService) DeleteFile(ctx context.Context, fileID string) error {
	cfg := config.AppConfig
	matched := false

	if s.runner != nil && s.runner.Cancel(fileID) {
		log.Printf("删除文件时取消在跑翻译任务: %s", fileID)
		matched = true
	}

	upload, err := s.uploads.GetByFileID(ctx, nil, fileID)
	switch {
	case err == nil:
		path := filepath.Join(cfg.Storage.UploadDir, upload.StorageName)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warnf("删除上传文件失败 %s: %v", path, err)
		}
		if err := s.uploads.DeleteByFileID(ctx, nil, fileID); err != nil {
			return newAppError(http.StatusInternalServerError, "删除上传记录失败", err)
		}
		matched = true
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return newAppError(http.StatusInternalServerError, "查询上传文件失败", err)
	}

	// 分块和译文产物名里都带 fileID，按通配删除
	patterns := []string{
		filepath.Join(cfg.Storage.UploadDir, fileID+"_part_*"),
		filepath.Join(cfg.Storage.ProcessedDir, "*_"+fileID+"_*"),
	}
	for _, pattern := range patterns {
		paths, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, p := range paths {
			if err := os.Remove(p); err != nil {
				logger.Warnf("删除文件失败 %s: %v", p, err)
				continue
			}
			matched = true
		}
	}

	if !matched {
		return newAppError(http.StatusNotFound, "没有找到对应的文件", nil)
	}
	log.Printf("文件已删除: %s", fileID)
	return nil
}

func (s *uploadService) GetDownloadInfo(ctx context.Context, filename string) (DownloadInfo, error) {
	// 路径穿越一律按不存在处理，不暴露目录结构
	if filename == "" || filename != filepath.Base(filename) ||
		strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return DownloadInfo{}, newAppError(http.StatusNotFound, "文件不存在", nil)
	}

	absPath := filepath.Join(config.AppConfig.Storage.ProcessedDir, filename)
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		return DownloadInfo{}, newAppError(http.StatusNotFound, "文件不存在", err)
	}

	downloadName := filename
	if job, err := s.jobs.GetByOutputName(ctx, nil, filename); err == nil && job.DownloadName != "" {
		downloadName = job.DownloadName
	} else {
		downloadName = stripFileIDSegment(filename)
	}

	return DownloadInfo{
		AbsPath:      absPath,
		ContentType:  getMimeType(filepath.Ext(filename)),
		DownloadName: downloadName,
	}, nil
}

// stripFileIDSegment 从产物名里去掉内部 ID 段（任务记录缺失时的兜底）。
// 产物名形如 report_3f2a...-uuid_ko.csv，去掉 UUID 段得到 report_ko.csv。
func stripFileIDSegment(filename string) string {
	parts := strings.Split(filename, "_")
	kept := parts[:0]
	for _, p := range parts {
		if len(p) == 36 && strings.Count(p, "-") == 4 {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return filename
	}
	return strings.Join(kept, "_")
}
