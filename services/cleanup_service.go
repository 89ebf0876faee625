package services

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kangsuek/translate-app/config"
	"github.com/kangsuek/translate-app/logger"
	"github.com/kangsuek/translate-app/repositories"
)

// CleanupService 周期性清理过期的上传、残留分块、译文产物和已结束的任务记录。
type CleanupService struct {
	uploads repositories.UploadRepository
	jobs    repositories.JobRepository
	runner  JobController
}

func NewCleanupService(uploads repositories.UploadRepository, jobs repositories.JobRepository, runner JobController) *CleanupService {
	return &CleanupService{uploads: uploads, jobs: jobs, runner: runner}
}

// Start 启动后台清理循环。CleanupInterval 为 0 时不启动。
func (s *CleanupService) Start() {
	interval := time.Duration(config.AppConfig.Storage.CleanupInterval) * time.Minute
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			s.RunOnce(context.Background())
		}
	}()
	log.Printf("清理任务已启动，间隔 %v", interval)
}

// RunOnce 执行一轮清理，在跑任务的文件会被跳过。
func (s *CleanupService) RunOnce(ctx context.Context) {
	cfg := config.AppConfig
	cutoff := time.Now().Add(-time.Duration(cfg.Storage.RetentionMinutes) * time.Minute)

	uploads, err := s.uploads.ListOlderThan(ctx, nil, cutoff)
	if err != nil {
		logger.Warnf("查询过期上传失败: %v", err)
	}
	for _, u := range uploads {
		if s.runner != nil && s.runner.IsActive(u.FileID) {
			continue
		}
		path := filepath.Join(cfg.Storage.UploadDir, u.StorageName)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warnf("清理上传文件失败 %s: %v", path, err)
		}
		if err := s.uploads.DeleteByFileID(ctx, nil, u.FileID); err != nil {
			logger.Warnf("清理上传记录失败 %s: %v", u.FileID, err)
			continue
		}
		log.Printf("已清理过期上传: %s (%s)", u.OriginalName, u.FileID)
	}

	s.removeStaleFiles(cfg.Storage.UploadDir, cutoff, func(name string) bool {
		return strings.Contains(name, "_part_")
	})
	s.removeStaleFiles(cfg.Storage.ProcessedDir, cutoff, nil)

	if n, err := s.jobs.DeleteTerminalOlderThan(ctx, nil, cutoff); err != nil {
		logger.Warnf("清理任务记录失败: %v", err)
	} else if n > 0 {
		log.Printf("已清理 %d 条过期任务记录", n)
	}
}

func (s *CleanupService) removeStaleFiles(dir string, cutoff time.Time, match func(name string) bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if match != nil && !match(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			logger.Warnf("清理文件失败 %s: %v", path, err)
			continue
		}
		logger.Debugf("已清理过期文件: %s", path)
	}
}
