package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kangsuek/translate-app/models"
)

type namedFile struct {
	name    string
	content string
}

func makeFileHeaders(t *testing.T, files []namedFile) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		fw, err := w.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatalf("create form file failed: %v", err)
		}
		if _, err := fw.Write([]byte(f.content)); err != nil {
			t.Fatalf("write form file failed: %v", err)
		}
	}
	w.Close()

	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart failed: %v", err)
	}
	return req.MultipartForm.File["files"]
}

func TestStoreFilesSavesBatch(t *testing.T) {
	cfg := setTestConfig(t)
	uploads := newFakeUploadRepo()
	svc := NewUploadService(uploads, newFakeJobRepo(), &fakeRunner{})

	headers := makeFileHeaders(t, []namedFile{
		{"first.txt", "hello"},
		{"second.srt", "1\n00:00:01,000 --> 00:00:02,000\nhi\n"},
	})

	stored, err := svc.StoreFiles(context.Background(), headers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored files, got %d", len(stored))
	}
	if stored[0].Name != "first.txt" || stored[0].ID == "" {
		t.Fatalf("unexpected stored entry: %+v", stored[0])
	}

	for _, f := range stored {
		upload, err := uploads.GetByFileID(context.Background(), nil, f.ID)
		if err != nil {
			t.Fatalf("upload row missing for %s", f.ID)
		}
		if !strings.HasPrefix(upload.StorageName, f.ID+"_") {
			t.Fatalf("storage name should embed file id, got %s", upload.StorageName)
		}
		if _, err := os.Stat(filepath.Join(cfg.Storage.UploadDir, upload.StorageName)); err != nil {
			t.Fatalf("stored file missing on disk: %v", err)
		}
	}
}

func TestStoreFilesRejectsWholeBatchOnBadExtension(t *testing.T) {
	cfg := setTestConfig(t)
	uploads := newFakeUploadRepo()
	svc := NewUploadService(uploads, newFakeJobRepo(), &fakeRunner{})

	headers := makeFileHeaders(t, []namedFile{
		{"good.txt", "fine"},
		{"evil.exe", "nope"},
	})

	_, err := svc.StoreFiles(context.Background(), headers)
	appErr, ok := err.(*AppError)
	if !ok || appErr.HTTPCode != 400 {
		t.Fatalf("expected 400 AppError, got %v", err)
	}

	// 合法的那个文件也不应落盘
	entries, _ := os.ReadDir(cfg.Storage.UploadDir)
	if len(entries) != 0 {
		t.Fatalf("expected no files stored, found %d", len(entries))
	}
	if uploads.count() != 0 {
		t.Fatalf("expected no upload rows")
	}
}

func TestStoreFilesRejectsOversized(t *testing.T) {
	cfg := setTestConfig(t)
	cfg.Storage.MaxFileSize = 4
	svc := NewUploadService(newFakeUploadRepo(), newFakeJobRepo(), &fakeRunner{})

	headers := makeFileHeaders(t, []namedFile{{"big.txt", "way too large"}})

	_, err := svc.StoreFiles(context.Background(), headers)
	appErr, ok := err.(*AppError)
	if !ok || appErr.HTTPCode != 400 {
		t.Fatalf("expected 400 for oversized file, got %v", err)
	}
}

func TestStoreFilesEmptyRequest(t *testing.T) {
	setTestConfig(t)
	svc := NewUploadService(newFakeUploadRepo(), newFakeJobRepo(), &fakeRunner{})

	_, err := svc.StoreFiles(context.Background(), nil)
	appErr, ok := err.(*AppError)
	if !ok || appErr.HTTPCode != 400 {
		t.Fatalf("expected 400 for empty request, got %v", err)
	}
}

func TestDeleteFileRemovesUploadAndArtifacts(t *testing.T) {
	cfg := setTestConfig(t)
	uploads := newFakeUploadRepo()
	runner := &fakeRunner{}
	svc := NewUploadService(uploads, newFakeJobRepo(), runner)

	upload := writeUpload(t, cfg.Storage.UploadDir, "del-1", "doc.txt", "content")
	uploads.Create(context.Background(), nil, &upload)

	partPath := filepath.Join(cfg.Storage.UploadDir, "del-1_part_0.txt")
	os.WriteFile(partPath, []byte("part"), 0o644)
	artifactPath := filepath.Join(cfg.Storage.ProcessedDir, "doc_del-1_ko.txt")
	os.WriteFile(artifactPath, []byte("translated"), 0o644)

	if err := svc.DeleteFile(context.Background(), "del-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range []string{filepath.Join(cfg.Storage.UploadDir, upload.StorageName), partPath, artifactPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be removed", p)
		}
	}
	if uploads.count() != 0 {
		t.Fatalf("expected upload row deleted")
	}
	if len(runner.canceled) != 1 || runner.canceled[0] != "del-1" {
		t.Fatalf("expected cancel attempt for del-1, got %v", runner.canceled)
	}
}

func TestDeleteFileUnknownIDReturns404(t *testing.T) {
	setTestConfig(t)
	svc := NewUploadService(newFakeUploadRepo(), newFakeJobRepo(), &fakeRunner{})

	err := svc.DeleteFile(context.Background(), "ghost")
	appErr, ok := err.(*AppError)
	if !ok || appErr.HTTPCode != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestDeleteFileCancelAloneCountsAsMatch(t *testing.T) {
	setTestConfig(t)
	runner := &fakeRunner{activeID: "running-1"}
	svc := NewUploadService(newFakeUploadRepo(), newFakeJobRepo(), runner)

	// 任务在跑但还没有产物，删除请求应成功并触发取消
	if err := svc.DeleteFile(context.Background(), "running-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetDownloadInfoRejectsTraversal(t *testing.T) {
	setTestConfig(t)
	svc := NewUploadService(newFakeUploadRepo(), newFakeJobRepo(), &fakeRunner{})

	for _, name := range []string{"", "..", "../secret.txt", "a/../../b.txt", `a\b.txt`, "dir/file.txt"} {
		_, err := svc.GetDownloadInfo(context.Background(), name)
		appErr, ok := err.(*AppError)
		if !ok || appErr.HTTPCode != 404 {
			t.Fatalf("expected 404 for %q, got %v", name, err)
		}
	}
}

func TestGetDownloadInfoMissingFileReturns404(t *testing.T) {
	setTestConfig(t)
	svc := NewUploadService(newFakeUploadRepo(), newFakeJobRepo(), &fakeRunner{})

	_, err := svc.GetDownloadInfo(context.Background(), "nope.txt")
	appErr, ok := err.(*AppError)
	if !ok || appErr.HTTPCode != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestGetDownloadInfoUsesJobDownloadName(t *testing.T) {
	cfg := setTestConfig(t)
	jobs := newFakeJobRepo()
	svc := NewUploadService(newFakeUploadRepo(), jobs, &fakeRunner{})

	outputName := "story_0b0e47f2-9f2c-4a62-9b3e-0a4c2d8e1f11_ko.txt"
	os.WriteFile(filepath.Join(cfg.Storage.ProcessedDir, outputName), []byte("x"), 0o644)
	jobs.Create(context.Background(), nil, &models.TranslationJob{
		FileID:       "0b0e47f2-9f2c-4a62-9b3e-0a4c2d8e1f11",
		Status:       models.JobStatusCompleted,
		OutputName:   outputName,
		DownloadName: "이야기_ko.txt",
	})

	info, err := svc.GetDownloadInfo(context.Background(), outputName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.DownloadName != "이야기_ko.txt" {
		t.Fatalf("expected download name from job row, got %s", info.DownloadName)
	}
	if info.ContentType != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type: %s", info.ContentType)
	}
}

func TestGetDownloadInfoFallsBackToStrippedName(t *testing.T) {
	cfg := setTestConfig(t)
	svc := NewUploadService(newFakeUploadRepo(), newFakeJobRepo(), &fakeRunner{})

	outputName := "report_0b0e47f2-9f2c-4a62-9b3e-0a4c2d8e1f11_en.csv"
	os.WriteFile(filepath.Join(cfg.Storage.ProcessedDir, outputName), []byte("x"), 0o644)

	info, err := svc.GetDownloadInfo(context.Background(), outputName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.DownloadName != "report_en.csv" {
		t.Fatalf("expected stripped name, got %s", info.DownloadName)
	}
}

func TestStripFileIDSegment(t *testing.T) {
	got := stripFileIDSegment("a_0b0e47f2-9f2c-4a62-9b3e-0a4c2d8e1f11_ko.txt")
	if got != "a_ko.txt" {
		t.Fatalf("unexpected result: %s", got)
	}
	// 没有 UUID 段时原样返回
	if got := stripFileIDSegment("plain_name.txt"); got != "plain_name.txt" {
		t.Fatalf("unexpected result: %s", got)
	}
}
