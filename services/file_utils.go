package services

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/kangsuek/translate-app/config"
)

// sanitizeFilename 清理上传文件名：去掉路径部分，过滤控制字符和路径分隔符，
// 连续空白折叠为下划线。清理后为空时回退到 "file"。
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '\x00':
			b.WriteRune('_')
		case unicode.IsControl(r):
			// drop
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), "_")
	if cleaned == "" || cleaned == "." {
		return "file"
	}
	return cleaned
}

func isFileExtensionAllowed(fileName string) bool {
	allowed := config.AppConfig.Storage.AllowedExtensions
	if len(allowed) == 0 {
		return true
	}

	fileExt := strings.ToLower(filepath.Ext(fileName))
	for _, ext := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "*" {
			return true
		}
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if normalized == fileExt {
			return true
		}
	}

	return false
}

func getMimeType(ext string) string {
	mimeTypes := map[string]string{
		".txt": "text/plain; charset=utf-8",
		".srt": "text/plain; charset=utf-8",
		".csv": "text/csv; charset=utf-8",
		".pdf": "application/pdf",
	}
	if mt, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}
