package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Languages  []Language       `yaml:"languages"`
	Translator TranslatorConfig `yaml:"translator"`
	PDF        PDFConfig        `yaml:"pdf"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type StorageConfig struct {
	UploadDir         string   `yaml:"upload_dir"`
	ProcessedDir      string   `yaml:"processed_dir"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	MaxChunkChars     int      `yaml:"max_chunk_chars"`
	CleanupInterval   int      `yaml:"cleanup_interval"`
	RetentionMinutes  int      `yaml:"retention_minutes"`
}

type Language struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type TranslatorConfig struct {
	Provider          string `yaml:"provider"`
	BaseURL           string `yaml:"base_url"`
	SourceLanguage    string `yaml:"source_language"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	MaxRetries        int    `yaml:"max_retries"`
	SerializeRequests bool   `yaml:"serialize_requests"`
}

type PDFConfig struct {
	Fonts       map[string]string `yaml:"fonts"`
	DefaultFont string            `yaml:"default_font"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "translate.db"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "uploads"
	}
	if cfg.Storage.ProcessedDir == "" {
		cfg.Storage.ProcessedDir = "processed"
	}
	if len(cfg.Storage.AllowedExtensions) == 0 {
		cfg.Storage.AllowedExtensions = []string{".txt", ".srt", ".csv", ".pdf"}
	}
	if cfg.Storage.MaxFileSize == 0 {
		cfg.Storage.MaxFileSize = 20 << 20
	}
	if cfg.Storage.MaxChunkChars == 0 {
		cfg.Storage.MaxChunkChars = 4000
	}
	if cfg.Storage.RetentionMinutes == 0 {
		cfg.Storage.RetentionMinutes = 24 * 60
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []Language{
			{Code: "ko", Name: "한국어"},
			{Code: "en", Name: "English"},
			{Code: "ja", Name: "日本語"},
			{Code: "zh-CN", Name: "中文(简体)"},
		}
	}
	if cfg.Translator.Provider == "" {
		cfg.Translator.Provider = "google"
	}
	if cfg.Translator.SourceLanguage == "" {
		cfg.Translator.SourceLanguage = "auto"
	}
	if cfg.Translator.TimeoutSeconds == 0 {
		cfg.Translator.TimeoutSeconds = 20
	}
	if cfg.Translator.MaxRetries == 0 {
		cfg.Translator.MaxRetries = 3
	}
}

// IsLanguageSupported 检查目标语言是否在配置的语言列表内
func (c *Config) IsLanguageSupported(code string) bool {
	for _, l := range c.Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// FontForLanguage 返回目标语言对应的字体文件路径，未配置时回退到默认字体
func (c *Config) FontForLanguage(code string) string {
	if path, ok := c.PDF.Fonts[code]; ok && path != "" {
		return path
	}
	return c.PDF.DefaultFont
}
