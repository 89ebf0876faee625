package services

import (
	"github.com/kangsuek/translate-app/repositories"
	"github.com/kangsuek/translate-app/translator"
)

// Container 聚合所有业务服务，供 handlers 层统一注入。
type Container struct {
	Upload    UploadService
	Translate TranslateService
	Cleanup   *CleanupService
	Hub       *ProgressHub
}

func NewContainer(repos repositories.Container, trans translator.Translator) *Container {
	hub := NewProgressHub()
	translateSvc := NewTranslateService(repos.Uploads, repos.Jobs, hub, trans)

	return &Container{
		Upload:    NewUploadService(repos.Uploads, repos.Jobs, translateSvc),
		Translate: translateSvc,
		Cleanup:   NewCleanupService(repos.Uploads, repos.Jobs, translateSvc),
		Hub:       hub,
	}
}
