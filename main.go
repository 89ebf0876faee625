package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kangsuek/translate-app/config"
	"github.com/kangsuek/translate-app/database"
	"github.com/kangsuek/translate-app/handlers"
	"github.com/kangsuek/translate-app/logger"
	"github.com/kangsuek/translate-app/middleware"
	"github.com/kangsuek/translate-app/models"
	"github.com/kangsuek/translate-app/repositories"
	"github.com/kangsuek/translate-app/services"
	"github.com/kangsuek/translate-app/translator"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("starting translate-app service")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)

	if err := database.InitSQLite(&cfg.Database); err != nil {
		log.Fatalf("init sqlite failed: %v", err)
	}

	database.DB.AutoMigrate(
		&models.Upload{},
		&models.TranslationJob{},
	)
	log.Println("database migration completed")

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		log.Fatalf("create upload dir failed: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.ProcessedDir, 0o755); err != nil {
		log.Fatalf("create processed dir failed: %v", err)
	}

	trans, err := translator.New(cfg.Translator)
	if err != nil {
		log.Fatalf("init translator failed: %v", err)
	}

	repoContainer := repositories.NewGormRepositories(database.DB).BuildContainer()
	serviceContainer := services.NewContainer(repoContainer, trans)
	handlers.SetServices(serviceContainer)

	serviceContainer.Cleanup.Start()

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger())
	r.LoadHTMLGlob("templates/*")
	r.Static("/static", "./static")
	setupRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine) {
	r.GET("/", handlers.Index)
	r.GET("/health", handlers.HealthCheck)

	r.POST("/upload", handlers.UploadFiles)
	r.DELETE("/delete_file/:id", handlers.DeleteFile)

	r.POST("/start_translation", handlers.StartTranslation)
	r.GET("/translation_status/:id", handlers.TranslationStatus)
	r.GET("/progress", handlers.Progress)

	r.GET("/download/:filename", handlers.Download)
}
