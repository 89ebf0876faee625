package handlers

import (
	"net/http"
	"strings"

	"github.com/kangsuek/translate-app/config"

	"github.com/gin-gonic/gin"
)

// Index 渲染上传页面，语言列表和允许的扩展名来自配置
func Index(c *gin.Context) {
	cfg := config.AppConfig
	c.HTML(http.StatusOK, "index.html", gin.H{
		"languages":  cfg.Languages,
		"extensions": strings.Join(cfg.Storage.AllowedExtensions, ","),
	})
}
