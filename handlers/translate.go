package handlers

import (
	"net/http"

	"github.com/kangsuek/translate-app/services"
	"github.com/kangsuek/translate-app/utils"

	"github.com/gin-gonic/gin"
)

// StartTranslation 为请求里的每个文件启动后台翻译任务
func StartTranslation(c *gin.Context) {
	var in services.StartTranslationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求格式不正确")
		return
	}

	jobIDs, err := getServices().Translate.Start(c.Request.Context(), in)
	if respondServiceError(c, err) {
		return
	}

	utils.Success(c, gin.H{
		"jobs":    jobIDs,
		"message": "翻译任务已启动",
	})
}

// TranslationStatus 查询某个文件最近一次翻译任务的状态
func TranslationStatus(c *gin.Context) {
	job, err := getServices().Translate.JobStatus(c.Request.Context(), c.Param("id"))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, job)
}
