package handlers

import (
	"github.com/kangsuek/translate-app/utils"

	"github.com/gin-gonic/gin"
)

// DeleteFile 删除一个上传文件及其所有派生产物，在跑的翻译任务会被取消
func DeleteFile(c *gin.Context) {
	if err := getServices().Upload.DeleteFile(c.Request.Context(), c.Param("id")); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"message": "文件已删除"})
}
