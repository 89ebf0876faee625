package handlers

import (
	"net/http"

	"github.com/kangsuek/translate-app/utils"

	"github.com/gin-gonic/gin"
)

// UploadFiles 接收 multipart 上传，字段名 files 支持多选，
// 兼容单文件的 file 字段
func UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "获取上传文件失败")
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}

	stored, err := getServices().Upload.StoreFiles(c.Request.Context(), headers)
	if respondServiceError(c, err) {
		return
	}

	utils.Success(c, gin.H{"files": stored})
}
