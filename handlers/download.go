package handlers

import (
	"github.com/gin-gonic/gin"
)

// Download 下载译文产物，响应里的文件名还原为用户视角的名字
func Download(c *gin.Context) {
	info, err := getServices().Upload.GetDownloadInfo(c.Request.Context(), c.Param("filename"))
	if respondServiceError(c, err) {
		return
	}

	c.Header("Content-Type", info.ContentType)
	c.FileAttachment(info.AbsPath, info.DownloadName)
}
