package handlers

import (
	"github.com/kangsuek/translate-app/utils"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "translate-app",
	})
}
