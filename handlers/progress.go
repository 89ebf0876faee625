package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const progressHeartbeat = 30 * time.Second

// Progress 以 SSE 推送所有任务的进度事件。
// 事件名固定为 file_progress，数据体带 file_id，由前端按文件分发。
func Progress(c *gin.Context) {
	ch, unsubscribe := getServices().Hub.Subscribe()
	defer unsubscribe()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	clientGone := c.Request.Context().Done()
	heartbeat := time.NewTicker(progressHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("file_progress", ev)
			return true
		case <-heartbeat.C:
			// 心跳保活，穿透代理的空闲超时
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
