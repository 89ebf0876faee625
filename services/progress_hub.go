package services

import "sync"

const (
	ProgressStatusRunning   = "progress"
	ProgressStatusCompleted = "completed"
	ProgressStatusFailed    = "failed"
)

// ProgressEvent 按文件推送的进度事件。状态用显式标签区分进行中/完成/失败，
// 不再用 0% 兼作错误信号。completed 事件必带 download_filename。
type ProgressEvent struct {
	FileID           string `json:"file_id"`
	Status           string `json:"status"`
	Percentage       int    `json:"percentage"`
	Message          string `json:"message"`
	DownloadFilename string `json:"download_filename,omitempty"`
}

// ProgressHub 把任务进度广播给所有 SSE 订阅者。
// 订阅者各持一个带缓冲 channel；消费慢时丢弃事件而不是阻塞任务。
type ProgressHub struct {
	mu   sync.Mutex
	subs map[chan ProgressEvent]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: make(map[chan ProgressEvent]struct{})}
}

func (h *ProgressHub) Subscribe() (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

func (h *ProgressHub) Publish(ev ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount 仅用于测试和调试
func (h *ProgressHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
