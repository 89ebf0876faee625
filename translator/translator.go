// Package translator 封装外部翻译服务调用。
package translator

import (
	"context"
	"fmt"

	"github.com/kangsuek/translate-app/config"
)

// Translator 对外的翻译能力：把 text 从 source 翻到 target。
// source 传 "auto" 表示由服务端自动检测。
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// New 按配置构造翻译客户端。
func New(cfg config.TranslatorConfig) (Translator, error) {
	switch cfg.Provider {
	case "google":
		return NewGoogleClient(cfg), nil
	case "identity":
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("unsupported translator provider: %s", cfg.Provider)
	}
}

// Identity 原样返回输入，供离线运行和测试使用。
type Identity struct{}

func (Identity) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}
