package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/kangsuek/translate-app/config"

	"github.com/go-resty/resty/v2"
)

const defaultGoogleBaseURL = "https://translate.googleapis.com"

// GoogleClient 调用 Google 翻译的 gtx 接口（deep-translator 同款端点）。
type GoogleClient struct {
	http       *resty.Client
	baseURL    string
	maxRetries int
}

func NewGoogleClient(cfg config.TranslatorConfig) *GoogleClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultGoogleBaseURL
	}
	c := resty.New().SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	return &GoogleClient{http: c, baseURL: base, maxRetries: cfg.MaxRetries}
}

func (c *GoogleClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if source == "" {
		source = "auto"
	}

	url := c.baseURL + "/translate_a/single"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		r, err := c.http.R().SetContext(ctx).
			SetQueryParams(map[string]string{
				"client": "gtx",
				"sl":     source,
				"tl":     target,
				"dt":     "t",
				"q":      text,
			}).
			Get(url)
		if err != nil {
			lastErr = err
		} else if r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500 {
			lastErr = fmt.Errorf("translate API status %d: %s", r.StatusCode(), abbreviate(r.String(), 200))
		} else if r.IsError() {
			return "", fmt.Errorf("translate API status %d: %s", r.StatusCode(), abbreviate(r.String(), 200))
		} else {
			return parseGtxResponse(r.Body())
		}

		if attempt < c.maxRetries {
			wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	return "", fmt.Errorf("translate failed after %d retries: %w", c.maxRetries, lastErr)
}

// parseGtxResponse 解析 gtx 返回的嵌套数组：
// [[["译文1","原文1",...],["译文2",...]],...] — 拼接第一层所有片段的译文。
func parseGtxResponse(body []byte) (string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid translate response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty translate response")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", fmt.Errorf("invalid translate segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(seg[0], &piece); err != nil {
			continue
		}
		b.WriteString(piece)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("no translation in response: %s", abbreviate(string(body), 200))
	}
	return b.String(), nil
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
