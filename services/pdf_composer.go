package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/kangsuek/translate-app/logger"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/signintech/gopdf"
)

const overlayFontName = "target"

// A4（pt），MediaBox 缺失时的兜底尺寸
const (
	fallbackPageWidth  = 595.28
	fallbackPageHeight = 841.89
)

// textRun 是一段同基线、同字号的连续文本及其页面位置。
type textRun struct {
	Text     string
	X, Y     float64
	FontSize float64
}

// groupTextRuns 把文本层的逐字片段按基线 Y 和字号聚合成行级文本段。
func groupTextRuns(texts []pdf.Text) []textRun {
	var runs []textRun
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		n := len(runs)
		if n > 0 && math.Abs(t.Y-runs[n-1].Y) < 0.5 && t.FontSize == runs[n-1].FontSize {
			runs[n-1].Text += t.S
			continue
		}
		runs = append(runs, textRun{Text: t.S, X: t.X, Y: t.Y, FontSize: t.FontSize})
	}

	filtered := runs[:0]
	for _, r := range runs {
		if strings.TrimSpace(r.Text) != "" {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func pageSize(p pdf.Page) (float64, float64) {
	mb := p.V.Key("MediaBox")
	if mb.IsNull() {
		return fallbackPageWidth, fallbackPageHeight
	}
	w := mb.Index(2).Float64() - mb.Index(0).Float64()
	h := mb.Index(3).Float64() - mb.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return fallbackPageWidth, fallbackPageHeight
	}
	return w, h
}

// composePDFOverlay 提取每页的定位文本段，翻译后按原位置绘制到一个
// 同尺寸的覆盖层 PDF 上。版式格式采用单段失败容忍策略：某一段翻译失败
// 只记日志并跳过，该页其余文本照常输出。译文宽度可能超出原文本框，
// 不做缩放和重排。返回页数。
func composePDFOverlay(ctx context.Context, inPath, overlayPath, fontPath string, translate translateFunc, onPage func(done, total int)) (int, error) {
	f, r, err := pdf.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("打开 PDF 失败: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	if total == 0 {
		return 0, fmt.Errorf("PDF 文件没有页面")
	}

	ov := gopdf.GoPdf{}
	ov.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := ov.AddTTFFont(overlayFontName, fontPath); err != nil {
		return 0, fmt.Errorf("加载字体 %s 失败: %w", fontPath, err)
	}

	for pageNo := 1; pageNo <= total; pageNo++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		page := r.Page(pageNo)
		w, h := pageSize(page)
		ov.AddPageWithOption(gopdf.PageOption{PageSize: &gopdf.Rect{W: w, H: h}})
		if page.V.IsNull() {
			continue
		}

		for _, run := range groupTextRuns(page.Content().Text) {
			translated, err := translate(ctx, run.Text)
			if err != nil {
				if ctx.Err() != nil {
					return 0, ctx.Err()
				}
				logger.Warnf("PDF 第 %d 页文本段翻译失败，跳过: %v", pageNo, err)
				continue
			}

			size := run.FontSize
			if size <= 0 {
				size = 12
			}
			if err := ov.SetFont(overlayFontName, "", size); err != nil {
				return 0, fmt.Errorf("设置字体失败: %w", err)
			}
			// 文本层 Y 是自页底向上的基线，gopdf 原点在左上
			ov.SetXY(run.X, h-run.Y-size)
			if err := ov.Cell(nil, translated); err != nil {
				logger.Warnf("PDF 第 %d 页绘制译文失败，跳过: %v", pageNo, err)
			}
		}

		if onPage != nil {
			onPage(pageNo, total)
		}
	}

	if err := ov.WritePdf(overlayPath); err != nil {
		return 0, fmt.Errorf("写出覆盖层失败: %w", err)
	}
	return total, nil
}

// mergePDFOverlay 把覆盖层逐页盖印到原始页面上，
// 保留原页面的图片和矢量内容。
func mergePDFOverlay(inPath, overlayPath, outPath string, pageCount int) error {
	wmMap := make(map[int]*model.Watermark, pageCount)
	for i := 1; i <= pageCount; i++ {
		wm, err := api.PDFWatermark(fmt.Sprintf("%s:%d", overlayPath, i), "pos:c, rot:0, scale:1 abs", true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("构造第 %d 页盖印失败: %w", i, err)
		}
		wmMap[i] = wm
	}

	if err := api.AddWatermarksMapFile(inPath, outPath, wmMap, nil); err != nil {
		return fmt.Errorf("合并覆盖层失败: %w", err)
	}
	return nil
}
