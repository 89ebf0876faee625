package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
)

// translateFunc 是已绑定目标语言的翻译调用。
type translateFunc func(ctx context.Context, text string) (string, error)

// composeCSV 逐单元格翻译表格（表头和数据行都翻），保持行列数和顺序不变。
// 结构化格式采用整文件失败策略：任一单元格失败即返回错误，由任务整体中止。
// onRow 在每个数据行翻译完后回调 (已完成行数, 数据行总数)。
func composeCSV(ctx context.Context, inPath string, translate translateFunc, onRow func(done, total int)) ([][]string, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 失败: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(stripBOM(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析 CSV 失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV 文件为空")
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		translated := make([]string, len(row))
		for j, cell := range row {
			if cell == "" {
				continue
			}
			t, err := translate(ctx, cell)
			if err != nil {
				return nil, fmt.Errorf("翻译第 %d 行第 %d 列失败: %w", i+1, j+1, err)
			}
			translated[j] = t
		}
		out[i] = translated

		if i > 0 && onRow != nil {
			onRow(i, len(rows)-1)
		}
	}
	return out, nil
}

func writeCSV(outPath string, rows [][]string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("写出 CSV 失败: %w", err)
	}
	return w.Error()
}

func stripBOM(b []byte) []byte {
	bom := []byte{0xEF, 0xBB, 0xBF}
	if len(b) >= 3 && bytes.Equal(b[:3], bom) {
		return b[3:]
	}
	return b
}
