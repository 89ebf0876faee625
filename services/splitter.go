package services

import "strings"

// SplitText 将文本按空行分段并累积成不超过 maxChars 的块。
// 上限是建议值：单个段落超长时整段输出，不做截断。
// 按索引顺序拼接各块即可还原原文的段落序列（空行分隔符会被归一化）。
func SplitText(text string, maxChars int) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	paragraphs := strings.Split(normalized, "\n\n")

	var chunks []string
	var buf strings.Builder
	for _, para := range paragraphs {
		if strings.TrimSpace(para) == "" {
			continue
		}

		addition := para
		if buf.Len() > 0 {
			addition = "\n\n" + para
		}

		if buf.Len() > 0 && buf.Len()+len(addition) >= maxChars {
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
			buf.WriteString(para)
			continue
		}
		buf.WriteString(addition)
	}

	if strings.TrimSpace(buf.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(buf.String()))
	}
	return chunks
}
