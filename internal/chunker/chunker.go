// Package chunker 将长文本切分为带重叠的定长分块。
package chunker

import (
	"strings"

	"knowledge-qa-go/pkg/errs"
)

// Split 将文本按 size 个字符的窗口切分，相邻分块之间重叠 overlap 个字符。
// 切分前会把 \r\n 归一化为 \n，保证分块边界跨平台一致。
// overlap >= size 时退化为无重叠的连续切分，避免游标停滞造成死循环。
// 空白文本返回空序列，由调用方决定是否视为导入失败。
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, &errs.ValidationError{Message: "chunk size must be positive"}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(normalized) == "" {
		return nil, nil
	}

	runes := []rune(normalized)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			// 防御最后一个不满 size 的窗口：游标绝不回退
			next = end
		}
		start = next
	}
	return chunks, nil
}
