package layout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// measurer 在测量端口之上叠加字间距。
type measurer struct {
	port          MeasurementPort
	letterSpacing float64
}

func (m measurer) width(s string) float64 {
	w := m.port.Measure(s)
	if m.letterSpacing != 0 {
		w += m.letterSpacing * float64(utf8.RuneCountInString(s))
	}
	return w
}

// WrapText 按 maxWidth 对文本做贪心换行，调用前端口上必须已经设置好字体。
//
// 规则：
//   - 显式换行符划分段落，空段落输出一个空行；
//   - 段内按空白分词，尽量把单词放到当前行；
//   - 单个单词本身超宽时，反复切出仍能放下的最长前缀，每次至少消耗一个字符。
//
// 除了单个字符就比 maxWidth 更宽的情况，输出的每一行宽度都不超过 maxWidth。
func WrapText(port MeasurementPort, text string, maxWidth, letterSpacing float64) []string {
	return wrapWith(measurer{port: port, letterSpacing: letterSpacing}, text, maxWidth)
}

func wrapWith(m measurer, text string, maxWidth float64) []string {
	text = normalizeText(text)
	if strings.TrimSpace(text) == "" {
		return []string{""}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, wrapParagraph(m, words, maxWidth)...)
	}
	return lines
}

func wrapParagraph(m measurer, words []string, maxWidth float64) []string {
	var lines []string
	current := ""
	for _, word := range words {
		if current != "" {
			candidate := current + " " + word
			if m.width(candidate) <= maxWidth {
				current = candidate
				continue
			}
			lines = append(lines, current)
		}
		current = word
		// 单词本身放不下时强制切分
		for m.width(current) > maxWidth && utf8.RuneCountInString(current) > 1 {
			head, tail := splitLongWord(m, current, maxWidth)
			lines = append(lines, head)
			current = tail
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// splitLongWord 二分查找能放进 maxWidth 的最长前缀（按 rune 计），至少返回一个字符，
// 且 tail 永远非空。word 至少包含两个字符。
func splitLongWord(m measurer, word string, maxWidth float64) (string, string) {
	runes := []rune(word)
	lo, hi := 1, len(runes)-1
	best := 1
	for lo <= hi {
		mid := (lo + hi) / 2
		if m.width(string(runes[:mid])) <= maxWidth {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:best]), string(runes[best:])
}

// normalizeText 统一换行符并做 NFC 组合，避免把组合字符拆到两行。
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}
