package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// TotalHeight 计算多行文本的总高度：首行占一个字号，其余每行占 fontSize*lineHeight。
func TotalHeight(lineCount int, fontSize, lineHeight float64) float64 {
	switch {
	case lineCount <= 0:
		return 0
	case lineCount == 1:
		return fontSize
	default:
		return fontSize + float64(lineCount-1)*fontSize*lineHeight
	}
}

type fitAttempt struct {
	fits   bool
	lines  []string
	height float64
	widths []float64
	maxW   float64
}

// fitter 把一次 FitText 调用需要的参数收拢在一起。
type fitter struct {
	text  string
	layer *TextLayer
	m     measurer
}

func (f fitter) wrapAt(size float64) []string {
	f.m.port.SetFont(size, f.layer.FontWeight, f.layer.FontFamily)
	return wrapWith(f.m, f.text, f.layer.Box.Width)
}

func (f fitter) try(size float64) fitAttempt {
	lines := f.wrapAt(size)
	if f.layer.MaxLines != nil && len(lines) > *f.layer.MaxLines {
		return fitAttempt{lines: lines}
	}
	height := TotalHeight(len(lines), size, f.layer.LineHeight)
	if height > f.layer.Box.Height {
		return fitAttempt{lines: lines, height: height}
	}
	widths, maxW := f.measureLines(lines)
	return fitAttempt{fits: true, lines: lines, height: height, widths: widths, maxW: maxW}
}

func (f fitter) measureLines(lines []string) ([]float64, float64) {
	widths := make([]float64, len(lines))
	maxW := 0.0
	for i, line := range lines {
		widths[i] = f.m.width(line)
		maxW = math.Max(maxW, widths[i])
	}
	return widths, maxW
}

// FitText 在 [MinFontSize, MaxFontSize] 的整数字号内二分查找能放进文本框的最大字号。
//
// 二分依赖一个假设：字号越大越不容易放下（对常见字体成立，并非对任意测量函数都成立）。
// 配置非法时返回 ErrInvalidLayerConfig；文本过长本身不是错误：即使最小字号也放不下时，
// 返回以最小字号换行的兜底结果并把 Overflowed 置为 true。设置了 MaxLines 时，兜底结果
// 保留前 MaxLines-1 行，剩余的原文（空白已规整）整体作为最后一行，因此行数永远不超过 MaxLines。
func FitText(text string, layer *TextLayer, port MeasurementPort) (TextMeasurement, error) {
	if layer == nil {
		return TextMeasurement{}, fmt.Errorf("文本图层为空: %w", ErrInvalidLayerConfig)
	}
	if err := layer.Validate(); err != nil {
		return TextMeasurement{}, err
	}
	if port == nil {
		return TextMeasurement{}, fmt.Errorf("layout: 缺少测量后端 MeasurementPort")
	}
	f := fitter{text: text, layer: layer, m: measurer{port: port, letterSpacing: layer.LetterSpacing}}

	var best *TextMeasurement
	record := func(size float64, a fitAttempt) {
		best = &TextMeasurement{
			Lines:        a.lines,
			FontSize:     size,
			TotalHeight:  a.height,
			MaxLineWidth: a.maxW,
			LineWidths:   a.widths,
		}
	}

	low, high := layer.MinFontSize, layer.MaxFontSize
	for high-low >= 1 {
		mid := math.Floor((low + high) / 2)
		if mid < low {
			mid = low
		}
		if a := f.try(mid); a.fits {
			record(mid, a)
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	// 循环结束时 low 可能是尚未验证过的更大字号
	if low <= layer.MaxFontSize && (best == nil || low > best.FontSize) {
		if a := f.try(low); a.fits {
			record(low, a)
		}
	}
	if best != nil {
		return *best, nil
	}
	return f.overflow(), nil
}

// overflow 生成最小字号下的兜底排版。
func (f fitter) overflow() TextMeasurement {
	size := f.layer.MinFontSize
	lines := f.wrapAt(size)
	if f.layer.MaxLines != nil && len(lines) > *f.layer.MaxLines {
		lines = collapseLines(f.text, lines, *f.layer.MaxLines)
	}
	widths, maxW := f.measureLines(lines)
	return TextMeasurement{
		Lines:        lines,
		FontSize:     size,
		TotalHeight:  TotalHeight(len(lines), size, f.layer.LineHeight),
		MaxLineWidth: maxW,
		LineWidths:   widths,
		Overflowed:   true,
	}
}

// collapseLines 保留前 limit-1 行，最后一行取原文中尚未排出的部分。
// 被强制切开的单词在最后一行里恢复原样，不会插入额外空格。
func collapseLines(text string, lines []string, limit int) []string {
	if limit < 1 || len(lines) <= limit {
		return lines
	}
	out := append([]string(nil), lines[:limit-1]...)
	consumed := 0
	for _, line := range out {
		for _, piece := range strings.Fields(line) {
			consumed += utf8.RuneCountInString(piece)
		}
	}
	words := strings.Fields(normalizeText(text))
	for i, word := range words {
		runes := []rune(word)
		if consumed >= len(runes) {
			consumed -= len(runes)
			continue
		}
		rest := append([]string{string(runes[consumed:])}, words[i+1:]...)
		return append(out, strings.Join(rest, " "))
	}
	return append(out, "")
}
