package layout

// ResolveTextY 根据垂直对齐返回文本块顶部的 Y 坐标。不做裁剪：
// 文本高于框时（兜底排版）得到的坐标会超出框的范围，由合成方决定如何处理。
func ResolveTextY(boxY, boxHeight, totalTextHeight float64, valign VerticalAlign) float64 {
	switch valign {
	case VAlignTop:
		return boxY
	case VAlignBottom:
		return boxY + boxHeight - totalTextHeight
	default:
		return boxY + (boxHeight-totalTextHeight)/2
	}
}

// ResolveLineX 根据水平对齐返回一行文本左端的 X 坐标，同样不做裁剪。
func ResolveLineX(boxX, boxWidth, lineWidth float64, align TextAlign) float64 {
	switch align {
	case AlignLeft:
		return boxX
	case AlignRight:
		return boxX + boxWidth - lineWidth
	default:
		return boxX + (boxWidth-lineWidth)/2
	}
}

// PositionLines 把适配结果转换为逐行的绘制坐标（行顶部）。
// 第 i 行位于 startY + i*fontSize*lineHeight，与 TotalHeight 的计算一致。
func PositionLines(m TextMeasurement, box BoundingBox, align TextAlign, valign VerticalAlign, lineHeight float64) []PositionedLine {
	startY := ResolveTextY(box.Y, box.Height, m.TotalHeight, valign)
	step := m.FontSize * lineHeight
	out := make([]PositionedLine, len(m.Lines))
	for i, line := range m.Lines {
		w := 0.0
		if i < len(m.LineWidths) {
			w = m.LineWidths[i]
		}
		out[i] = PositionedLine{
			Content: line,
			X:       ResolveLineX(box.X, box.Width, w, align),
			Y:       startY + float64(i)*step,
			Width:   w,
		}
	}
	return out
}
