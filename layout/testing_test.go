package layout

import "unicode/utf8"

// fixedPort 是确定性的测量端口：每个字符宽度为 size*ratio。
type fixedPort struct {
	size  float64
	ratio float64
	calls int
}

func newFixedPort(ratio float64) *fixedPort { return &fixedPort{ratio: ratio} }

func (p *fixedPort) SetFont(size float64, _ FontWeight, _ string) { p.size = size }

func (p *fixedPort) Measure(text string) float64 {
	p.calls++
	return float64(utf8.RuneCountInString(text)) * p.size * p.ratio
}

func intPtr(v int) *int { return &v }

func textLayer(w, h, minSize, maxSize float64) *TextLayer {
	return &TextLayer{
		Box:         BoundingBox{X: 0, Y: 0, Width: w, Height: h},
		FontFamily:  "Inter",
		FontWeight:  WeightBold,
		MinFontSize: minSize,
		MaxFontSize: maxSize,
		LineHeight:  1.2,
		Align:       AlignCenter,
	}
}
