package canvasrenderer

import (
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/carousel/layout"
)

// Measurer 使用与绘制相同的 canvas 字体面测量宽度，保证排版与最终输出一致。
// 每次渲染各用一个实例，不能在 goroutine 之间共享。
type Measurer struct {
	r    *Renderer
	size float64
	face *canvas.FontFace
}

var _ layout.MeasurementPort = (*Measurer)(nil)

// NewMeasurer 创建共享该渲染器字体缓存的测量端口。
func (r *Renderer) NewMeasurer() *Measurer {
	return &Measurer{r: r}
}

func (m *Measurer) SetFont(size float64, weight layout.FontWeight, family string) {
	m.size = size
	face, err := m.r.fontFace(family, weight, size, layout.Color{A: 1})
	if err != nil {
		logrus.WithError(err).WithField("family", family).Warn("Falling back to estimated text width")
		m.face = nil
		return
	}
	m.face = face
}

func (m *Measurer) Measure(text string) float64 {
	if text == "" {
		return 0
	}
	if m.face == nil {
		return float64(utf8.RuneCountInString(text)) * m.size * 0.55
	}
	return m.face.TextWidth(text)
}
