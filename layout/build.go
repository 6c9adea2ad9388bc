package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/carousel/binding"
)

// Palette 覆盖模板中的部分颜色，空字符串表示沿用模板。
type Palette struct {
	TextColor    string `json:"textColor,omitempty"`
	OverlayColor string `json:"overlayColor,omitempty"`
	AccentColor  string `json:"accentColor,omitempty"`
}

// Input 是一次布局计算所需的外部数据，均按图层 id 索引。
type Input struct {
	// Images 是图片图层对应素材的原始尺寸，缺失的图片图层会被跳过。
	Images map[string]ImageSize
	// Sources 是图片图层的素材来源，缺失时使用 DefaultSource。
	Sources map[string]string
	// Texts 覆盖文本/徽标图层的默认文案。
	Texts   map[string]string
	Palette *Palette
	// Data 用于替换文案中的 ${path} 占位符。
	Data any
}

// Build 根据模板与输入生成一张幻灯片的布局计划，Items 按绘制顺序排列。
func Build(tpl *Template, in Input, opts BuildOptions) (*Result, error) {
	if tpl == nil {
		return nil, fmt.Errorf("模板为空")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少测量后端 MeasurementPort")
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	b := builder{in: in, port: opts.Measurer}
	if in.Palette != nil {
		b.palette = *in.Palette
	}
	res := &Result{
		TemplateID: tpl.ID,
		Version:    tpl.Version,
		Width:      tpl.Width,
		Height:     tpl.Height,
		Background: optionalColor(tpl.BackgroundColor),
	}
	for _, layer := range tpl.SortedLayers() {
		item, ok, err := b.item(layer)
		if err != nil {
			return nil, fmt.Errorf("图层 %s 布局失败: %w", layer.ID, err)
		}
		if ok {
			res.Items = append(res.Items, item)
		}
	}
	return res, nil
}

type builder struct {
	in      Input
	palette Palette
	port    MeasurementPort
}

func (b *builder) item(layer *Layer) (Item, bool, error) {
	item := Item{LayerID: layer.ID, Type: layer.Kind(), ZIndex: layer.ZIndex, Box: layer.Bounds()}
	switch layer.Kind() {
	case LayerImage:
		img, ok, err := b.image(layer.ID, layer.Image)
		if err != nil || !ok {
			return Item{}, false, err
		}
		item.Image = img
	case LayerOverlay:
		item.Overlay = b.overlay(layer.Overlay)
	case LayerText:
		text, ok, err := b.text(layer.ID, layer.Text)
		if err != nil || !ok {
			return Item{}, false, err
		}
		item.Text = text
	case LayerBadge:
		item.Badge = b.badge(layer.ID, layer.Badge)
	default:
		return Item{}, false, fmt.Errorf("未知的图层类型 %q", layer.Type)
	}
	return item, true, nil
}

func (b *builder) image(id string, layer *ImageLayer) (*ImageItem, bool, error) {
	size, ok := b.in.Images[id]
	if !ok {
		return nil, false, nil
	}
	fit := layer.Fit
	if fit == "" {
		fit = FitCover
	}
	crop, err := ComputeCrop(fit, size.Width, size.Height, layer.Box.Width, layer.Box.Height)
	if err != nil {
		return nil, false, err
	}
	source := b.in.Sources[id]
	if source == "" {
		source = layer.DefaultSource
	}
	return &ImageItem{Source: source, Fit: fit, Size: size, Crop: crop}, true, nil
}

func (b *builder) overlay(layer *OverlayLayer) *OverlayItem {
	if g := layer.Gradient; g != nil {
		dir := g.Direction
		if dir == "" {
			dir = ToBottom
		}
		resolved := &ResolvedGradient{Direction: dir, Stops: make([]ResolvedStop, len(g.Stops))}
		for i, stop := range g.Stops {
			resolved.Stops[i] = ResolvedStop{Position: stop.Position, Color: resolveColor(stop.Color, Color{})}
		}
		return &OverlayItem{Gradient: resolved}
	}
	value := layer.BackgroundColor
	if b.palette.OverlayColor != "" {
		value = b.palette.OverlayColor
	}
	return &OverlayItem{Color: optionalColor(value)}
}

// content 返回图层文案：输入优先，其次默认文案，然后替换占位符。
// content 优先使用请求中的文本（原样保留），否则对模板默认文本做占位符替换。
func (b *builder) content(id, fallback string) string {
	if text, ok := b.in.Texts[id]; ok && text != "" {
		return text
	}
	return binding.Interpolate(fallback, b.in.Data)
}

func (b *builder) text(id string, layer *TextLayer) (*TextItem, bool, error) {
	content := b.content(id, layer.DefaultText)
	if strings.TrimSpace(content) == "" {
		return nil, false, nil
	}
	m, err := FitText(content, layer, b.port)
	if err != nil {
		return nil, false, err
	}
	colorValue := layer.Color
	if b.palette.TextColor != "" {
		colorValue = b.palette.TextColor
	}
	item := &TextItem{
		Content:       content,
		FontFamily:    layer.FontFamily,
		FontWeight:    layer.FontWeight,
		Color:         resolveColor(colorValue, defaultTextColor),
		Align:         layer.Align,
		LineHeight:    layer.LineHeight,
		LetterSpacing: layer.LetterSpacing,
		Measurement:   m,
		Lines:         PositionLines(m, layer.Box, layer.Align, layer.VerticalAlign, layer.LineHeight),
	}
	if s := layer.Shadow; s != nil {
		item.Shadow = &ResolvedShadow{
			OffsetX: s.OffsetX,
			OffsetY: s.OffsetY,
			Blur:    s.Blur,
			Color:   resolveColor(s.Color, Color{A: 0.5}),
		}
	}
	return item, true, nil
}

func (b *builder) badge(id string, layer *BadgeLayer) *BadgeItem {
	fill := layer.BackgroundColor
	if b.palette.AccentColor != "" {
		fill = b.palette.AccentColor
	}
	item := &BadgeItem{
		Shape:       layer.Shape,
		Fill:        optionalColor(fill),
		Border:      optionalColor(layer.BorderColor),
		BorderWidth: layer.BorderWidth,
		Radius:      badgeRadius(layer),
	}
	if item.Shape == "" {
		item.Shape = ShapeRectangle
	}
	if layer.Text != nil {
		item.Text = b.badgeText(id, layer)
	}
	return item
}

// badgeRadius 把形状换算成圆角半径：pill 取短边一半，circle 取内切圆半径。
func badgeRadius(layer *BadgeLayer) float64 {
	short := layer.Box.Width
	if layer.Box.Height < short {
		short = layer.Box.Height
	}
	switch layer.Shape {
	case ShapeRounded:
		if layer.BorderRadius > short/2 {
			return short / 2
		}
		return layer.BorderRadius
	case ShapePill, ShapeCircle:
		return short / 2
	default:
		return 0
	}
}

// badgeText 徽标文字为固定字号的单行，垂直居中。
func (b *builder) badgeText(id string, layer *BadgeLayer) *TextItem {
	spec := layer.Text
	content := b.content(id, spec.DefaultText)
	if strings.TrimSpace(content) == "" {
		return nil
	}
	content = strings.Join(strings.Fields(normalizeText(content)), " ")
	b.port.SetFont(spec.FontSize, spec.FontWeight, spec.FontFamily)
	w := b.port.Measure(content)
	m := TextMeasurement{
		Lines:        []string{content},
		FontSize:     spec.FontSize,
		TotalHeight:  spec.FontSize,
		MaxLineWidth: w,
		LineWidths:   []float64{w},
	}
	align := spec.Align
	if align == "" {
		align = AlignCenter
	}
	return &TextItem{
		Content:     content,
		FontFamily:  spec.FontFamily,
		FontWeight:  spec.FontWeight,
		Color:       resolveColor(spec.Color, defaultTextColor),
		Align:       align,
		LineHeight:  1,
		Measurement: m,
		Lines:       PositionLines(m, layer.Box, align, VAlignMiddle, 1),
	}
}
