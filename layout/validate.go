package layout

import (
	"fmt"
	"sort"
)

// Validate 检查文本图层配置，在任何适配计算之前失败。
func (t *TextLayer) Validate() error {
	if t.MinFontSize <= 0 {
		return fmt.Errorf("minFontSize=%g 必须为正数: %w", t.MinFontSize, ErrInvalidLayerConfig)
	}
	if t.MinFontSize > t.MaxFontSize {
		return fmt.Errorf("minFontSize=%g 大于 maxFontSize=%g: %w", t.MinFontSize, t.MaxFontSize, ErrInvalidLayerConfig)
	}
	if t.LineHeight <= 0 {
		return fmt.Errorf("lineHeight=%g 必须为正数: %w", t.LineHeight, ErrInvalidLayerConfig)
	}
	if t.MaxLines != nil && *t.MaxLines < 1 {
		return fmt.Errorf("maxLines=%d 至少为 1: %w", *t.MaxLines, ErrInvalidLayerConfig)
	}
	switch t.Align {
	case AlignLeft, AlignCenter, AlignRight, "":
	default:
		return fmt.Errorf("未知的 align %q: %w", t.Align, ErrInvalidLayerConfig)
	}
	switch t.VerticalAlign {
	case VAlignTop, VAlignMiddle, VAlignBottom, "":
	default:
		return fmt.Errorf("未知的 verticalAlign %q: %w", t.VerticalAlign, ErrInvalidLayerConfig)
	}
	return nil
}

// Validate 检查渐变：色标位置位于 [0,1] 且升序。
func (g *Gradient) Validate() error {
	if g.Type != "" && g.Type != "linear" {
		return fmt.Errorf("不支持的渐变类型 %q: %w", g.Type, ErrInvalidLayerConfig)
	}
	switch g.Direction {
	case ToBottom, ToTop, ToLeft, ToRight, "":
	default:
		return fmt.Errorf("未知的渐变方向 %q: %w", g.Direction, ErrInvalidLayerConfig)
	}
	if len(g.Stops) == 0 {
		return fmt.Errorf("渐变缺少色标: %w", ErrInvalidLayerConfig)
	}
	for i, stop := range g.Stops {
		if stop.Position < 0 || stop.Position > 1 {
			return fmt.Errorf("色标 %d 的位置 %g 超出 [0,1]: %w", i, stop.Position, ErrInvalidLayerConfig)
		}
		if i > 0 && stop.Position < g.Stops[i-1].Position {
			return fmt.Errorf("色标 %d 未按位置升序排列: %w", i, ErrInvalidLayerConfig)
		}
		if _, err := ParseColor(stop.Color); err != nil {
			return fmt.Errorf("色标 %d: %v: %w", i, err, ErrInvalidLayerConfig)
		}
	}
	return nil
}

// Validate 检查单个图层。不可见图层只检查结构，不要求框尺寸为正。
func (l *Layer) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("图层缺少 id: %w", ErrInvalidLayerConfig)
	}
	if l.Type != "" && l.Type != l.Kind() {
		return fmt.Errorf("图层 %s 的 type=%q 与内容不符: %w", l.ID, l.Type, ErrInvalidLayerConfig)
	}
	if l.IsVisible() {
		box := l.Bounds()
		if !(box.Width > 0 && box.Height > 0) {
			return fmt.Errorf("图层 %s 的框尺寸 %gx%g 非法: %w", l.ID, box.Width, box.Height, ErrInvalidDimensions)
		}
	}

	var err error
	switch l.Kind() {
	case LayerImage:
		switch l.Image.Fit {
		case FitCover, FitContain, FitFill, "":
		default:
			err = fmt.Errorf("未知的 fit %q: %w", l.Image.Fit, ErrInvalidLayerConfig)
		}
	case LayerOverlay:
		if l.Overlay.Gradient != nil {
			err = l.Overlay.Gradient.Validate()
		} else {
			err = checkColor("backgroundColor", l.Overlay.BackgroundColor)
		}
	case LayerText:
		if err = l.Text.Validate(); err == nil {
			err = checkColor("color", l.Text.Color)
		}
		if err == nil && l.Text.Shadow != nil {
			err = checkColor("shadow.color", l.Text.Shadow.Color)
		}
	case LayerBadge:
		err = l.Badge.validate()
	default:
		err = fmt.Errorf("图层缺少内容: %w", ErrInvalidLayerConfig)
	}
	if err != nil {
		return fmt.Errorf("图层 %s: %w", l.ID, err)
	}
	return nil
}

func (b *BadgeLayer) validate() error {
	switch b.Shape {
	case ShapeRectangle, ShapeRounded, ShapePill, ShapeCircle, "":
	default:
		return fmt.Errorf("未知的徽标形状 %q: %w", b.Shape, ErrInvalidLayerConfig)
	}
	if b.BorderWidth < 0 || b.BorderRadius < 0 {
		return fmt.Errorf("边框宽度与圆角不能为负: %w", ErrInvalidLayerConfig)
	}
	if err := checkColor("backgroundColor", b.BackgroundColor); err != nil {
		return err
	}
	if err := checkColor("borderColor", b.BorderColor); err != nil {
		return err
	}
	if b.Text != nil {
		if b.Text.FontSize <= 0 {
			return fmt.Errorf("徽标文字字号 %g 必须为正数: %w", b.Text.FontSize, ErrInvalidLayerConfig)
		}
		if err := checkColor("text.color", b.Text.Color); err != nil {
			return err
		}
	}
	return nil
}

// Validate 检查模板整体：画布尺寸、图层 id 唯一性以及每个图层。
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("模板缺少 id: %w", ErrInvalidLayerConfig)
	}
	if !(t.Width > 0 && t.Height > 0) {
		return fmt.Errorf("模板 %s 的画布尺寸 %gx%g 非法: %w", t.ID, t.Width, t.Height, ErrInvalidDimensions)
	}
	if err := checkColor("backgroundColor", t.BackgroundColor); err != nil {
		return fmt.Errorf("模板 %s: %w", t.ID, err)
	}
	seen := make(map[string]bool, len(t.Layers))
	for i := range t.Layers {
		layer := &t.Layers[i]
		if seen[layer.ID] {
			return fmt.Errorf("模板 %s 中图层 id %q 重复: %w", t.ID, layer.ID, ErrInvalidLayerConfig)
		}
		seen[layer.ID] = true
		if err := layer.Validate(); err != nil {
			return fmt.Errorf("模板 %s: %w", t.ID, err)
		}
	}
	return nil
}

// SortedLayers 返回按 zIndex 升序的可见图层，相同 zIndex 保持模板中的原顺序。
func (t *Template) SortedLayers() []*Layer {
	out := make([]*Layer, 0, len(t.Layers))
	for i := range t.Layers {
		if t.Layers[i].IsVisible() {
			out = append(out, &t.Layers[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func checkColor(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := ParseColor(value); err != nil {
		return fmt.Errorf("%s: %v: %w", field, err, ErrInvalidLayerConfig)
	}
	return nil
}
