package layout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// 该文件定义模板、图层与布局结果，供模板解析、布局计算、合成渲染与调试 JSON 共用。
// 所有坐标与尺寸均为画布单位（px）。

// 常用的竖版（story/reel）画布尺寸，仅作为模板默认值。
const (
	DefaultCanvasWidth  = 1080
	DefaultCanvasHeight = 1920
)

// BoundingBox 是画布坐标系下的轴对齐矩形。JSON 形式为 [x, y, width, height]。
type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MarshalJSON 输出四元组形式。
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X, b.Y, b.Width, b.Height})
}

// UnmarshalJSON 同时接受 [x,y,w,h] 与 {"x":..,"y":..,"width":..,"height":..}。
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var tuple []float64
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) != 4 {
			return fmt.Errorf("box 需要 4 个数值，实际 %d 个", len(tuple))
		}
		*b = BoundingBox{X: tuple[0], Y: tuple[1], Width: tuple[2], Height: tuple[3]}
		return nil
	}
	var obj struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("无法解析 box: %w", err)
	}
	*b = BoundingBox{X: obj.X, Y: obj.Y, Width: obj.Width, Height: obj.Height}
	return nil
}

// LayerType 标识图层变体。
type LayerType string

const (
	LayerImage   LayerType = "image"
	LayerOverlay LayerType = "overlay"
	LayerText    LayerType = "text"
	LayerBadge   LayerType = "badge"
)

// Fit 描述图片填充方式。
//
// cover 与 contain 由 ComputeCoverCrop/ComputeContainCrop 计算；
// fill 直接把整张图拉伸到目标框，两个方向的缩放比例可以不同。
type Fit string

const (
	FitCover   Fit = "cover"
	FitContain Fit = "contain"
	FitFill    Fit = "fill"
)

// TextAlign 是水平对齐方式。
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// VerticalAlign 是文本块在框内的垂直对齐方式，缺省为 middle。
type VerticalAlign string

const (
	VAlignTop    VerticalAlign = "top"
	VAlignMiddle VerticalAlign = "middle"
	VAlignBottom VerticalAlign = "bottom"
)

// BadgeShape 是徽标外形。
type BadgeShape string

const (
	ShapeRectangle BadgeShape = "rectangle"
	ShapeRounded   BadgeShape = "rounded"
	ShapePill      BadgeShape = "pill"
	ShapeCircle    BadgeShape = "circle"
)

// GradientDirection 是线性渐变方向。
type GradientDirection string

const (
	ToBottom GradientDirection = "to-bottom"
	ToTop    GradientDirection = "to-top"
	ToLeft   GradientDirection = "to-left"
	ToRight  GradientDirection = "to-right"
)

// FontWeight 采用 CSS 数值字重（100-900）。JSON 中也接受 "normal"/"bold"。
type FontWeight int

const (
	WeightNormal FontWeight = 400
	WeightMedium FontWeight = 500
	WeightBold   FontWeight = 700
)

// ParseFontWeight 解析数值或关键字形式的字重。
func ParseFontWeight(value string) (FontWeight, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "normal", "regular":
		return WeightNormal, nil
	case "medium":
		return WeightMedium, nil
	case "semibold", "demibold":
		return 600, nil
	case "bold":
		return WeightBold, nil
	case "extrabold":
		return 800, nil
	case "black", "heavy":
		return 900, nil
	case "light":
		return 300, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("无法识别的字重 %q", value)
	}
	return FontWeight(n), nil
}

// UnmarshalJSON 接受数字或字符串。
func (w *FontWeight) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*w = FontWeight(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("fontWeight 必须是数字或字符串: %w", err)
	}
	parsed, err := ParseFontWeight(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// TextShadow 描述文字阴影，颜色为 CSS 颜色字符串。
type TextShadow struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Blur    float64 `json:"blur"`
	Color   string  `json:"color"`
}

// GradientStop 是渐变色标，Position 位于 [0,1]。
type GradientStop struct {
	Position float64 `json:"position"`
	Color    string  `json:"color"`
}

// Gradient 目前只支持线性渐变。
type Gradient struct {
	Type      string            `json:"type"`
	Direction GradientDirection `json:"direction"`
	Stops     []GradientStop    `json:"stops"`
}

// Layer 是模板中的一个可视元素。公共字段之外，Image/Overlay/Text/Badge 有且仅有一个非空。
// zIndex 只决定绘制顺序（稳定排序，相同值保持原顺序），不要求唯一。
type Layer struct {
	ID      string    `json:"id"`
	Type    LayerType `json:"type"`
	ZIndex  int       `json:"zIndex"`
	Visible *bool     `json:"visible,omitempty"`

	Image   *ImageLayer   `json:"-"`
	Overlay *OverlayLayer `json:"-"`
	Text    *TextLayer    `json:"-"`
	Badge   *BadgeLayer   `json:"-"`
}

// ImageLayer 通常是背景图。
type ImageLayer struct {
	Box           BoundingBox `json:"box"`
	Fit           Fit         `json:"fit"`
	DefaultSource string      `json:"defaultSource,omitempty"`
}

// OverlayLayer 是提升文字可读性的遮罩，渐变优先于纯色。
type OverlayLayer struct {
	Box             BoundingBox `json:"box"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	Gradient        *Gradient   `json:"gradient,omitempty"`
}

// TextLayer 描述自动适配字号的文本区域。
type TextLayer struct {
	Box        BoundingBox `json:"box"`
	FontFamily string      `json:"fontFamily"`
	FontWeight FontWeight  `json:"fontWeight"`

	// 自动适配会在 [MinFontSize, MaxFontSize] 内寻找能放下文本的最大字号。
	MaxFontSize float64 `json:"maxFontSize"`
	MinFontSize float64 `json:"minFontSize"`

	Color         string        `json:"color"`
	Align         TextAlign     `json:"align"`
	VerticalAlign VerticalAlign `json:"verticalAlign,omitempty"`

	LineHeight    float64 `json:"lineHeight"` // 行高倍数，例如 1.2
	LetterSpacing float64 `json:"letterSpacing,omitempty"`
	MaxLines      *int    `json:"maxLines,omitempty"` // nil 表示不限行数

	Shadow      *TextShadow `json:"shadow,omitempty"`
	DefaultText string      `json:"defaultText,omitempty"`
}

// BadgeText 是徽标内的单行文字，字号固定不做适配。
type BadgeText struct {
	FontFamily  string     `json:"fontFamily"`
	FontSize    float64    `json:"fontSize"`
	FontWeight  FontWeight `json:"fontWeight"`
	Color       string     `json:"color"`
	Align       TextAlign  `json:"align"`
	DefaultText string     `json:"defaultText,omitempty"`
}

// BadgeLayer 是小型装饰元素。
type BadgeLayer struct {
	Box             BoundingBox `json:"box"`
	Shape           BadgeShape  `json:"shape"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	BorderColor     string      `json:"borderColor,omitempty"`
	BorderWidth     float64     `json:"borderWidth,omitempty"`
	BorderRadius    float64     `json:"borderRadius,omitempty"`
	Text            *BadgeText  `json:"text,omitempty"`
}

// Kind 返回实际携带的变体类型。
func (l *Layer) Kind() LayerType {
	switch {
	case l == nil:
		return ""
	case l.Image != nil:
		return LayerImage
	case l.Overlay != nil:
		return LayerOverlay
	case l.Text != nil:
		return LayerText
	case l.Badge != nil:
		return LayerBadge
	default:
		return l.Type
	}
}

// IsVisible 缺省为 true。
func (l *Layer) IsVisible() bool {
	return l.Visible == nil || *l.Visible
}

// Bounds 返回变体的包围框。
func (l *Layer) Bounds() BoundingBox {
	switch {
	case l.Image != nil:
		return l.Image.Box
	case l.Overlay != nil:
		return l.Overlay.Box
	case l.Text != nil:
		return l.Text.Box
	case l.Badge != nil:
		return l.Badge.Box
	}
	return BoundingBox{}
}

type layerHeader struct {
	ID      string    `json:"id"`
	Type    LayerType `json:"type"`
	ZIndex  int       `json:"zIndex"`
	Visible *bool     `json:"visible,omitempty"`
}

// UnmarshalJSON 按 type 字段解码扁平的图层 JSON。
func (l *Layer) UnmarshalJSON(data []byte) error {
	var head layerHeader
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	out := Layer{ID: head.ID, Type: head.Type, ZIndex: head.ZIndex, Visible: head.Visible}
	var target any
	switch head.Type {
	case LayerImage:
		out.Image = &ImageLayer{}
		target = out.Image
	case LayerOverlay:
		out.Overlay = &OverlayLayer{}
		target = out.Overlay
	case LayerText:
		out.Text = &TextLayer{}
		target = out.Text
	case LayerBadge:
		out.Badge = &BadgeLayer{}
		target = out.Badge
	default:
		return fmt.Errorf("图层 %s 的类型 %q 不受支持", head.ID, head.Type)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("解析图层 %s 失败: %w", head.ID, err)
	}
	*l = out
	return nil
}

// MarshalJSON 输出与 UnmarshalJSON 对称的扁平结构。
func (l Layer) MarshalJSON() ([]byte, error) {
	var variant any
	switch l.Kind() {
	case LayerImage:
		variant = l.Image
	case LayerOverlay:
		variant = l.Overlay
	case LayerText:
		variant = l.Text
	case LayerBadge:
		variant = l.Badge
	default:
		return nil, fmt.Errorf("图层 %s 缺少变体内容", l.ID)
	}
	body, err := json.Marshal(variant)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	head, err := json.Marshal(layerHeader{ID: l.ID, Type: l.Kind(), ZIndex: l.ZIndex, Visible: l.Visible})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(head, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// Template 是命名、带版本的图层集合及画布尺寸。渲染期间只读。
type Template struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Layers          []Layer `json:"layers"`
	Version         string  `json:"version"`
	CreatedAt       string  `json:"createdAt,omitempty"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`
}

// Rect 是裁剪计算中的源/目标矩形。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CropResult 是图片适配计算的输出。Dest 以目标框左上角为原点。
type CropResult struct {
	Scale  float64 `json:"scale"`
	Source Rect    `json:"source"`
	Dest   Rect    `json:"dest"`
}

// MarshalJSON 在嵌套的 source/dest 之外附带扁平的 sourceX/destWidth 等字段。
func (c CropResult) MarshalJSON() ([]byte, error) {
	type plain CropResult
	return json.Marshal(struct {
		plain
		SourceX      float64 `json:"sourceX"`
		SourceY      float64 `json:"sourceY"`
		SourceWidth  float64 `json:"sourceWidth"`
		SourceHeight float64 `json:"sourceHeight"`
		DestX        float64 `json:"destX"`
		DestY        float64 `json:"destY"`
		DestWidth    float64 `json:"destWidth"`
		DestHeight   float64 `json:"destHeight"`
	}{
		plain(c),
		c.Source.X, c.Source.Y, c.Source.Width, c.Source.Height,
		c.Dest.X, c.Dest.Y, c.Dest.Width, c.Dest.Height,
	})
}

// TextMeasurement 是文字适配的输出。
type TextMeasurement struct {
	Lines        []string  `json:"lines"`
	FontSize     float64   `json:"fontSize"`
	TotalHeight  float64   `json:"totalHeight"`
	MaxLineWidth float64   `json:"maxLineWidth"`
	LineWidths   []float64 `json:"lineWidths,omitempty"`
	// Overflowed 为 true 表示在最小字号下仍放不下，结果为兜底排版。
	Overflowed bool `json:"overflowed"`
}

// Color 采用 0-255 的 RGB 数值与 0-1 的透明度。
type Color struct {
	R int     `json:"r"`
	G int     `json:"g"`
	B int     `json:"b"`
	A float64 `json:"a"`
}

// ImageSize 是图片的原始像素尺寸。
type ImageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Result 保存一张幻灯片的布局计划，按绘制顺序排列。
type Result struct {
	TemplateID string  `json:"templateId"`
	Version    string  `json:"version"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Background *Color  `json:"background,omitempty"`
	Items      []Item  `json:"items"`
}

// Item 是一个已完成布局的图层。
type Item struct {
	LayerID string      `json:"layerId"`
	Type    LayerType   `json:"type"`
	ZIndex  int         `json:"zIndex"`
	Box     BoundingBox `json:"box"`

	Image   *ImageItem   `json:"image,omitempty"`
	Overlay *OverlayItem `json:"overlay,omitempty"`
	Text    *TextItem    `json:"text,omitempty"`
	Badge   *BadgeItem   `json:"badge,omitempty"`
}

// ImageItem 记录图片来源与裁剪参数，实际解码与绘制由合成阶段完成。
type ImageItem struct {
	Source string     `json:"source"`
	Fit    Fit        `json:"fit"`
	Size   ImageSize  `json:"size"`
	Crop   CropResult `json:"crop"`
}

// OverlayItem 是解析后的纯色或渐变遮罩。
type OverlayItem struct {
	Color    *Color            `json:"color,omitempty"`
	Gradient *ResolvedGradient `json:"gradient,omitempty"`
}

// ResolvedGradient 的色标颜色已解析。
type ResolvedGradient struct {
	Direction GradientDirection `json:"direction"`
	Stops     []ResolvedStop    `json:"stops"`
}

// ResolvedStop 是解析后的色标。
type ResolvedStop struct {
	Position float64 `json:"position"`
	Color    Color   `json:"color"`
}

// TextItem 表示一个已经排好坐标的文本块。
type TextItem struct {
	Content       string           `json:"content"`
	FontFamily    string           `json:"fontFamily"`
	FontWeight    FontWeight       `json:"fontWeight"`
	Color         Color            `json:"color"`
	Align         TextAlign        `json:"align"`
	LineHeight    float64          `json:"lineHeight"`
	LetterSpacing float64          `json:"letterSpacing,omitempty"`
	Measurement   TextMeasurement  `json:"measurement"`
	Lines         []PositionedLine `json:"lines"`
	Shadow        *ResolvedShadow  `json:"shadow,omitempty"`
}

// PositionedLine 是一行文本及其左上角坐标。
type PositionedLine struct {
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
}

// ResolvedShadow 的颜色已解析。
type ResolvedShadow struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Blur    float64 `json:"blur"`
	Color   Color   `json:"color"`
}

// BadgeItem 是解析后的徽标。
type BadgeItem struct {
	Shape       BadgeShape `json:"shape"`
	Fill        *Color     `json:"fill,omitempty"`
	Border      *Color     `json:"border,omitempty"`
	BorderWidth float64    `json:"borderWidth,omitempty"`
	Radius      float64    `json:"radius,omitempty"`
	Text        *TextItem  `json:"text,omitempty"`
}
