package layout

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func hidden() *bool { v := false; return &v }

func sampleTemplate() *Template {
	return &Template{
		ID:              "quote",
		Version:         "1",
		Width:           1080,
		Height:          1920,
		BackgroundColor: "#111111",
		Layers: []Layer{
			{ID: "title", Type: LayerText, ZIndex: 3, Text: &TextLayer{
				Box:         BoundingBox{X: 90, Y: 600, Width: 900, Height: 600},
				FontFamily:  "Inter",
				FontWeight:  WeightBold,
				MinFontSize: 24,
				MaxFontSize: 96,
				Color:       "#ffffff",
				Align:       AlignLeft,
				LineHeight:  1.2,
				Shadow:      &TextShadow{OffsetX: 2, OffsetY: 2, Color: "rgba(0,0,0,0.6)"},
				DefaultText: "Hello ${name|friend}",
			}},
			{ID: "bg", Type: LayerImage, ZIndex: 0, Image: &ImageLayer{
				Box: BoundingBox{Width: 1080, Height: 1920},
				Fit: FitCover,
			}},
			{ID: "shade", Type: LayerOverlay, ZIndex: 1, Overlay: &OverlayLayer{
				Box: BoundingBox{Width: 1080, Height: 1920},
				Gradient: &Gradient{Type: "linear", Direction: ToBottom, Stops: []GradientStop{
					{Position: 0, Color: "transparent"},
					{Position: 1, Color: "rgba(0,0,0,0.8)"},
				}},
			}},
			{ID: "tint", Type: LayerOverlay, ZIndex: 1, Overlay: &OverlayLayer{
				Box:             BoundingBox{Width: 1080, Height: 400},
				BackgroundColor: "#00000033",
			}},
			{ID: "tag", Type: LayerBadge, ZIndex: 4, Badge: &BadgeLayer{
				Box:             BoundingBox{X: 90, Y: 1700, Width: 200, Height: 60},
				Shape:           ShapePill,
				BackgroundColor: "#ff0055",
				Text:            &BadgeText{FontFamily: "Inter", FontSize: 24, FontWeight: WeightBold, Color: "#fff", DefaultText: "NEW"},
			}},
			{ID: "ghost", Type: LayerText, ZIndex: 5, Visible: hidden(), Text: &TextLayer{
				MinFontSize: 10, MaxFontSize: 20, LineHeight: 1,
			}},
		},
	}
}

func TestBuildOrdersAndResolvesLayers(t *testing.T) {
	tpl := sampleTemplate()
	res, err := Build(tpl, Input{
		Images:  map[string]ImageSize{"bg": {Width: 1920, Height: 1080}},
		Sources: map[string]string{"bg": "photo.png"},
		Data:    map[string]any{"name": "Ada"},
	}, BuildOptions{Measurer: newFixedPort(0.5)})
	if err != nil {
		t.Fatalf("Build 返回错误: %v", err)
	}
	var ids []string
	for _, it := range res.Items {
		ids = append(ids, it.LayerID)
	}
	if got := strings.Join(ids, ","); got != "bg,shade,tint,title,tag" {
		t.Fatalf("绘制顺序错误: %s", got)
	}
	if res.Background == nil || res.Background.R != 0x11 {
		t.Fatalf("背景色未解析: %+v", res.Background)
	}

	bg := res.Items[0].Image
	if bg == nil || bg.Source != "photo.png" || !approx(bg.Crop.Source.Width, 607.5) {
		t.Fatalf("图片图层错误: %+v", bg)
	}
	shade := res.Items[1].Overlay
	if shade == nil || shade.Gradient == nil || len(shade.Gradient.Stops) != 2 || !approx(shade.Gradient.Stops[1].Color.A, 0.8) {
		t.Fatalf("渐变遮罩错误: %+v", shade)
	}

	title := res.Items[3].Text
	if title == nil || title.Content != "Hello Ada" {
		t.Fatalf("文案占位符未替换: %+v", title)
	}
	if title.Measurement.FontSize != 96 || title.Lines[0].X != 90 {
		t.Fatalf("文本布局错误: %+v", title)
	}
	if title.Shadow == nil || !approx(title.Shadow.Color.A, 0.6) {
		t.Fatalf("阴影未解析: %+v", title.Shadow)
	}

	tag := res.Items[4].Badge
	if tag == nil || tag.Radius != 30 || tag.Fill == nil || tag.Fill.R != 0xff {
		t.Fatalf("徽标错误: %+v", tag)
	}
	if tag.Text == nil || !approx(tag.Text.Lines[0].Y, 1700+18) || !approx(tag.Text.Lines[0].X, 90+82) {
		t.Fatalf("徽标文字位置错误: %+v", tag.Text)
	}
}

func TestBuildInputsAndPalette(t *testing.T) {
	tpl := sampleTemplate()
	res, err := Build(tpl, Input{
		Texts:   map[string]string{"title": "Custom", "tag": "HOT"},
		Palette: &Palette{TextColor: "#00ff00", OverlayColor: "rgba(255,0,0,0.2)", AccentColor: "#0000ff"},
	}, BuildOptions{Measurer: newFixedPort(0.5)})
	if err != nil {
		t.Fatalf("Build 返回错误: %v", err)
	}
	byID := map[string]Item{}
	for _, it := range res.Items {
		byID[it.LayerID] = it
	}
	if _, ok := byID["bg"]; ok {
		t.Fatalf("缺少图片尺寸时应跳过图片图层")
	}
	if got := byID["title"].Text; got.Content != "Custom" || got.Color.G != 255 {
		t.Fatalf("文案或文字颜色未覆盖: %+v", got)
	}
	if got := byID["tint"].Overlay.Color; got == nil || got.R != 255 || !approx(got.A, 0.2) {
		t.Fatalf("纯色遮罩未被 overlayColor 覆盖: %+v", got)
	}
	if got := byID["shade"].Overlay; got.Gradient == nil || got.Color != nil {
		t.Fatalf("渐变遮罩不应被 overlayColor 替换: %+v", got)
	}
	if got := byID["tag"].Badge; got.Fill.B != 255 || got.Text.Content != "HOT" {
		t.Fatalf("徽标未被 accentColor 或文案覆盖: %+v", got)
	}
}

func TestBuildKeepsRequestTextVerbatim(t *testing.T) {
	tpl := sampleTemplate()
	res, err := Build(tpl, Input{
		Texts: map[string]string{"title": "Save ${price|50%} today"},
		Data:  map[string]any{"price": "$9", "name": "Ada"},
	}, BuildOptions{Measurer: newFixedPort(0.5)})
	if err != nil {
		t.Fatalf("Build 返回错误: %v", err)
	}
	for _, it := range res.Items {
		if it.LayerID == "title" && it.Text.Content != "Save ${price|50%} today" {
			t.Fatalf("请求文案不应做占位符替换，实际 %q", it.Text.Content)
		}
	}

	res, err = Build(tpl, Input{Data: map[string]any{"name": "Ada"}}, BuildOptions{Measurer: newFixedPort(0.5)})
	if err != nil {
		t.Fatalf("Build 返回错误: %v", err)
	}
	for _, it := range res.Items {
		if it.LayerID == "title" && it.Text.Content != "Hello Ada" {
			t.Fatalf("默认文案应替换占位符，实际 %q", it.Text.Content)
		}
	}
}

func TestBuildSkipsEmptyText(t *testing.T) {
	tpl := sampleTemplate()
	tpl.Layers[0].Text.DefaultText = "   "
	res, err := Build(tpl, Input{}, BuildOptions{Measurer: newFixedPort(0.5)})
	if err != nil {
		t.Fatalf("Build 返回错误: %v", err)
	}
	for _, it := range res.Items {
		if it.LayerID == "title" {
			t.Fatalf("空文案的文本图层应被跳过")
		}
	}
}

func TestBuildRejectsInvalidTemplate(t *testing.T) {
	tpl := sampleTemplate()
	tpl.Layers[0].Text.MinFontSize = 200
	if _, err := Build(tpl, Input{}, BuildOptions{Measurer: newFixedPort(0.5)}); !errors.Is(err, ErrInvalidLayerConfig) {
		t.Fatalf("期望 ErrInvalidLayerConfig，实际 %v", err)
	}
	if _, err := Build(sampleTemplate(), Input{}, BuildOptions{}); err == nil {
		t.Fatalf("缺少测量端口时应返回错误")
	}
	bad := sampleTemplate()
	bad.Layers[1].Image.Box.Width = 0
	if _, err := Build(bad, Input{}, BuildOptions{Measurer: newFixedPort(0.5)}); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("期望 ErrInvalidDimensions，实际 %v", err)
	}
}

func TestDebugJSON(t *testing.T) {
	res, err := Build(sampleTemplate(), Input{}, BuildOptions{Measurer: newFixedPort(0.5)})
	if err != nil {
		t.Fatalf("Build 返回错误: %v", err)
	}
	for i := range res.Items {
		if res.Items[i].LayerID == "title" {
			res.Items[i].Text.Measurement.Overflowed = true
		}
	}
	data, err := DebugJSON(res)
	if err != nil {
		t.Fatalf("DebugJSON 返回错误: %v", err)
	}
	var decoded struct {
		TemplateID string           `json:"templateId"`
		Items      []map[string]any `json:"items"`
		Overflowed []string         `json:"overflowed"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("调试输出不是合法 JSON: %v", err)
	}
	if decoded.TemplateID != "quote" || len(decoded.Items) != len(res.Items) {
		t.Fatalf("调试输出内容错误: %+v", decoded)
	}
	if len(decoded.Overflowed) != 1 || decoded.Overflowed[0] != "title" {
		t.Fatalf("overflowed 列表错误: %v", decoded.Overflowed)
	}
	if _, err := DebugJSON(nil); err == nil {
		t.Fatalf("空结果应返回错误")
	}
}
