package templates

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/carousel/layout"
)

const sampleTemplate = `
template promo v2 {
  meta {
    name: "Promo"
  }
  canvas {
    width: 1000
    height: 2000
    background: #222
  }
  image photo {
    box: [0, 0, 100%, 50%]
    fit: contain
    source: "assets/photo.png"
  }
  overlay tint {
    box: [0, 0, 100%, 100%]
    color: rgba(0, 0, 0, 0.4)
    z: 1
  }
  text title {
    box: [10%, 1200, 80%, 400]
    font: Inter
    weight: bold
    minSize: 24
    maxSize: 72pt
    lineHeight: 1.25x
    letterSpacing: 2
    maxLines: 3
    align: left
    valign: bottom
    z: 2
    shadow: { x: 2; y: 3; blur: 6; color: #000000aa }
    "Hello ${name|there}"
  }
  badge tag {
    box: [50, 50, 200, 60]
    shape: rounded
    radius: 12
    border: #ffffff
    borderWidth: 2
    z: 3
    visible: false
    label {
      size: 50%
      "NEW"
    }
  }
}
`

func TestCompileString(t *testing.T) {
	tpl, err := CompileString(sampleTemplate)
	if err != nil {
		t.Fatalf("编译模板失败: %v", err)
	}
	if tpl.ID != "promo" || tpl.Version != "v2" || tpl.Name != "Promo" {
		t.Fatalf("模板元数据错误: %+v", tpl)
	}
	if tpl.Width != 1000 || tpl.Height != 2000 || tpl.BackgroundColor != "#222" {
		t.Fatalf("画布错误: %+v", tpl)
	}
	if len(tpl.Layers) != 4 {
		t.Fatalf("期望 4 个图层，实际 %d", len(tpl.Layers))
	}

	photo := tpl.Layers[0].Image
	if photo == nil || photo.Box != (layout.BoundingBox{Width: 1000, Height: 1000}) || photo.Fit != layout.FitContain || photo.DefaultSource != "assets/photo.png" {
		t.Fatalf("图片图层错误: %+v", photo)
	}
	tint := tpl.Layers[1].Overlay
	if tint == nil || tint.BackgroundColor != "rgba(0,0,0,0.4)" || tpl.Layers[1].ZIndex != 1 {
		t.Fatalf("遮罩图层错误: %+v", tint)
	}

	title := tpl.Layers[2].Text
	if title == nil {
		t.Fatalf("文本图层缺失")
	}
	if title.Box != (layout.BoundingBox{X: 100, Y: 1200, Width: 800, Height: 400}) {
		t.Fatalf("百分比 box 换算错误: %+v", title.Box)
	}
	if title.MaxFontSize != 96 || title.MinFontSize != 24 || title.LineHeight != 1.25 || title.LetterSpacing != 2 {
		t.Fatalf("字号或行高错误: %+v", title)
	}
	if title.FontWeight != layout.WeightBold || title.Align != layout.AlignLeft || title.VerticalAlign != layout.VAlignBottom {
		t.Fatalf("字重或对齐错误: %+v", title)
	}
	if title.MaxLines == nil || *title.MaxLines != 3 || title.DefaultText != "Hello ${name|there}" {
		t.Fatalf("maxLines 或文案错误: %+v", title)
	}
	if title.Shadow == nil || title.Shadow.OffsetY != 3 || title.Shadow.Blur != 6 || title.Shadow.Color != "#000000aa" {
		t.Fatalf("阴影错误: %+v", title.Shadow)
	}

	tag := tpl.Layers[3]
	if tag.IsVisible() || tag.Badge == nil || tag.Badge.Shape != layout.ShapeRounded || tag.Badge.BorderRadius != 12 {
		t.Fatalf("徽标图层错误: %+v", tag)
	}
	if tag.Badge.Text == nil || tag.Badge.Text.FontSize != 30 || tag.Badge.Text.DefaultText != "NEW" {
		t.Fatalf("徽标文字错误: %+v", tag.Badge.Text)
	}
}

func TestCompileRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"缺少 box":  "template a v1 {\n  image bg {\n    fit: cover\n  }\n}\n",
		"box 元素数": "template a v1 {\n  image bg {\n    box: [0, 0, 10]\n  }\n}\n",
		"字号反转":    "template a v1 {\n  text t {\n    box: [0, 0, 10, 10]\n    minSize: 50\n    maxSize: 10\n  }\n}\n",
		"未知 fit":  "template a v1 {\n  image bg {\n    box: [0, 0, 10, 10]\n    fit: stretch\n  }\n}\n",
		"语法错误":    "template a v1 {\n  image {\n}\n",
		"漏写冒号":    "template a v1 {\n  image bg {\n    box: [0, 0, 10, 10]\n    fit contain\n  }\n}\n",
		"块内漏写冒号":  "template a v1 {\n  badge b {\n    box: [0, 0, 10, 10]\n    label {\n      size 12\n    }\n  }\n}\n",
	}
	for name, src := range cases {
		if _, err := CompileString(src); err == nil {
			t.Fatalf("%s: 期望编译失败", name)
		}
	}
	_, err := CompileString("template a v1 {\n  text t {\n    box: [0, 0, 10, 10]\n    minSize: 50\n    maxSize: 10\n  }\n}\n")
	if !errors.Is(err, layout.ErrInvalidLayerConfig) {
		t.Fatalf("字号反转应返回 ErrInvalidLayerConfig，实际 %v", err)
	}
}

func TestCompileRejectsBareCommand(t *testing.T) {
	_, err := CompileString("template t v1 { image bg { box: [0,0,100%,100%]\n fit contain } }")
	if err == nil {
		t.Fatalf("缺少冒号的语句不应被忽略")
	}
	if msg := err.Error(); !strings.Contains(msg, "第 2 行") || !strings.Contains(msg, `"fit contain"`) {
		t.Fatalf("错误信息应包含行号与语句，实际 %v", err)
	}
}

func TestParseJSON(t *testing.T) {
	tpl, err := ParseJSON([]byte(`{"id":"j","version":"1","layers":[
		{"id":"bg","type":"overlay","zIndex":0,"box":[0,0,1080,1920],"backgroundColor":"#000"}
	]}`))
	if err != nil {
		t.Fatalf("ParseJSON 失败: %v", err)
	}
	if tpl.Width != layout.DefaultCanvasWidth || tpl.Height != layout.DefaultCanvasHeight {
		t.Fatalf("缺省画布尺寸错误: %gx%g", tpl.Width, tpl.Height)
	}
	if _, err := ParseJSON([]byte(`{"id":"j","layers":[{"id":"x","type":"text","box":[0,0,1,1],"minFontSize":5,"maxFontSize":1,"lineHeight":1}]}`)); !errors.Is(err, layout.ErrInvalidLayerConfig) {
		t.Fatalf("非法 JSON 模板应返回 ErrInvalidLayerConfig，实际 %v", err)
	}
}

func TestBuiltinStore(t *testing.T) {
	s, err := NewBuiltinStore()
	if err != nil {
		t.Fatalf("载入内置模板失败: %v", err)
	}
	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "headline-gradient" || ids[1] != "quote-dark" {
		t.Fatalf("内置模板列表错误: %v", ids)
	}
	tpl, err := s.Get("quote-dark")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if len(tpl.Layers) != 5 || tpl.Layers[1].Overlay.Gradient == nil || len(tpl.Layers[1].Overlay.Gradient.Stops) != 3 {
		t.Fatalf("quote-dark 结构错误: %+v", tpl)
	}
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("期望 ErrNotFound，实际 %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("写入 %s 失败: %v", name, err)
		}
	}
	write("promo.tpl", sampleTemplate)
	write("plain.json", `{"id":"plain","version":"1","width":500,"height":500,"layers":[]}`)
	write("broken.tpl", "template {")
	write("notes.txt", "ignored")

	s := NewStore()
	n, err := s.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir 失败: %v", err)
	}
	if n != 2 {
		t.Fatalf("期望载入 2 个模板，实际 %d", n)
	}
	if _, err := s.Get("plain"); err != nil {
		t.Fatalf("plain 未载入: %v", err)
	}
	if _, err := s.LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("目录不存在时应返回错误")
	}
}
