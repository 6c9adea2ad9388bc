package layout

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTemplateValidate(t *testing.T) {
	if err := sampleTemplate().Validate(); err != nil {
		t.Fatalf("示例模板应通过校验: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Template)
		want   error
	}{
		{"缺少 id", func(tpl *Template) { tpl.ID = "" }, ErrInvalidLayerConfig},
		{"画布尺寸", func(tpl *Template) { tpl.Height = 0 }, ErrInvalidDimensions},
		{"背景色", func(tpl *Template) { tpl.BackgroundColor = "nope" }, ErrInvalidLayerConfig},
		{"重复图层", func(tpl *Template) { tpl.Layers[1].ID = "title" }, ErrInvalidLayerConfig},
		{"未知 fit", func(tpl *Template) { tpl.Layers[1].Image.Fit = "stretch" }, ErrInvalidLayerConfig},
		{"色标越界", func(tpl *Template) { tpl.Layers[2].Overlay.Gradient.Stops[1].Position = 1.5 }, ErrInvalidLayerConfig},
		{"色标无序", func(tpl *Template) {
			stops := tpl.Layers[2].Overlay.Gradient.Stops
			stops[0].Position, stops[1].Position = 0.9, 0.1
		}, ErrInvalidLayerConfig},
		{"未知形状", func(tpl *Template) { tpl.Layers[4].Badge.Shape = "star" }, ErrInvalidLayerConfig},
		{"类型不符", func(tpl *Template) { tpl.Layers[0].Type = LayerBadge }, ErrInvalidLayerConfig},
	}
	for _, tc := range cases {
		tpl := sampleTemplate()
		tc.mutate(tpl)
		if err := tpl.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: 期望 %v，实际 %v", tc.name, tc.want, err)
		}
	}
}

func TestSortedLayersStable(t *testing.T) {
	tpl := &Template{Layers: []Layer{
		{ID: "a", ZIndex: 2},
		{ID: "b", ZIndex: 1},
		{ID: "c", ZIndex: 2},
		{ID: "d", ZIndex: 0, Visible: hidden()},
		{ID: "e", ZIndex: 1},
	}}
	var got string
	for _, l := range tpl.SortedLayers() {
		got += l.ID
	}
	if got != "beac" {
		t.Fatalf("排序结果 %s，期望 beac", got)
	}
}

func TestTemplateJSON(t *testing.T) {
	raw := `{
	  "id": "t1", "name": "T", "width": 1080, "height": 1920, "version": "2",
	  "layers": [
	    {"id": "bg", "type": "image", "zIndex": 0, "box": [0, 0, 1080, 1920], "fit": "contain"},
	    {"id": "txt", "type": "text", "zIndex": 1, "box": {"x": 10, "y": 20, "width": 300, "height": 200},
	     "fontFamily": "Inter", "fontWeight": "bold", "maxFontSize": 60, "minFontSize": 20,
	     "color": "#fff", "align": "center", "lineHeight": 1.2, "maxLines": 3}
	  ]
	}`
	var tpl Template
	if err := json.Unmarshal([]byte(raw), &tpl); err != nil {
		t.Fatalf("解析模板 JSON 失败: %v", err)
	}
	if err := tpl.Validate(); err != nil {
		t.Fatalf("模板应通过校验: %v", err)
	}
	if tpl.Layers[0].Image == nil || tpl.Layers[0].Image.Fit != FitContain {
		t.Fatalf("图片图层解析错误: %+v", tpl.Layers[0])
	}
	txt := tpl.Layers[1].Text
	if txt == nil || txt.FontWeight != WeightBold || txt.Box.Y != 20 || txt.MaxLines == nil || *txt.MaxLines != 3 {
		t.Fatalf("文本图层解析错误: %+v", txt)
	}

	out, err := json.Marshal(tpl.Layers[1])
	if err != nil {
		t.Fatalf("序列化图层失败: %v", err)
	}
	var back Layer
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("反序列化图层失败: %v", err)
	}
	if back.Kind() != LayerText || back.Text.Box != txt.Box {
		t.Fatalf("图层 JSON 不对称: %s", out)
	}

	if err := json.Unmarshal([]byte(`{"id":"x","type":"video"}`), &Layer{}); err == nil {
		t.Fatalf("未知图层类型应返回错误")
	}
}
