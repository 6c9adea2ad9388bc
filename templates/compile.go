package templates

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/carousel/dsl"
	"github.com/ByLCY/carousel/layout"
)

// Compile 把 DSL AST 转换为模板并做完整校验。
// 长度中的 % 相对画布：x/width 相对画布宽，y/height 相对画布高。
func Compile(doc *dsl.Document) (*layout.Template, error) {
	if doc == nil {
		return nil, fmt.Errorf("模板文档为空")
	}
	tpl := &layout.Template{
		ID:      doc.Name,
		Version: doc.Version,
		Width:   layout.DefaultCanvasWidth,
		Height:  layout.DefaultCanvasHeight,
	}

	// canvas 段决定百分比长度的参考尺寸，先于图层处理
	for _, section := range doc.Sections {
		switch {
		case section.Meta != nil:
			p, err := collectProps(section.Meta.Block)
			if err != nil {
				return nil, fmt.Errorf("模板 %s meta: %w", tpl.ID, err)
			}
			applyMeta(tpl, p)
		case section.Canvas != nil:
			p, err := collectProps(section.Canvas.Block)
			if err != nil {
				return nil, fmt.Errorf("模板 %s canvas: %w", tpl.ID, err)
			}
			if err := applyCanvas(tpl, p); err != nil {
				return nil, err
			}
		}
	}

	c := compiler{width: tpl.Width, height: tpl.Height}
	for _, sec := range doc.Layers() {
		layer, err := c.layer(sec)
		if err != nil {
			return nil, fmt.Errorf("模板 %s 第 %d 行图层 %s: %w", tpl.ID, sec.Pos.Line, sec.ID, err)
		}
		tpl.Layers = append(tpl.Layers, layer)
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

// CompileString 解析并编译 DSL 文本。
func CompileString(src string) (*layout.Template, error) {
	doc, err := dsl.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return Compile(doc)
}

// props 是一个块内的属性：赋值、嵌套块与文本字面量。键名不区分大小写。
type props struct {
	values map[string]*dsl.Value
	blocks map[string]props
	text   string
}

// collectProps 只接受 `key: value`、`name { ... }` 与字符串字面量；
// 其它形式（例如漏写冒号的 `fit contain`）返回带行号的错误。
func collectProps(block *dsl.Block) (props, error) {
	p := props{values: map[string]*dsl.Value{}, blocks: map[string]props{}}
	if block == nil {
		return p, nil
	}
	var text strings.Builder
	for _, stmt := range block.Statements {
		switch {
		case stmt.Assignment != nil:
			p.values[strings.ToLower(stmt.Assignment.Key)] = stmt.Assignment.Value
		case stmt.Command != nil:
			cmd := stmt.Command
			if cmd.Block == nil || len(cmd.Args) > 0 {
				return p, fmt.Errorf("第 %d 行语句 %q 无法识别，属性需写成 %s: 值", cmd.Pos.Line, commandSource(cmd), cmd.Name)
			}
			nested, err := collectProps(cmd.Block)
			if err != nil {
				return p, err
			}
			p.blocks[strings.ToLower(cmd.Name)] = nested
		case stmt.Text != nil:
			text.WriteString(string(stmt.Text.Value))
		}
	}
	p.text = text.String()
	return p, nil
}

func commandSource(cmd *dsl.Command) string {
	parts := []string{cmd.Name}
	for _, arg := range cmd.Args {
		parts = append(parts, arg.Raw)
	}
	return strings.Join(parts, " ")
}

func objectProps(obj *dsl.InlineObject) props {
	p := props{values: map[string]*dsl.Value{}, blocks: map[string]props{}}
	for _, entry := range obj.Entries {
		p.values[strings.ToLower(entry.Key)] = entry.Value
	}
	return p
}

// get 按顺序返回第一个存在的键。
func (p props) get(keys ...string) *dsl.Value {
	for _, k := range keys {
		if v, ok := p.values[strings.ToLower(k)]; ok {
			return v
		}
	}
	return nil
}

func (p props) str(keys ...string) string { return p.get(keys...).Text() }

// nested 返回嵌套块或内联对象形式的子属性。
func (p props) nested(key string) (props, bool) {
	if b, ok := p.blocks[strings.ToLower(key)]; ok {
		return b, true
	}
	if v := p.get(key); v != nil && v.Object != nil {
		return objectProps(v.Object), true
	}
	return props{}, false
}

func (p props) number(reference float64, keys ...string) (float64, bool, error) {
	v := p.get(keys...)
	if v == nil {
		return 0, false, nil
	}
	raw := strings.TrimSuffix(v.Text(), "x")
	l, err := layout.ParseLength(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", keys[0], err)
	}
	return l.Resolve(reference), true, nil
}

func applyMeta(tpl *layout.Template, p props) {
	if v := p.str("name", "title"); v != "" {
		tpl.Name = v
	}
	tpl.Description = p.str("description")
	tpl.CreatedAt = p.str("createdAt")
	tpl.UpdatedAt = p.str("updatedAt")
}

func applyCanvas(tpl *layout.Template, p props) error {
	if w, ok, err := p.number(layout.DefaultCanvasWidth, "width"); err != nil {
		return fmt.Errorf("canvas %w", err)
	} else if ok {
		tpl.Width = w
	}
	if h, ok, err := p.number(layout.DefaultCanvasHeight, "height"); err != nil {
		return fmt.Errorf("canvas %w", err)
	} else if ok {
		tpl.Height = h
	}
	tpl.BackgroundColor = p.str("background", "backgroundColor")
	return nil
}

type compiler struct {
	width, height float64
}

func (c compiler) layer(sec *dsl.LayerSection) (layout.Layer, error) {
	layer := layout.Layer{ID: sec.ID, Type: layout.LayerType(sec.Kind)}
	p, err := collectProps(sec.Block)
	if err != nil {
		return layer, err
	}

	if v := p.str("z", "zIndex"); v != "" {
		z, err := strconv.Atoi(v)
		if err != nil {
			return layer, fmt.Errorf("zIndex %q 不是整数", v)
		}
		layer.ZIndex = z
	}
	if v := p.str("visible"); v != "" {
		visible, err := strconv.ParseBool(v)
		if err != nil {
			return layer, fmt.Errorf("visible %q 不是布尔值", v)
		}
		layer.Visible = &visible
	}
	box, err := c.box(p.get("box"))
	if err != nil {
		return layer, err
	}

	switch layer.Type {
	case layout.LayerImage:
		layer.Image = &layout.ImageLayer{
			Box:           box,
			Fit:           layout.Fit(strings.ToLower(p.str("fit"))),
			DefaultSource: p.str("source", "src"),
		}
	case layout.LayerOverlay:
		overlay := &layout.OverlayLayer{Box: box, BackgroundColor: p.str("color", "background", "backgroundColor")}
		if g, ok := p.nested("gradient"); ok {
			if overlay.Gradient, err = gradient(g); err != nil {
				return layer, err
			}
		}
		layer.Overlay = overlay
	case layout.LayerText:
		if layer.Text, err = c.text(p, box); err != nil {
			return layer, err
		}
	case layout.LayerBadge:
		if layer.Badge, err = c.badge(p, box); err != nil {
			return layer, err
		}
	default:
		return layer, fmt.Errorf("未知的图层类型 %q", sec.Kind)
	}
	return layer, nil
}

// box 解析 [x, y, width, height]。
func (c compiler) box(v *dsl.Value) (layout.BoundingBox, error) {
	if v == nil {
		return layout.BoundingBox{}, fmt.Errorf("缺少 box")
	}
	if v.Array == nil || len(v.Array.Values) != 4 {
		return layout.BoundingBox{}, fmt.Errorf("box 需要 [x, y, width, height]")
	}
	refs := [4]float64{c.width, c.height, c.width, c.height}
	var out [4]float64
	for i, item := range v.Array.Values {
		l, err := layout.ParseLength(item.Text())
		if err != nil {
			return layout.BoundingBox{}, fmt.Errorf("box[%d]: %w", i, err)
		}
		out[i] = l.Resolve(refs[i])
	}
	return layout.BoundingBox{X: out[0], Y: out[1], Width: out[2], Height: out[3]}, nil
}

func (c compiler) text(p props, box layout.BoundingBox) (*layout.TextLayer, error) {
	weight, err := layout.ParseFontWeight(p.str("weight", "fontWeight"))
	if err != nil {
		return nil, err
	}
	t := &layout.TextLayer{
		Box:           box,
		FontFamily:    p.str("font", "fontFamily"),
		FontWeight:    weight,
		Color:         p.str("color"),
		Align:         layout.TextAlign(strings.ToLower(p.str("align"))),
		VerticalAlign: layout.VerticalAlign(strings.ToLower(p.str("valign", "verticalAlign"))),
		LineHeight:    1.2,
		DefaultText:   p.text,
	}
	if t.DefaultText == "" {
		t.DefaultText = p.str("text", "defaultText")
	}
	if t.Align == "" {
		t.Align = layout.AlignCenter
	}
	if size, ok, err := p.number(box.Height, "size", "fontSize"); err != nil {
		return nil, err
	} else if ok {
		t.MinFontSize, t.MaxFontSize = size, size
	}
	if v, ok, err := p.number(box.Height, "maxSize", "maxFontSize"); err != nil {
		return nil, err
	} else if ok {
		t.MaxFontSize = v
	}
	if v, ok, err := p.number(box.Height, "minSize", "minFontSize"); err != nil {
		return nil, err
	} else if ok {
		t.MinFontSize = v
	}
	if v, ok, err := p.number(0, "lineHeight"); err != nil {
		return nil, err
	} else if ok {
		t.LineHeight = v
	}
	if v, ok, err := p.number(box.Width, "letterSpacing"); err != nil {
		return nil, err
	} else if ok {
		t.LetterSpacing = v
	}
	if v := p.str("maxLines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("maxLines %q 不是整数", v)
		}
		t.MaxLines = &n
	}
	if s, ok := p.nested("shadow"); ok {
		shadow := &layout.TextShadow{Color: s.str("color")}
		for _, f := range []struct {
			dst  *float64
			keys []string
		}{
			{&shadow.OffsetX, []string{"x", "offsetX"}},
			{&shadow.OffsetY, []string{"y", "offsetY"}},
			{&shadow.Blur, []string{"blur"}},
		} {
			v, _, err := s.number(0, f.keys...)
			if err != nil {
				return nil, fmt.Errorf("shadow.%w", err)
			}
			*f.dst = v
		}
		t.Shadow = shadow
	}
	return t, nil
}

func (c compiler) badge(p props, box layout.BoundingBox) (*layout.BadgeLayer, error) {
	b := &layout.BadgeLayer{
		Box:             box,
		Shape:           layout.BadgeShape(strings.ToLower(p.str("shape"))),
		BackgroundColor: p.str("fill", "background", "backgroundColor"),
		BorderColor:     p.str("border", "borderColor"),
	}
	var err error
	if b.BorderWidth, _, err = p.number(0, "borderWidth"); err != nil {
		return nil, err
	}
	if b.BorderRadius, _, err = p.number(box.Height, "radius", "borderRadius"); err != nil {
		return nil, err
	}
	label, ok := p.nested("label")
	if !ok {
		return b, nil
	}
	weight, err := layout.ParseFontWeight(label.str("weight", "fontWeight"))
	if err != nil {
		return nil, err
	}
	text := &layout.BadgeText{
		FontFamily:  label.str("font", "fontFamily"),
		FontWeight:  weight,
		Color:       label.str("color"),
		Align:       layout.TextAlign(strings.ToLower(label.str("align"))),
		DefaultText: label.text,
	}
	if text.DefaultText == "" {
		text.DefaultText = label.str("text")
	}
	if text.FontSize, _, err = label.number(box.Height, "size", "fontSize"); err != nil {
		return nil, err
	}
	b.Text = text
	return b, nil
}

func gradient(p props) (*layout.Gradient, error) {
	g := &layout.Gradient{
		Type:      strings.ToLower(p.str("type")),
		Direction: layout.GradientDirection(strings.ToLower(p.str("direction"))),
	}
	if g.Type == "" {
		g.Type = "linear"
	}
	stops := p.get("stops")
	if stops == nil || stops.Array == nil {
		return nil, fmt.Errorf("gradient 缺少 stops 数组")
	}
	for i, item := range stops.Array.Values {
		if item.Object == nil {
			return nil, fmt.Errorf("gradient.stops[%d] 需要 { at: ..; color: .. }", i)
		}
		sp := objectProps(item.Object)
		at, ok, err := sp.number(1, "at", "position")
		if err != nil || !ok {
			return nil, fmt.Errorf("gradient.stops[%d] 缺少合法的 at", i)
		}
		// at 既可写作 0.4 也可写作 40%
		g.Stops = append(g.Stops, layout.GradientStop{Position: at, Color: sp.str("color")})
	}
	return g, nil
}
