package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var defaultTextColor = Color{R: 30, G: 30, B: 30, A: 1}

var namedColors = map[string]Color{
	"transparent": {},
	"black":       {R: 0, G: 0, B: 0, A: 1},
	"white":       {R: 255, G: 255, B: 255, A: 1},
	"red":         {R: 255, G: 0, B: 0, A: 1},
	"green":       {R: 0, G: 128, B: 0, A: 1},
	"blue":        {R: 0, G: 0, B: 255, A: 1},
	"gray":        {R: 128, G: 128, B: 128, A: 1},
	"grey":        {R: 128, G: 128, B: 128, A: 1},
	"yellow":      {R: 255, G: 255, B: 0, A: 1},
	"orange":      {R: 255, G: 165, B: 0, A: 1},
}

// ParseColor 解析模板中使用的 CSS 颜色：#rgb、#rgba、#rrggbb、#rrggbbaa、rgb()、rgba() 以及少量颜色名。
func ParseColor(value string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Color{}, fmt.Errorf("颜色值为空")
	}
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHexColor(v[1:])
	}
	if strings.HasPrefix(v, "rgb") {
		return parseFuncColor(v)
	}
	return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
}

// resolveColor 在解析失败时回退到 fallback。
func resolveColor(value string, fallback Color) Color {
	if value == "" {
		return fallback
	}
	if c, err := ParseColor(value); err == nil {
		return c
	}
	return fallback
}

// optionalColor 在值为空或无法解析时返回 nil。
func optionalColor(value string) *Color {
	if value == "" {
		return nil
	}
	c, err := ParseColor(value)
	if err != nil {
		return nil
	}
	return &c
}

func parseHexColor(hex string) (Color, error) {
	expand := func(s string) string {
		var b strings.Builder
		for _, r := range s {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		return b.String()
	}
	switch len(hex) {
	case 3, 4:
		hex = expand(hex)
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("颜色值 #%s 无法解析", hex)
	}
	var comps [4]int
	comps[3] = 255
	for i := 0; i*2 < len(hex); i++ {
		n, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 #%s 无法解析", hex)
		}
		comps[i] = int(n)
	}
	return Color{R: comps[0], G: comps[1], B: comps[2], A: float64(comps[3]) / 255}, nil
}

func parseFuncColor(v string) (Color, error) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", v)
	}
	name := strings.TrimSpace(v[:open])
	body := v[open+1 : len(v)-1]
	body = strings.ReplaceAll(body, "/", ",")
	parts := strings.FieldsFunc(body, func(r rune) bool { return r == ',' || r == ' ' })
	if (name != "rgb" && name != "rgba") || (len(parts) != 3 && len(parts) != 4) {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", v)
	}
	var rgb [3]int
	for i := 0; i < 3; i++ {
		p := parts[i]
		var f float64
		var err error
		if strings.HasSuffix(p, "%") {
			f, err = strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
			f = f * 255 / 100
		} else {
			f, err = strconv.ParseFloat(p, 64)
		}
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析", v)
		}
		rgb[i] = int(math.Round(clamp(f, 0, 255)))
	}
	alpha := 1.0
	if len(parts) == 4 {
		p := parts[3]
		var err error
		if strings.HasSuffix(p, "%") {
			alpha, err = strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
			alpha /= 100
		} else {
			alpha, err = strconv.ParseFloat(p, 64)
		}
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析", v)
		}
		alpha = clamp(alpha, 0, 1)
	}
	return Color{R: rgb[0], G: rgb[1], B: rgb[2], A: alpha}, nil
}

// SampleGradient 在 t∈[0,1] 处对色标做线性插值。t 落在首尾色标之外时取端点颜色。
func SampleGradient(stops []ResolvedStop, t float64) Color {
	if len(stops) == 0 {
		return Color{}
	}
	if t <= stops[0].Position {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if t >= last.Position {
		return last.Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Position {
			continue
		}
		span := b.Position - a.Position
		if span <= 0 {
			return b.Color
		}
		k := (t - a.Position) / span
		return Color{
			R: int(math.Round(lerp(float64(a.Color.R), float64(b.Color.R), k))),
			G: int(math.Round(lerp(float64(a.Color.G), float64(b.Color.G), k))),
			B: int(math.Round(lerp(float64(a.Color.B), float64(b.Color.B), k))),
			A: lerp(a.Color.A, b.Color.A, k),
		}
	}
	return last.Color
}

func lerp(a, b, k float64) float64 { return a + (b-a)*k }

func clamp(v, lo, hi float64) float64 { return math.Min(math.Max(v, lo), hi) }
