package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// 画布单位为 px。模板中的长度可以带单位，解析时保留原始单位，
// 到需要绝对值时再根据参考长度换算。

// Unit 表示长度在模板中的原始单位。
type Unit int

const (
	UnitNone    Unit = iota // 无单位，按 px 处理
	UnitPX                  // 像素
	UnitPT                  // 点，按 96 dpi 换算
	UnitPercent             // 相对参考长度的百分比
)

// 换算常量。渲染端以 1px = 1mm 的画布单位绘制，字号需要换成 pt。
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Resolve 换算为 px。百分比相对 reference 计算。
func (l Length) Resolve(reference float64) float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value * 96 / 72
	case UnitPercent:
		return l.Value * reference / 100
	default:
		return l.Value
	}
}

// ParseLength 解析形如 "120"、"120px"、"36pt"、"50%" 的长度。
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"%", UnitPercent}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}
