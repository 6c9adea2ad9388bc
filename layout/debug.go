package layout

import (
	"encoding/json"
	"fmt"
)

// debugPlan 是调试 JSON 的结构：布局计划加上排版告警。
type debugPlan struct {
	*Result
	// Overflowed 列出在最小字号下仍放不下的文本图层。
	Overflowed []string `json:"overflowed,omitempty"`
}

// DebugJSON 将布局结果编码为缩进 JSON，便于调试或可视化。写文件由调用方负责。
func DebugJSON(res *Result) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("布局结果为空")
	}
	plan := debugPlan{Result: res}
	for _, item := range res.Items {
		if item.Text != nil && item.Text.Measurement.Overflowed {
			plan.Overflowed = append(plan.Overflowed, item.LayerID)
		}
	}
	return json.MarshalIndent(plan, "", "  ")
}
