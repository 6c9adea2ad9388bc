package layout

// BuildOptions 配置布局阶段所需的依赖，例如文字测量后端。
type BuildOptions struct {
	// Measurer 必须由调用方为每次渲染单独提供，不能在并发渲染之间共享。
	Measurer MeasurementPort
}

// MeasurementPort 报告字符串在指定字体下的渲染宽度（画布单位）。
//
// 实现通常持有可变的字体状态（例如渲染上下文），布局只会在单个 goroutine 内
// 先调用 SetFont 再调用 Measure。同一 (text, font) 组合必须返回相同结果。
type MeasurementPort interface {
	SetFont(size float64, weight FontWeight, family string)
	Measure(text string) float64
}
