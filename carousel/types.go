// Package carousel 把模板、背景素材与文案组合成幻灯片图片，支持单张与批量渲染。
package carousel

import "github.com/ByLCY/carousel/layout"

// BackgroundType 是背景素材的来源类型。
type BackgroundType string

const (
	BackgroundURL     BackgroundType = "url"
	BackgroundBase64  BackgroundType = "base64"
	BackgroundStorage BackgroundType = "storage"
)

// BackgroundInput 描述一张幻灯片的背景图。Value 依类型分别为 URL、
// base64（可带 data URI 前缀）或素材目录下的相对路径。
type BackgroundInput struct {
	Type  BackgroundType `json:"type"`
	Value string         `json:"value"`
}

// TextInputs 按图层 id 覆盖文案。
type TextInputs map[string]string

// PaletteOverride 覆盖模板中的部分颜色。
type PaletteOverride = layout.Palette

// RenderSlideRequest 是单张幻灯片的渲染请求。
type RenderSlideRequest struct {
	TemplateID string           `json:"templateId"`
	Background *BackgroundInput `json:"background,omitempty"`
	Texts      TextInputs       `json:"texts,omitempty"`
	Palette    *PaletteOverride `json:"palette,omitempty"`
	// Data 用于替换文案中的 ${path} 占位符。
	Data map[string]any `json:"data,omitempty"`
}

// OutputFormat 决定批量渲染结果的交付方式。
type OutputFormat string

const (
	OutputBase64  OutputFormat = "base64"
	OutputStorage OutputFormat = "storage"
)

// RenderCarouselRequest 是批量渲染请求。OutputFormat 缺省为 storage，此时必须提供 UserID。
type RenderCarouselRequest struct {
	Slides       []RenderSlideRequest `json:"slides"`
	OutputFormat OutputFormat         `json:"outputFormat,omitempty"`
	UserID       string               `json:"userId,omitempty"`
}

// RenderSlideResult 是单张幻灯片的结果，ImageBase64 与 ImageURL 二选一。
type RenderSlideResult struct {
	Success     bool   `json:"success"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RenderCarouselResult 汇总批量渲染结果，Slides 与请求顺序一致。
type RenderCarouselResult struct {
	Success bool                `json:"success"`
	Slides  []RenderSlideResult `json:"slides"`
	Errors  []string            `json:"errors,omitempty"`
}
