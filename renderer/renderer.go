package renderer

import (
	"image"

	"github.com/ByLCY/carousel/layout"
)

// Format 是输出格式。
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// Images 是按图层 id 索引的已解码图片。
type Images map[string]image.Image

// Renderer 将布局结果输出为最终文件，例如 PNG 或 PDF。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result, images Images) ([]byte, error)
}
