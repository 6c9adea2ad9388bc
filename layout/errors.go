package layout

import "errors"

// 布局阶段的错误分类。调用方用 errors.Is 判断，具体上下文由包装信息给出。
var (
	// ErrInvalidDimensions 表示图片或目标框存在非正的尺寸。
	ErrInvalidDimensions = errors.New("layout: invalid dimensions")

	// ErrInvalidLayerConfig 表示图层配置不合法，例如 minFontSize > maxFontSize。
	ErrInvalidLayerConfig = errors.New("layout: invalid layer config")
)
