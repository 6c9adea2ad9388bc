package layout

import (
	"fmt"
	"math"
)

// ComputeCoverCrop 计算 "cover" 适配：等比缩放图片直至完全覆盖目标框，居中裁掉多余部分。
// 返回的 Dest 始终等于整个目标框（以目标框左上角为原点）。
func ComputeCoverCrop(imgW, imgH, boxW, boxH float64) (CropResult, error) {
	if err := checkDimensions(imgW, imgH, boxW, boxH); err != nil {
		return CropResult{}, err
	}
	imgAspect := imgW / imgH
	boxAspect := boxW / boxH

	var scale, srcX, srcY, srcW, srcH float64
	if imgAspect > boxAspect {
		// 图片相对更宽：按高度缩放，左右对称裁剪
		scale = boxH / imgH
		srcH = imgH
		srcW = boxW / scale
		srcX = (imgW - srcW) / 2
		srcY = 0
	} else {
		// 图片相对更高（或宽高比相同）：按宽度缩放，上下对称裁剪
		scale = boxW / imgW
		srcW = imgW
		srcH = boxH / scale
		srcX = 0
		srcY = (imgH - srcH) / 2
	}

	// 吸收浮点误差
	return CropResult{
		Scale: scale,
		Source: Rect{
			X:      math.Max(0, srcX),
			Y:      math.Max(0, srcY),
			Width:  math.Min(srcW, imgW),
			Height: math.Min(srcH, imgH),
		},
		Dest: Rect{X: 0, Y: 0, Width: boxW, Height: boxH},
	}, nil
}

// ComputeContainCrop 计算 "contain" 适配：整张图作为源，等比缩放后完整放入目标框并居中，
// 空出的区域形成上下（letterbox）或左右（pillarbox）留白。
func ComputeContainCrop(imgW, imgH, boxW, boxH float64) (CropResult, error) {
	if err := checkDimensions(imgW, imgH, boxW, boxH); err != nil {
		return CropResult{}, err
	}
	imgAspect := imgW / imgH
	boxAspect := boxW / boxH

	var dest Rect
	if imgAspect > boxAspect {
		dest.Width = boxW
		dest.Height = math.Min(boxW/imgAspect, boxH)
		dest.Y = (boxH - dest.Height) / 2
	} else {
		dest.Height = boxH
		dest.Width = math.Min(boxH*imgAspect, boxW)
		dest.X = (boxW - dest.Width) / 2
	}

	return CropResult{
		Scale:  math.Min(boxW/imgW, boxH/imgH),
		Source: Rect{X: 0, Y: 0, Width: imgW, Height: imgH},
		Dest:   dest,
	}, nil
}

// ComputeFillCrop 把整张图拉伸到整个目标框，不裁剪也不留白。
// 两个方向的缩放比例可能不同：Scale 只给出水平比例，垂直比例为 boxH/imgH。
func ComputeFillCrop(imgW, imgH, boxW, boxH float64) (CropResult, error) {
	if err := checkDimensions(imgW, imgH, boxW, boxH); err != nil {
		return CropResult{}, err
	}
	return CropResult{
		Scale:  boxW / imgW,
		Source: Rect{X: 0, Y: 0, Width: imgW, Height: imgH},
		Dest:   Rect{X: 0, Y: 0, Width: boxW, Height: boxH},
	}, nil
}

// ComputeCrop 根据 fit 选择对应的计算方式，空值按 cover 处理。
func ComputeCrop(fit Fit, imgW, imgH, boxW, boxH float64) (CropResult, error) {
	switch fit {
	case FitCover, "":
		return ComputeCoverCrop(imgW, imgH, boxW, boxH)
	case FitContain:
		return ComputeContainCrop(imgW, imgH, boxW, boxH)
	case FitFill:
		return ComputeFillCrop(imgW, imgH, boxW, boxH)
	default:
		return CropResult{}, fmt.Errorf("未知的 fit 取值 %q: %w", fit, ErrInvalidLayerConfig)
	}
}

func checkDimensions(imgW, imgH, boxW, boxH float64) error {
	if !(imgW > 0 && imgH > 0) {
		return fmt.Errorf("图片尺寸 %gx%g 非法: %w", imgW, imgH, ErrInvalidDimensions)
	}
	if !(boxW > 0 && boxH > 0) {
		return fmt.Errorf("目标框尺寸 %gx%g 非法: %w", boxW, boxH, ErrInvalidDimensions)
	}
	return nil
}
