// Package measure 提供不依赖绘图上下文的文字测量后端，实现 layout.MeasurementPort。
package measure

import (
	"fmt"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/ByLCY/carousel/fonts"
	"github.com/ByLCY/carousel/layout"
)

// fallbackAdvance 是字体不可用时每个字符按字号估算的宽度比例。
const fallbackAdvance = 0.55

type faceKey struct {
	font string
	size float64
}

// OpenType 基于 golang.org/x/image/font/opentype 测量文字宽度（px，按 72 DPI 使字号与像素一致）。
// 实例持有当前字体状态，不能在 goroutine 之间共享；字体库本身可以共享。
type OpenType struct {
	lib   *fonts.Library
	faces map[faceKey]font.Face

	size    float64
	current font.Face
}

var _ layout.MeasurementPort = (*OpenType)(nil)

// NewOpenType 创建测量后端。lib 为 nil 时使用只含内置字体的字体库。
func NewOpenType(lib *fonts.Library) *OpenType {
	if lib == nil {
		lib = fonts.NewLibrary()
	}
	return &OpenType{lib: lib, faces: map[faceKey]font.Face{}}
}

// SetFont 选择后续 Measure 使用的字体。
func (m *OpenType) SetFont(size float64, weight layout.FontWeight, family string) {
	m.size = size
	f := m.lib.Lookup(family, weight)
	key := faceKey{font: f.Key(), size: size}
	if face, ok := m.faces[key]; ok {
		m.current = face
		return
	}
	face, err := newFace(f, size)
	if err != nil {
		logrus.WithError(err).WithField("font", f.Key()).Warn("Falling back to estimated text width")
		m.current = nil
		return
	}
	m.faces[key] = face
	m.current = face
}

// Measure 返回 text 的水平前进宽度。
func (m *OpenType) Measure(text string) float64 {
	if text == "" {
		return 0
	}
	if m.current == nil {
		return float64(utf8.RuneCountInString(text)) * m.size * fallbackAdvance
	}
	adv := font.MeasureString(m.current, text)
	return float64(adv) / 64
}

// Close 释放缓存的字体面。
func (m *OpenType) Close() error {
	var firstErr error
	for key, face := range m.faces {
		if err := face.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.faces, key)
	}
	m.current = nil
	return firstErr
}

func newFace(f *fonts.Font, size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("字号 %g 非法", size)
	}
	parsed, err := f.OpenType()
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
