package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/carousel/fonts"
	"github.com/ByLCY/carousel/layout"
	"github.com/ByLCY/carousel/renderer"
)

// 画布单位与 tdewolff/canvas 的毫米一一对应：1px 布局坐标 = 1mm 画布坐标，
// 字号在创建字体面时换算为 pt。

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	fonts      *fonts.Library
	format     renderer.Format
	resolution float64

	fontMu       sync.Mutex
	fontFamilies map[string]*canvas.FontFamily
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	// Fonts 为 nil 时只使用内置 Go 字体。
	Fonts *fonts.Library
	// Format 缺省为 PNG。
	Format renderer.Format
	// Resolution 是 PNG 输出时每个画布单位对应的像素数，缺省为 1。
	Resolution float64
}

// NewRenderer creates a canvas-based renderer.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{
		fonts:        opts.Fonts,
		format:       opts.Format,
		resolution:   opts.Resolution,
		fontFamilies: map[string]*canvas.FontFamily{},
	}
	if r.fonts == nil {
		r.fonts = fonts.NewLibrary()
	}
	if r.format == "" {
		r.format = renderer.FormatPNG
	}
	if r.resolution <= 0 {
		r.resolution = 1
	}
	return r
}

// Format 返回输出格式。
func (r *Renderer) Format() renderer.Format { return r.format }

// Render 按绘制顺序合成所有图层。images 以图层 id 索引，缺失的图片图层会被跳过。
func (r *Renderer) Render(result *layout.Result, images renderer.Images) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if !(result.Width > 0 && result.Height > 0) {
		return nil, fmt.Errorf("画布尺寸 %gx%g 非法", result.Width, result.Height)
	}

	c := canvas.New(result.Width, result.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	if result.Background != nil {
		fillRect(ctx, 0, 0, result.Width, result.Height, *result.Background)
	}
	for _, item := range result.Items {
		if err := r.drawItem(ctx, item, images); err != nil {
			return nil, fmt.Errorf("绘制图层 %s 失败: %w", item.LayerID, err)
		}
	}

	switch r.format {
	case renderer.FormatPDF:
		return r.encodePDF(c, result)
	case renderer.FormatPNG:
		return r.encodePNG(c)
	default:
		return nil, fmt.Errorf("不支持的输出格式 %q", r.format)
	}
}

func (r *Renderer) encodePNG(c *canvas.Canvas) ([]byte, error) {
	img := rasterizer.Draw(c, canvas.DPMM(r.resolution), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) encodePDF(c *canvas.Canvas, result *layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Width, result.Height, nil)
	writer.SetInfo(result.TemplateID, "", "", "", "carousel")
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawItem(ctx *canvas.Context, item layout.Item, images renderer.Images) error {
	switch {
	case item.Image != nil:
		img, ok := images[item.LayerID]
		if !ok || img == nil {
			return nil
		}
		return r.drawImage(ctx, item.Box, item.Image, img)
	case item.Overlay != nil:
		r.drawOverlay(ctx, item.Box, item.Overlay)
	case item.Text != nil:
		return r.drawText(ctx, item.Text)
	case item.Badge != nil:
		return r.drawBadge(ctx, item.Box, item.Badge)
	}
	return nil
}

// drawImage 按裁剪结果从源图取出 Source 区域，缩放到 Dest 大小后放入目标框。
func (r *Renderer) drawImage(ctx *canvas.Context, box layout.BoundingBox, spec *layout.ImageItem, img image.Image) error {
	crop := spec.Crop
	bounds := img.Bounds()
	// 实际解码尺寸可能与布局时的尺寸不同，按比例换算源矩形
	sx, sy := 1.0, 1.0
	if spec.Size.Width > 0 && spec.Size.Height > 0 {
		sx = float64(bounds.Dx()) / spec.Size.Width
		sy = float64(bounds.Dy()) / spec.Size.Height
	}
	src := image.Rect(
		bounds.Min.X+int(math.Floor(crop.Source.X*sx)),
		bounds.Min.Y+int(math.Floor(crop.Source.Y*sy)),
		bounds.Min.X+int(math.Ceil((crop.Source.X+crop.Source.Width)*sx)),
		bounds.Min.Y+int(math.Ceil((crop.Source.Y+crop.Source.Height)*sy)),
	).Intersect(bounds)
	if src.Empty() {
		return fmt.Errorf("裁剪区域为空")
	}

	dw := int(math.Round(crop.Dest.Width * r.resolution))
	dh := int(math.Round(crop.Dest.Height * r.resolution))
	if dw <= 0 || dh <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, src, xdraw.Over, nil)
	ctx.DrawImage(box.X+crop.Dest.X, box.Y+crop.Dest.Y, dst, canvas.DPMM(r.resolution))
	return nil
}

func (r *Renderer) drawOverlay(ctx *canvas.Context, box layout.BoundingBox, overlay *layout.OverlayItem) {
	if overlay.Gradient != nil {
		img := GradientImage(overlay.Gradient, box.Width, box.Height, r.resolution)
		if img != nil {
			ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(r.resolution))
		}
		return
	}
	if overlay.Color != nil {
		fillRect(ctx, box.X, box.Y, box.Width, box.Height, *overlay.Color)
	}
}

// GradientImage 把线性渐变栅格化为图片，沿渐变方向逐行（或逐列）取样。
func GradientImage(g *layout.ResolvedGradient, width, height, resolution float64) *image.NRGBA {
	w := int(math.Round(width * resolution))
	h := int(math.Round(height * resolution))
	if w <= 0 || h <= 0 || len(g.Stops) == 0 {
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	vertical := g.Direction != layout.ToLeft && g.Direction != layout.ToRight
	reverse := g.Direction == layout.ToTop || g.Direction == layout.ToLeft
	steps := w
	if vertical {
		steps = h
	}
	for i := 0; i < steps; i++ {
		t := (float64(i) + 0.5) / float64(steps)
		if reverse {
			t = 1 - t
		}
		col := toNRGBA(layout.SampleGradient(g.Stops, t))
		if vertical {
			for x := 0; x < w; x++ {
				img.SetNRGBA(x, i, col)
			}
		} else {
			for y := 0; y < h; y++ {
				img.SetNRGBA(i, y, col)
			}
		}
	}
	return img
}

func (r *Renderer) drawBadge(ctx *canvas.Context, box layout.BoundingBox, badge *layout.BadgeItem) error {
	x, y, w, h := box.X, box.Y, box.Width, box.Height
	if badge.Shape == layout.ShapeCircle {
		d := math.Min(w, h)
		x, y = x+(w-d)/2, y+(h-d)/2
		w, h = d, d
	}
	var path *canvas.Path
	if badge.Radius > 0 {
		path = canvas.RoundedRectangle(w, h, badge.Radius)
	} else {
		path = canvas.Rectangle(w, h)
	}
	if badge.Fill != nil {
		ctx.SetFillColor(colorFromLayout(*badge.Fill))
	} else {
		ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	}
	if badge.Border != nil && badge.BorderWidth > 0 {
		ctx.SetStrokeColor(colorFromLayout(*badge.Border))
		ctx.SetStrokeWidth(badge.BorderWidth)
	} else {
		ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
		ctx.SetStrokeWidth(0)
	}
	ctx.DrawPath(x, y, path)
	if badge.Text != nil {
		return r.drawText(ctx, badge.Text)
	}
	return nil
}

// drawText 在每行的行顶坐标加上字体上升部得到基线。阴影先于正文绘制，不做模糊。
func (r *Renderer) drawText(ctx *canvas.Context, text *layout.TextItem) error {
	size := text.Measurement.FontSize
	if text.Shadow != nil && text.Shadow.Color.A > 0 {
		face, err := r.fontFace(text.FontFamily, text.FontWeight, size, text.Shadow.Color)
		if err != nil {
			return err
		}
		drawLines(ctx, face, text.Lines, text.LetterSpacing, text.Shadow.OffsetX, text.Shadow.OffsetY)
	}
	face, err := r.fontFace(text.FontFamily, text.FontWeight, size, text.Color)
	if err != nil {
		return err
	}
	drawLines(ctx, face, text.Lines, text.LetterSpacing, 0, 0)
	return nil
}

func drawLines(ctx *canvas.Context, face *canvas.FontFace, lines []layout.PositionedLine, letterSpacing, dx, dy float64) {
	ascent := face.Metrics().Ascent
	for _, line := range lines {
		if line.Content == "" {
			continue
		}
		x := line.X + dx
		baseline := line.Y + dy + ascent
		if letterSpacing == 0 {
			ctx.DrawText(x, baseline, canvas.NewTextLine(face, line.Content, canvas.Left))
			continue
		}
		// 字间距逐字符推进，与测量时 letterSpacing*字符数 的约定一致
		for _, ch := range line.Content {
			s := string(ch)
			ctx.DrawText(x, baseline, canvas.NewTextLine(face, s, canvas.Left))
			x += face.TextWidth(s) + letterSpacing
		}
	}
}

func fillRect(ctx *canvas.Context, x, y, w, h float64, col layout.Color) {
	ctx.SetFillColor(colorFromLayout(col))
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeWidth(0)
	ctx.DrawPath(x, y, canvas.Rectangle(w, h))
}

// fontFace 为字体库中的字体创建字体面，size 为 px。
func (r *Renderer) fontFace(family string, weight layout.FontWeight, size float64, col layout.Color) (*canvas.FontFace, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	fam, err := r.ensureFontFamily(r.fonts.Lookup(family, weight))
	if err != nil {
		return nil, err
	}
	return fam.Face(toPt(size), colorFromLayout(col), canvas.FontRegular, canvas.FontNormal), nil
}

// ensureFontFamily 每个字体文件对应一个 canvas 字体族，创建后缓存。调用方需持有 fontMu。
func (r *Renderer) ensureFontFamily(f *fonts.Font) (*canvas.FontFamily, error) {
	key := f.Key()
	if fam, ok := r.fontFamilies[key]; ok {
		return fam, nil
	}
	fam := canvas.NewFontFamily(key)
	if err := fam.LoadFont(f.Data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("载入字体 %s 失败: %w", key, err)
	}
	r.fontFamilies[key] = fam
	return fam, nil
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, c.A)
}

func toNRGBA(c layout.Color) color.NRGBA {
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: uint8(math.Round(c.A * 255))}
}

// toPt 将画布单位（px，按 mm 绘制）转换为点(pt)。
func toPt(px float64) float64 { return px * layout.MmToPt }
