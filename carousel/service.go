package carousel

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/carousel/fonts"
	"github.com/ByLCY/carousel/layout"
	"github.com/ByLCY/carousel/measure"
	"github.com/ByLCY/carousel/renderer"
	canvasrenderer "github.com/ByLCY/carousel/renderer/canvas"
	"github.com/ByLCY/carousel/templates"
)

// 测量后端名称。
const (
	MeasurerCanvas   = "canvas"
	MeasurerOpenType = "opentype"
)

// Options 配置渲染服务。
type Options struct {
	Templates *templates.Store
	Fonts     *fonts.Library
	Loader    *Loader
	// Storage 为 nil 时不支持 storage 输出。
	Storage *Storage

	Format     renderer.Format
	Resolution float64
	// Measurer 选择测量后端，缺省为 canvas，与绘制使用同一套字体面。
	Measurer string
	// Concurrency 是批量渲染时同时处理的幻灯片数量上限。
	Concurrency int
	// WidthCacheEntries 为 0 时使用默认容量，小于 0 时关闭测量缓存。
	WidthCacheEntries int64
}

// Service 负责单张与批量渲染。可被多个 goroutine 同时使用。
type Service struct {
	templates   *templates.Store
	fonts       *fonts.Library
	loader      *Loader
	storage     *Storage
	renderer    *canvasrenderer.Renderer
	widths      *measure.WidthCache
	measurer    string
	concurrency int
}

// NewService 创建渲染服务。
func NewService(opts Options) (*Service, error) {
	if opts.Templates == nil {
		return nil, fmt.Errorf("缺少模板仓库")
	}
	s := &Service{
		templates:   opts.Templates,
		fonts:       opts.Fonts,
		loader:      opts.Loader,
		storage:     opts.Storage,
		measurer:    strings.ToLower(opts.Measurer),
		concurrency: opts.Concurrency,
	}
	if s.fonts == nil {
		s.fonts = fonts.NewLibrary()
	}
	if s.loader == nil {
		s.loader = NewLoader("", 0)
	}
	if s.concurrency <= 0 {
		s.concurrency = 4
	}
	switch s.measurer {
	case "":
		s.measurer = MeasurerCanvas
	case MeasurerCanvas, MeasurerOpenType:
	default:
		return nil, fmt.Errorf("未知的测量后端 %q", opts.Measurer)
	}
	switch opts.Format {
	case "", renderer.FormatPNG, renderer.FormatPDF:
	default:
		return nil, fmt.Errorf("不支持的输出格式 %q", opts.Format)
	}
	s.renderer = canvasrenderer.NewRenderer(canvasrenderer.Options{
		Fonts:      s.fonts,
		Format:     opts.Format,
		Resolution: opts.Resolution,
	})
	if opts.WidthCacheEntries >= 0 {
		cache, err := measure.NewWidthCache(opts.WidthCacheEntries)
		if err != nil {
			return nil, fmt.Errorf("创建测量缓存失败: %w", err)
		}
		s.widths = cache
	}
	return s, nil
}

// Close 释放测量缓存。
func (s *Service) Close() {
	if s.widths != nil {
		s.widths.Close()
	}
}

// newPort 为一次渲染创建独立的测量端口。
func (s *Service) newPort() (layout.MeasurementPort, func()) {
	if s.measurer == MeasurerOpenType {
		ot := measure.NewOpenType(s.fonts)
		return measure.NewCached(ot, s.widths), func() { _ = ot.Close() }
	}
	return measure.NewCached(s.renderer.NewMeasurer(), s.widths), func() {}
}

// PlanSlide 只计算布局，不绘制。
func (s *Service) PlanSlide(ctx context.Context, req RenderSlideRequest) (*layout.Result, error) {
	res, _, err := s.plan(ctx, req)
	return res, err
}

func (s *Service) plan(ctx context.Context, req RenderSlideRequest) (*layout.Result, renderer.Images, error) {
	tpl, err := s.templates.Get(req.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	images, in, err := s.loadImages(ctx, tpl, req)
	if err != nil {
		return nil, nil, err
	}
	in.Texts = req.Texts
	in.Palette = req.Palette
	if len(req.Data) > 0 {
		in.Data = req.Data
	}

	port, release := s.newPort()
	defer release()
	res, err := layout.Build(tpl, in, layout.BuildOptions{Measurer: port})
	if err != nil {
		return nil, nil, err
	}
	return res, images, nil
}

// loadImages 为每个可见的图片图层加载素材：优先使用请求中的背景，
// 否则使用图层的 defaultSource（http 地址或素材目录下的路径）。
func (s *Service) loadImages(ctx context.Context, tpl *layout.Template, req RenderSlideRequest) (renderer.Images, layout.Input, error) {
	images := renderer.Images{}
	in := layout.Input{Images: map[string]layout.ImageSize{}, Sources: map[string]string{}}
	loaded := map[BackgroundInput]image.Image{}
	explicit := req.Background != nil && req.Background.Value != ""

	for _, layer := range tpl.SortedLayers() {
		if layer.Image == nil {
			continue
		}
		src, ok := backgroundFor(req.Background, layer.Image.DefaultSource)
		if !ok {
			continue
		}
		img, ok := loaded[src]
		if !ok {
			var err error
			img, _, err = s.loader.Load(ctx, src)
			if err != nil && !explicit {
				// 模板自带的默认素材不可用时只跳过该图层
				logrus.WithError(err).WithField("layer", layer.ID).Warn("Failed to load default source, skipping")
				continue
			}
			if err != nil {
				return nil, layout.Input{}, fmt.Errorf("加载图层 %s 的背景图失败: %w", layer.ID, err)
			}
			loaded[src] = img
		}
		b := img.Bounds()
		images[layer.ID] = img
		in.Images[layer.ID] = layout.ImageSize{Width: float64(b.Dx()), Height: float64(b.Dy())}
		in.Sources[layer.ID] = describeSource(src)
	}
	return images, in, nil
}

func backgroundFor(bg *BackgroundInput, defaultSource string) (BackgroundInput, bool) {
	if bg != nil && bg.Value != "" {
		return *bg, true
	}
	if defaultSource == "" {
		return BackgroundInput{}, false
	}
	if strings.HasPrefix(defaultSource, "http://") || strings.HasPrefix(defaultSource, "https://") {
		return BackgroundInput{Type: BackgroundURL, Value: defaultSource}, true
	}
	return BackgroundInput{Type: BackgroundStorage, Value: defaultSource}, true
}

// describeSource 用于调试输出，base64 内容不写入布局结果。
func describeSource(in BackgroundInput) string {
	if in.Type == BackgroundBase64 {
		return string(BackgroundBase64)
	}
	return string(in.Type) + ":" + in.Value
}

func (s *Service) renderSlide(ctx context.Context, req RenderSlideRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, images, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(res, images)
}

// RenderSlide 渲染单张幻灯片并以 base64 返回。
func (s *Service) RenderSlide(ctx context.Context, req RenderSlideRequest) RenderSlideResult {
	return s.deliver(ctx, req, OutputBase64, "")
}

func (s *Service) deliver(ctx context.Context, req RenderSlideRequest, format OutputFormat, userID string) RenderSlideResult {
	data, err := s.renderSlide(ctx, req)
	if err != nil {
		return RenderSlideResult{Error: err.Error()}
	}
	if format == OutputBase64 {
		return RenderSlideResult{Success: true, ImageBase64: base64.StdEncoding.EncodeToString(data)}
	}
	url, err := s.storage.Save(userID, data, string(s.renderer.Format()))
	if err != nil {
		return RenderSlideResult{Error: err.Error()}
	}
	return RenderSlideResult{Success: true, ImageURL: url}
}

// RenderCarousel 并发渲染所有幻灯片。单张失败只记录在对应结果中，不会中断其余幻灯片；
// 请求本身不合法时返回错误。
func (s *Service) RenderCarousel(ctx context.Context, req RenderCarouselRequest) (*RenderCarouselResult, error) {
	if len(req.Slides) == 0 {
		return nil, fmt.Errorf("请求中没有幻灯片")
	}
	format := req.OutputFormat
	if format == "" {
		format = OutputStorage
	}
	switch format {
	case OutputBase64:
	case OutputStorage:
		if s.storage == nil {
			return nil, fmt.Errorf("未配置输出目录，无法使用 storage 输出")
		}
		if err := checkUserID(req.UserID); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("不支持的输出方式 %q", req.OutputFormat)
	}

	results := make([]RenderSlideResult, len(req.Slides))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, slide := range req.Slides {
		g.Go(func() error {
			results[i] = s.deliver(ctx, slide, format, req.UserID)
			return nil
		})
	}
	_ = g.Wait()

	out := &RenderCarouselResult{Success: true, Slides: results}
	for i, r := range results {
		if r.Success {
			continue
		}
		out.Success = false
		out.Errors = append(out.Errors, fmt.Sprintf("slide %d: %s", i+1, r.Error))
		logrus.WithFields(logrus.Fields{
			"slide":    i + 1,
			"template": req.Slides[i].TemplateID,
		}).Warnf("Failed to render slide: %s", r.Error)
	}
	logrus.WithFields(logrus.Fields{
		"slides": len(results),
		"failed": len(out.Errors),
		"output": format,
	}).Info("Rendered carousel")
	return out, nil
}
