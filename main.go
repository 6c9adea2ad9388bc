package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/carousel/carousel"
	"github.com/ByLCY/carousel/config"
	"github.com/ByLCY/carousel/fonts"
	"github.com/ByLCY/carousel/layout"
	"github.com/ByLCY/carousel/renderer"
	"github.com/ByLCY/carousel/templates"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	configPath := flag.String("config", "", "配置文件路径（yaml/json/toml）")
	requestPath := flag.String("request", "examples/request.json", "批量渲染请求 JSON 路径，- 表示标准输入")
	outDir := flag.String("out", "", "把幻灯片直接写入该目录，忽略请求中的 outputFormat")
	planDir := flag.String("plan", "", "布局调试 JSON 输出目录")
	format := flag.String("format", "", "输出格式 png 或 pdf，覆盖配置")
	logLevel := flag.String("log-level", "", "日志级别 (debug, info, warn, error)，覆盖配置")
	list := flag.Bool("list", false, "列出可用模板后退出")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("读取配置失败: %v", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *format != "" {
		cfg.Render.Format = *format
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("参数错误: %v", err)
		}
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	svc, store, err := setup(cfg)
	if err != nil {
		logrus.Fatalf("初始化失败: %v", err)
	}
	defer svc.Close()

	if *list {
		for _, id := range store.IDs() {
			fmt.Println(id)
		}
		return
	}

	req, err := readRequest(*requestPath)
	if err != nil {
		logrus.Fatalf("读取请求失败: %v", err)
	}
	opts := runOptions{outDir: *outDir, planDir: *planDir, ext: cfg.Render.Format}
	if err := run(context.Background(), svc, req, opts, os.Stdout); err != nil {
		logrus.Fatalf("渲染失败: %v", err)
	}
}

// setup 按配置组装模板仓库、字体库与渲染服务。
func setup(cfg *config.Config) (*carousel.Service, *templates.Store, error) {
	store, err := templates.NewBuiltinStore()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Templates.Dir != "" {
		if _, err := store.LoadDir(cfg.Templates.Dir); err != nil {
			return nil, nil, err
		}
	}
	lib := fonts.NewLibrary()
	if cfg.Fonts.Dir != "" {
		if _, err := lib.LoadDir(cfg.Fonts.Dir); err != nil {
			return nil, nil, err
		}
	}
	logrus.WithFields(logrus.Fields{
		"templates": len(store.IDs()),
		"families":  lib.Families(),
	}).Debug("Loaded templates and fonts")
	loader := carousel.NewLoader(cfg.Assets.Dir, cfg.Assets.HTTPTimeout)
	if cfg.Assets.MaxBytes > 0 {
		loader.MaxBytes = cfg.Assets.MaxBytes
	}
	svc, err := carousel.NewService(carousel.Options{
		Templates:         store,
		Fonts:             lib,
		Loader:            loader,
		Storage:           &carousel.Storage{Dir: cfg.Output.Dir, PublicBaseURL: cfg.Output.PublicBaseURL},
		Format:            renderer.Format(cfg.Render.Format),
		Resolution:        cfg.Render.Resolution,
		Measurer:          cfg.Render.Measurer,
		Concurrency:       cfg.Render.Concurrency,
		WidthCacheEntries: cfg.Render.WidthCacheEntries,
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, store, nil
}

func readRequest(path string) (carousel.RenderCarouselRequest, error) {
	var req carousel.RenderCarouselRequest
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("无法读取请求 %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("解析请求 JSON 失败: %w", err)
	}
	return req, nil
}

type runOptions struct {
	outDir  string
	planDir string
	ext     string
}

// run 串联布局调试输出、渲染与结果输出。
func run(ctx context.Context, svc *carousel.Service, req carousel.RenderCarouselRequest, opts runOptions, stdout io.Writer) error {
	if svc == nil {
		return fmt.Errorf("service 不能为空")
	}
	if opts.planDir != "" {
		for i, slide := range req.Slides {
			result, err := svc.PlanSlide(ctx, slide)
			if err != nil {
				return fmt.Errorf("第 %d 张幻灯片布局失败: %w", i+1, err)
			}
			if err := writeDebug(result, filepath.Join(opts.planDir, fmt.Sprintf("slide-%02d.json", i+1))); err != nil {
				return err
			}
		}
	}

	if opts.outDir != "" {
		req.OutputFormat = carousel.OutputBase64
	}
	res, err := svc.RenderCarousel(ctx, req)
	if err != nil {
		return err
	}
	if opts.outDir != "" {
		if err := writeSlides(res, opts.outDir, opts.ext); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// writeSlides 把 base64 结果写成文件，并把结果中的内容替换为文件路径。
func writeSlides(res *carousel.RenderCarouselResult, dir, ext string) error {
	if ext == "" {
		ext = string(renderer.FormatPNG)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	for i := range res.Slides {
		slide := &res.Slides[i]
		if !slide.Success {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(slide.ImageBase64)
		if err != nil {
			return fmt.Errorf("解码第 %d 张幻灯片失败: %w", i+1, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("slide-%02d.%s", i+1, ext))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("写入文件失败: %w", err)
		}
		slide.ImageBase64 = ""
		slide.ImageURL = path
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	data, err := layout.DebugJSON(result)
	if err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	if err := os.WriteFile(debugPath, data, 0o644); err != nil {
		return fmt.Errorf("写入调试文件失败: %w", err)
	}
	return nil
}
