package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("读取默认配置失败: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Render.Format != "png" || cfg.Render.Concurrency != 4 {
		t.Fatalf("默认值不符: %+v", cfg)
	}
	if cfg.Assets.HTTPTimeout != 15*time.Second || cfg.Output.Dir != "output" {
		t.Fatalf("默认值不符: %+v", cfg)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carousel.yaml")
	body := `
log_level: debug
templates:
  dir: ./templates
assets:
  http_timeout: 5s
output:
  dir: /tmp/slides
  public_base_url: https://cdn.example.com
render:
  format: pdf
  concurrency: 2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CAROUSEL_RENDER_CONCURRENCY", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("读取配置失败: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Templates.Dir != "./templates" || cfg.Render.Format != "pdf" {
		t.Fatalf("文件配置未生效: %+v", cfg)
	}
	if cfg.Assets.HTTPTimeout != 5*time.Second {
		t.Fatalf("时长解析错误: %v", cfg.Assets.HTTPTimeout)
	}
	if cfg.Render.Concurrency != 8 {
		t.Fatalf("环境变量应覆盖文件配置，实际 %d", cfg.Render.Concurrency)
	}
	if cfg.Output.PublicBaseURL != "https://cdn.example.com" {
		t.Fatalf("output 配置不符: %+v", cfg.Output)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("缺失的配置文件应返回错误")
	}
	t.Setenv("CAROUSEL_RENDER_FORMAT", "gif")
	if _, err := Load(""); err == nil {
		t.Fatalf("非法格式应返回错误")
	}
}
