// Package config 读取渲染服务配置：YAML/JSON/TOML 文件 + CAROUSEL_* 环境变量。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 是命令行与渲染服务共用的配置。
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Templates TemplatesConfig `mapstructure:"templates"`
	Fonts     FontsConfig     `mapstructure:"fonts"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Output    OutputConfig    `mapstructure:"output"`
	Render    RenderConfig    `mapstructure:"render"`
}

type TemplatesConfig struct {
	// Dir 中的 .tpl/.json 模板会覆盖同 id 的内置模板。
	Dir string `mapstructure:"dir"`
}

type FontsConfig struct {
	Dir string `mapstructure:"dir"`
}

type AssetsConfig struct {
	Dir         string        `mapstructure:"dir"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	MaxBytes    int64         `mapstructure:"max_bytes"`
}

type OutputConfig struct {
	Dir           string `mapstructure:"dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type RenderConfig struct {
	Format            string  `mapstructure:"format"`
	Resolution        float64 `mapstructure:"resolution"`
	Measurer          string  `mapstructure:"measurer"`
	Concurrency       int     `mapstructure:"concurrency"`
	WidthCacheEntries int64   `mapstructure:"width_cache_entries"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("templates.dir", "")
	v.SetDefault("fonts.dir", "")
	v.SetDefault("assets.dir", "")
	v.SetDefault("assets.http_timeout", 15*time.Second)
	v.SetDefault("assets.max_bytes", 20<<20)
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.public_base_url", "")
	v.SetDefault("render.format", "png")
	v.SetDefault("render.resolution", 1.0)
	v.SetDefault("render.measurer", "canvas")
	v.SetDefault("render.concurrency", 4)
	v.SetDefault("render.width_cache_entries", 100_000)
}

// Load 读取配置。path 为空时只使用默认值与环境变量，
// 例如 CAROUSEL_RENDER_CONCURRENCY=8 覆盖 render.concurrency。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CAROUSEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查取值范围。
func (c *Config) Validate() error {
	switch c.Render.Format {
	case "png", "pdf":
	default:
		return fmt.Errorf("render.format 只能是 png 或 pdf，实际 %q", c.Render.Format)
	}
	if c.Render.Resolution <= 0 {
		return fmt.Errorf("render.resolution 必须为正数")
	}
	if c.Render.Concurrency < 1 {
		return fmt.Errorf("render.concurrency 至少为 1")
	}
	return nil
}
