package carousel

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedBackground 表示背景类型不受支持或当前配置无法加载。
var ErrUnsupportedBackground = errors.New("carousel: unsupported background")

// defaultMaxImageBytes 限制单张背景素材的大小。
const defaultMaxImageBytes = 20 << 20

// Loader 解码各来源的背景素材。
type Loader struct {
	AssetsDir string
	Client    *http.Client
	Timeout   time.Duration
	MaxBytes  int64
}

// NewLoader 创建加载器。assetsDir 为空时不支持 storage 类型。
func NewLoader(assetsDir string, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Loader{
		AssetsDir: assetsDir,
		Client:    &http.Client{Timeout: timeout},
		Timeout:   timeout,
		MaxBytes:  defaultMaxImageBytes,
	}
}

// Load 读取并解码背景图，返回图片及其格式名称。
func (l *Loader) Load(ctx context.Context, in BackgroundInput) (image.Image, string, error) {
	data, err := l.read(ctx, in)
	if err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("解码背景图失败: %w", err)
	}
	return img, format, nil
}

func (l *Loader) read(ctx context.Context, in BackgroundInput) ([]byte, error) {
	value := strings.TrimSpace(in.Value)
	if value == "" {
		return nil, fmt.Errorf("背景图内容为空")
	}
	switch in.Type {
	case BackgroundBase64:
		return decodeBase64(value)
	case BackgroundStorage:
		return l.readAsset(value)
	case BackgroundURL:
		return l.fetch(ctx, value)
	default:
		return nil, fmt.Errorf("%w: 类型 %q", ErrUnsupportedBackground, in.Type)
	}
}

// decodeBase64 同时接受裸 base64 与 data:image/...;base64, 前缀。
func decodeBase64(value string) ([]byte, error) {
	if strings.HasPrefix(value, "data:") {
		idx := strings.Index(value, ",")
		if idx < 0 || !strings.Contains(value[:idx], ";base64") {
			return nil, fmt.Errorf("无法识别的 data URI")
		}
		value = value[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(value); rawErr == nil {
			return raw, nil
		}
		return nil, fmt.Errorf("base64 解码失败: %w", err)
	}
	return data, nil
}

// readAsset 读取素材目录下的文件，拒绝跳出目录的路径。
func (l *Loader) readAsset(ref string) ([]byte, error) {
	if l.AssetsDir == "" {
		return nil, fmt.Errorf("%w: 未配置素材目录", ErrUnsupportedBackground)
	}
	clean := filepath.Clean("/" + filepath.ToSlash(ref))
	path := filepath.Join(l.AssetsDir, clean)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取素材 %s 失败: %w", ref, err)
	}
	defer f.Close()
	return l.readLimited(f)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: 仅支持 http(s) 地址", ErrUnsupportedBackground)
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载背景图失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载背景图失败: HTTP %d", resp.StatusCode)
	}
	logrus.WithFields(logrus.Fields{
		"url":         url,
		"contentType": resp.Header.Get("Content-Type"),
	}).Debug("Fetched background image")
	return l.readLimited(resp.Body)
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	limit := l.MaxBytes
	if limit <= 0 {
		limit = defaultMaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("读取背景图失败: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("背景图超过 %d 字节上限", limit)
	}
	return data, nil
}
