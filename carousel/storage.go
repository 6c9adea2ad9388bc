package carousel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Storage 把渲染结果写入本地输出目录，并返回对外访问地址。
type Storage struct {
	Dir           string
	PublicBaseURL string
}

// Save 写入 <Dir>/<userID>/<ulid>.<ext>。
func (s *Storage) Save(userID string, data []byte, ext string) (string, error) {
	if s == nil || s.Dir == "" {
		return "", fmt.Errorf("未配置输出目录")
	}
	if err := checkUserID(userID); err != nil {
		return "", err
	}
	dir := filepath.Join(s.Dir, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	name := ulid.Make().String() + "." + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("写入输出文件失败: %w", err)
	}
	return s.url(userID, name), nil
}

func (s *Storage) url(userID, name string) string {
	base := strings.TrimRight(s.PublicBaseURL, "/")
	if base == "" {
		return filepath.ToSlash(filepath.Join(s.Dir, userID, name))
	}
	return base + "/" + userID + "/" + name
}

func checkUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("storage 输出需要 userId")
	}
	if userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return fmt.Errorf("非法的 userId %q", userID)
	}
	return nil
}
