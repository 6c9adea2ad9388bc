package templates

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/carousel/layout"
)

//go:embed builtin/*.tpl
var builtinFS embed.FS

// ErrNotFound 表示模板不存在。
var ErrNotFound = errors.New("templates: template not found")

// ParseJSON 解析 JSON 形式的模板（图层按 type 区分），缺省画布尺寸为 1080x1920。
func ParseJSON(data []byte) (*layout.Template, error) {
	var tpl layout.Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("解析模板 JSON 失败: %w", err)
	}
	if tpl.Width == 0 {
		tpl.Width = layout.DefaultCanvasWidth
	}
	if tpl.Height == 0 {
		tpl.Height = layout.DefaultCanvasHeight
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// parseFile 按扩展名选择 DSL 或 JSON 解析。
func parseFile(name string, data []byte) (*layout.Template, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".tpl":
		return CompileString(string(data))
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("不支持的模板文件 %s", name)
	}
}

// Store 是并发安全的模板注册表，按模板 id 索引。
type Store struct {
	mu        sync.RWMutex
	templates map[string]*layout.Template
}

// NewStore 创建空的注册表。
func NewStore() *Store {
	return &Store{templates: map[string]*layout.Template{}}
}

// NewBuiltinStore 创建包含内置模板的注册表。
func NewBuiltinStore() (*Store, error) {
	s := NewStore()
	if err := s.loadFS(builtinFS, "builtin"); err != nil {
		return nil, err
	}
	return s, nil
}

// Put 注册模板，同 id 的旧模板会被替换。
func (s *Store) Put(tpl *layout.Template) error {
	if tpl == nil {
		return fmt.Errorf("模板为空")
	}
	if err := tpl.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.templates[tpl.ID]; ok {
		logrus.WithFields(logrus.Fields{
			"template_id": tpl.ID,
			"old_version": old.Version,
			"new_version": tpl.Version,
		}).Debug("Replacing template")
	}
	s.templates[tpl.ID] = tpl
	return nil
}

// Get 返回指定 id 的模板。返回值在渲染期间只读，调用方不得修改。
func (s *Store) Get(id string) (*layout.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("模板 %q: %w", id, ErrNotFound)
	}
	return tpl, nil
}

// IDs 返回已注册模板 id，按字典序排列。
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.templates))
	for id := range s.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadDir 载入目录下所有 *.tpl 与 *.json 模板。单个文件解析失败只记录日志并跳过，
// 返回成功载入的数量。
func (s *Store) LoadDir(dir string) (int, error) {
	log := logrus.WithField("dir", dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).Error("Failed to read template directory")
		return 0, fmt.Errorf("读取模板目录失败: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".tpl" && ext != ".json") {
			continue
		}
		file := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(file)
		if err != nil {
			log.WithError(err).Warnf("Failed to read template %s, skipping", entry.Name())
			continue
		}
		tpl, err := parseFile(entry.Name(), data)
		if err != nil {
			log.WithError(err).Warnf("Invalid template %s, skipping", entry.Name())
			continue
		}
		if err := s.Put(tpl); err != nil {
			log.WithError(err).Warnf("Failed to register template %s, skipping", entry.Name())
			continue
		}
		log.WithFields(logrus.Fields{"template_id": tpl.ID, "version": tpl.Version}).Info("Template loaded")
		loaded++
	}
	return loaded, nil
}

// loadFS 载入内置模板，任何错误都视为致命。
func (s *Store) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		tpl, err := parseFile(entry.Name(), data)
		if err != nil {
			return fmt.Errorf("内置模板 %s: %w", entry.Name(), err)
		}
		if err := s.Put(tpl); err != nil {
			return err
		}
	}
	return nil
}
