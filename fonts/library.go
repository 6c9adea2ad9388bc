package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/opentype"

	"github.com/ByLCY/carousel/layout"
)

// Font 是某个字体族中一个字重的字体文件。解析结果在首次使用时缓存。
type Font struct {
	Family string
	Weight layout.FontWeight
	Data   []byte

	once   sync.Once
	parsed *opentype.Font
	err    error
}

// Key 唯一标识该字体，可用作缓存键。
func (f *Font) Key() string {
	return fmt.Sprintf("%s/%d", strings.ToLower(f.Family), f.Weight)
}

// OpenType 返回解析后的字体，解析失败会被缓存。
func (f *Font) OpenType() (*opentype.Font, error) {
	f.once.Do(func() {
		f.parsed, f.err = opentype.Parse(f.Data)
		if f.err != nil {
			f.err = fmt.Errorf("解析字体 %s 失败: %w", f.Key(), f.err)
		}
	})
	return f.parsed, f.err
}

// Library 按字体族与字重索引字体，可在多个渲染之间并发共享。
type Library struct {
	mu       sync.RWMutex
	families map[string]map[layout.FontWeight]*Font
}

// NewLibrary 创建只包含内置 Go 字体的字体库。
func NewLibrary() *Library {
	l := &Library{families: map[string]map[layout.FontWeight]*Font{}}
	for _, f := range builtin {
		l.add(&Font{Family: BuiltinFamily, Weight: layout.FontWeight(f.weight), Data: f.data})
	}
	return l
}

// Register 注册一个字体文件，数据会先被解析校验。
func (l *Library) Register(family string, weight layout.FontWeight, data []byte) error {
	family = strings.TrimSpace(family)
	if family == "" {
		return fmt.Errorf("字体族名称为空")
	}
	if weight <= 0 {
		weight = layout.WeightNormal
	}
	f := &Font{Family: family, Weight: weight, Data: data}
	if _, err := f.OpenType(); err != nil {
		return err
	}
	l.add(f)
	return nil
}

func (l *Library) add(f *Font) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := strings.ToLower(f.Family)
	if l.families[key] == nil {
		l.families[key] = map[layout.FontWeight]*Font{}
	}
	l.families[key][f.Weight] = f
}

// Lookup 返回最接近请求字重的字体。字体族未注册时回退到内置字体族，因此永远不会返回 nil。
// 字重距离相同时优先选择更粗的字重。
func (l *Library) Lookup(family string, weight layout.FontWeight) *Font {
	if weight <= 0 {
		weight = layout.WeightNormal
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	faces, ok := l.families[strings.ToLower(strings.TrimSpace(family))]
	if !ok || len(faces) == 0 {
		faces = l.families[strings.ToLower(BuiltinFamily)]
	}
	var best *Font
	bestDist := 0
	for w, f := range faces {
		dist := int(w - weight)
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist || (dist == bestDist && w > best.Weight) {
			best, bestDist = f, dist
		}
	}
	return best
}

// Families 返回已注册的字体族（小写），按字典序排列。
func (l *Library) Families() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.families))
	for name := range l.families {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoadDir 注册目录下命名为 <Family>-<Weight>.ttf 或 .otf 的字体文件，
// Weight 可以是数字（700）或关键字（Bold）。无法识别或解析的文件记录日志后跳过。
func (l *Library) LoadDir(dir string) (int, error) {
	log := logrus.WithField("dir", dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("读取字体目录失败: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		family, weight, ok := parseFontFileName(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if !ok {
			log.Warnf("Font file %s does not match <Family>-<Weight>, skipping", entry.Name())
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read font %s, skipping", entry.Name())
			continue
		}
		if err := l.Register(family, weight, data); err != nil {
			log.WithError(err).Warnf("Failed to register font %s, skipping", entry.Name())
			continue
		}
		log.WithFields(logrus.Fields{"family": family, "weight": int(weight)}).Debug("Font registered")
		loaded++
	}
	return loaded, nil
}

func parseFontFileName(stem string) (string, layout.FontWeight, bool) {
	i := strings.LastIndexByte(stem, '-')
	if i <= 0 || i == len(stem)-1 {
		return "", 0, false
	}
	weight, err := layout.ParseFontWeight(stem[i+1:])
	if err != nil {
		return "", 0, false
	}
	return stem[:i], weight, true
}
