package measure

import (
	"strconv"
	"strings"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/ByLCY/carousel/layout"
)

// WidthCache 保存 (字体, 文本) → 宽度 的测量结果，可在并发渲染之间共享。
type WidthCache = ristretto.Cache[string, float64]

// NewWidthCache 创建最多容纳约 maxEntries 条测量结果的缓存。
func NewWidthCache(maxEntries int64) (*WidthCache, error) {
	if maxEntries <= 0 {
		maxEntries = 100_000
	}
	return ristretto.NewCache[string, float64](&ristretto.Config[string, float64]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
}

// Cached 在另一个测量端口之上做记忆化。二分查找字号时同一行文本会被反复测量，
// 缓存可以显著减少底层测量次数。
//
// 同一个 WidthCache 只能配合同一种底层实现使用，否则不同后端的结果会互相污染。
type Cached struct {
	next  layout.MeasurementPort
	cache *WidthCache
	font  string
}

var _ layout.MeasurementPort = (*Cached)(nil)

// NewCached 包装 next。cache 为 nil 时直接透传。
func NewCached(next layout.MeasurementPort, cache *WidthCache) *Cached {
	return &Cached{next: next, cache: cache}
}

func (c *Cached) SetFont(size float64, weight layout.FontWeight, family string) {
	c.next.SetFont(size, weight, family)
	c.font = strings.ToLower(family) + "|" + strconv.Itoa(int(weight)) + "|" + strconv.FormatFloat(size, 'g', -1, 64)
}

func (c *Cached) Measure(text string) float64 {
	if c.cache == nil {
		return c.next.Measure(text)
	}
	key := c.font + "\x00" + text
	if w, ok := c.cache.Get(key); ok {
		return w
	}
	w := c.next.Measure(text)
	c.cache.Set(key, w, 1)
	return w
}
