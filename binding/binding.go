// Package binding 把请求数据填入模板文案中的 ${path} 占位符。
package binding

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 占位符可以带默认值 ${path|默认值}，路径不存在时使用默认值；
// 没有默认值且路径不存在时保留原占位符。
func Interpolate(text string, data any) string {
	if !strings.Contains(text, "${") {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path, fallback, hasFallback := strings.Cut(groups[1], "|")
		if val, ok := lookup(data, strings.TrimSpace(path)); ok {
			return fmt.Sprint(val)
		}
		if hasFallback {
			return strings.TrimSpace(fallback)
		}
		return match
	})
}

// step 是路径中的一段：字段名或数组下标。
type step struct {
	key   string
	index int
	isIdx bool
}

// parsePath 把 "a.b[0][1].c" 拆成 a、b、[0]、[1]、c，格式错误时返回 false。
func parsePath(path string) ([]step, bool) {
	if path == "" {
		return nil, false
	}
	var steps []step
	for _, segment := range strings.Split(path, ".") {
		name, rest, hasIndex := strings.Cut(segment, "[")
		if name == "" && !hasIndex {
			return nil, false
		}
		if name != "" {
			steps = append(steps, step{key: name})
		}
		for hasIndex {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, false
			}
			idx, err := strconv.Atoi(rest[:end])
			if err != nil {
				return nil, false
			}
			steps = append(steps, step{index: idx, isIdx: true})
			rest = rest[end+1:]
			if rest == "" {
				break
			}
			if rest[0] != '[' {
				return nil, false
			}
			rest = rest[1:]
		}
	}
	return steps, true
}

func lookup(data any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	steps, ok := parsePath(path)
	if !ok {
		return nil, false
	}
	cur := data
	for _, s := range steps {
		if s.isIdx {
			cur, ok = index(cur, s.index)
		} else {
			cur, ok = field(cur, s.key)
		}
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// field 支持常见的 map 类型，其余以字符串为键的 map 通过反射读取。
func field(cur any, key string) (any, bool) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[key]
		return v, ok
	case map[string]string:
		v, ok := c[key]
		return v, ok
	}
	v := reflect.ValueOf(cur)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	e := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
	if !e.IsValid() {
		return nil, false
	}
	return e.Interface(), true
}

func index(cur any, i int) (any, bool) {
	switch c := cur.(type) {
	case []any:
		if i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	case []string:
		if i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}
	v := reflect.ValueOf(cur)
	if (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) || i < 0 || i >= v.Len() {
		return nil, false
	}
	return v.Index(i).Interface(), true
}
