package binding

import "testing"

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"author": map[string]any{"name": "Ada"},
		"tags":   []any{"go", "layout"},
		"count":  3,
	}
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"嵌套字段", "by ${author.name}", "by Ada"},
		{"数组下标", "#${tags[1]}", "#layout"},
		{"数字", "${count} slides", "3 slides"},
		{"缺失保留占位符", "${missing.path}", "${missing.path}"},
		{"缺失使用默认值", "${missing|anonymous}", "anonymous"},
		{"存在时忽略默认值", "${author.name | nobody}", "Ada"},
		{"无占位符", "plain text", "plain text"},
	}
	for _, tc := range cases {
		if got := Interpolate(tc.in, data); got != tc.want {
			t.Fatalf("%s: Interpolate(%q) = %q, 期望 %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestInterpolateNilData(t *testing.T) {
	if got := Interpolate("hi ${name|there}", nil); got != "hi there" {
		t.Fatalf("data 为空时应使用默认值，实际 %q", got)
	}
	if got := Interpolate("hi ${name}", nil); got != "hi ${name}" {
		t.Fatalf("data 为空且无默认值时应保留占位符，实际 %q", got)
	}
}

func TestInterpolateNestedNumber(t *testing.T) {
	data := map[string]any{"slide": map[string]any{"index": 2}}
	if got := Interpolate("${slide.index}/5", data); got != "2/5" {
		t.Fatalf("期望 2/5，实际 %q", got)
	}
	if got := Interpolate("${slide.title|Untitled}", data); got != "Untitled" {
		t.Fatalf("不存在的路径应使用默认值，实际 %q", got)
	}
}

func TestInterpolateTypedCollections(t *testing.T) {
	data := map[string]any{
		"slides": []map[string]any{{"title": "Intro"}, {"title": "Outro"}},
		"scores": map[string]int{"a": 7},
		"grid":   []any{[]any{"x", "y"}},
	}
	cases := []struct{ in, want string }{
		{"${slides[1].title}", "Outro"},
		{"${scores.a}", "7"},
		{"${grid[0][1]}", "y"},
		{"${slides[5].title|none}", "none"},
		{"${slides[x]|bad}", "bad"},
		{"${a..b|bad}", "bad"},
		{"${slides[0]title|bad}", "bad"},
	}
	for _, tc := range cases {
		if got := Interpolate(tc.in, data); got != tc.want {
			t.Fatalf("Interpolate(%q) = %q, 期望 %q", tc.in, got, tc.want)
		}
	}
}
