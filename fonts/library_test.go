package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ByLCY/carousel/layout"
)

func TestLookupFallsBackToBuiltin(t *testing.T) {
	lib := NewLibrary()
	f := lib.Lookup("Inter", layout.WeightBold)
	if f == nil || f.Family != BuiltinFamily || f.Weight != layout.WeightBold {
		t.Fatalf("未注册字体族应回退到内置 Bold，实际 %+v", f)
	}
	if got := lib.Lookup("", 0); got.Weight != layout.WeightNormal {
		t.Fatalf("缺省字重应为 400，实际 %d", got.Weight)
	}
	// 600 与 500/700 等距时取更粗的 700
	if got := lib.Lookup("go", 600); got.Weight != layout.WeightBold {
		t.Fatalf("等距时应选择更粗字重，实际 %d", got.Weight)
	}
	if got := lib.Lookup("Go", 900); got.Weight != layout.WeightBold {
		t.Fatalf("900 应回退到最接近的 700，实际 %d", got.Weight)
	}
	if _, err := f.OpenType(); err != nil {
		t.Fatalf("内置字体解析失败: %v", err)
	}
}

func TestRegister(t *testing.T) {
	lib := NewLibrary()
	if err := lib.Register("Brand", layout.WeightNormal, goregular.TTF); err != nil {
		t.Fatalf("注册字体失败: %v", err)
	}
	if got := lib.Lookup("brand", layout.WeightBold); got.Family != "Brand" || got.Weight != layout.WeightNormal {
		t.Fatalf("应返回已注册字体族中最接近的字重，实际 %+v", got)
	}
	if err := lib.Register("Broken", layout.WeightNormal, []byte("not a font")); err == nil {
		t.Fatalf("非法字体数据应返回错误")
	}
	if err := lib.Register(" ", layout.WeightNormal, goregular.TTF); err == nil {
		t.Fatalf("空字体族名应返回错误")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"Brand-Bold.ttf":  gobold.TTF,
		"Brand-400.ttf":   goregular.TTF,
		"Broken-Bold.ttf": []byte("garbage"),
		"nodash.ttf":      goregular.TTF,
		"Brand-Heavy.txt": goregular.TTF,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("写入 %s 失败: %v", name, err)
		}
	}
	lib := NewLibrary()
	n, err := lib.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir 失败: %v", err)
	}
	if n != 2 {
		t.Fatalf("期望注册 2 个字体，实际 %d", n)
	}
	if got := lib.Lookup("Brand", layout.WeightBold); got.Family != "Brand" || got.Weight != layout.WeightBold {
		t.Fatalf("Brand Bold 未注册: %+v", got)
	}
	families := lib.Families()
	if len(families) != 2 || families[0] != "brand" || families[1] != "go" {
		t.Fatalf("字体族列表错误: %v", families)
	}
}
