package fonts

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
)

// BuiltinFamily 是内置字体族的名称，任何未注册的字体族都会回退到它。
const BuiltinFamily = "Go"

// builtin 列出随程序编译进来的 Go 字体。
var builtin = []struct {
	weight int
	data   []byte
}{
	{400, goregular.TTF},
	{500, gomedium.TTF},
	{700, gobold.TTF},
}
