//go:build js && wasm

package web

import (
	"syscall/js"

	"github.com/gogpu/life"
)

// Register installs the exported functions on the JavaScript global
// object. The returned function removes them and releases the callbacks.
func Register(c *life.Controls) (release func()) {
	global := js.Global()
	funcs := make(map[string]js.Func, len(Exports))
	for name, h := range Exports {
		fn := js.FuncOf(func(_ js.Value, args []js.Value) any {
			arg := 0
			if len(args) > 0 && args[0].Type() == js.TypeNumber {
				arg = args[0].Int()
			}
			return js.ValueOf(h(c, arg))
		})
		global.Set(name, fn)
		funcs[name] = fn
	}
	life.Logger().Info("web: controls registered", "count", len(funcs))

	return func() {
		for name, fn := range funcs {
			global.Delete(name)
			fn.Release()
		}
	}
}
