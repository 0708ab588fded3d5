package web

import "github.com/gogpu/life"

var keyCodes = map[string]life.Key{
	"Space":      life.KeySpace,
	"ArrowRight": life.KeyRight,
	"KeyN":       life.KeyN,
	"KeyR":       life.KeyR,
	"KeyC":       life.KeyC,
	"ArrowUp":    life.KeyUp,
	"ArrowDown":  life.KeyDown,
	"Escape":     life.KeyEscape,
}

// KeyFor maps a KeyboardEvent.code value to a simulation key.
func KeyFor(code string) life.Key {
	if k, ok := keyCodes[code]; ok {
		return k
	}
	return life.KeyUnknown
}
