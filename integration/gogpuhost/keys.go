// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuhost

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/life"
)

var keyMap = map[gpucontext.Key]life.Key{
	gpucontext.KeySpace:  life.KeySpace,
	gpucontext.KeyRight:  life.KeyRight,
	gpucontext.KeyN:      life.KeyN,
	gpucontext.KeyR:      life.KeyR,
	gpucontext.KeyC:      life.KeyC,
	gpucontext.KeyUp:     life.KeyUp,
	gpucontext.KeyDown:   life.KeyDown,
	gpucontext.KeyEscape: life.KeyEscape,
}

// MapKey translates a gogpu key code. Unbound keys map to life.KeyUnknown.
func MapKey(k gpucontext.Key) life.Key {
	if lk, ok := keyMap[k]; ok {
		return lk
	}
	return life.KeyUnknown
}
