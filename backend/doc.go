// Package backend defines the simulation-and-render pipeline contract shared
// by the GPU and software implementations, the double-buffer role protocol
// both of them use, and a registry for selecting an implementation by name.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is registered on import of this package; the GPU
// backend is registered by importing the gpu package:
//
//	import _ "github.com/gogpu/life/gpu"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request a
// specific backend by name:
//
//	p := backend.Get(backend.NameSoftware)
//	if err := p.Init(params); err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
// # State Buffers
//
// Every implementation keeps two cell-state buffers, A and B, in a
// [DoubleBuffer]. Exactly one of them is current at any time. Step reads the
// current buffer, writes the other one, and flips the roles once the work
// has been submitted. WriteState and MergePaint always update both buffers so
// that an edit survives the next flip.
package backend
