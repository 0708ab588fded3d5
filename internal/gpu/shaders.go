//go:build !nogpu

package gpu

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader sources.

//go:embed shaders/life.wgsl
var lifeShaderSource string

//go:embed shaders/paint.wgsl
var paintShaderSource string

//go:embed shaders/render.wgsl
var renderShaderSource string

// ErrEmptyShader is returned when an embedded shader source is missing.
var ErrEmptyShader = errors.New("gpu: shader source is empty")

// ShaderSources returns the embedded WGSL sources keyed by stage name.
func ShaderSources() map[string]string {
	return map[string]string{
		"life":   lifeShaderSource,
		"paint":  paintShaderSource,
		"render": renderShaderSource,
	}
}

// checkShaders compiles the embedded sources once per process. A failure
// is a fatal setup error.
var checkShaders = sync.OnceValue(func() error {
	return validateShaders(ShaderSources())
})

// validateShaders compiles every source with naga, in name order.
func validateShaders(sources map[string]string) error {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		src := sources[name]
		if src == "" {
			return fmt.Errorf("%w: %s", ErrEmptyShader, name)
		}
		if _, err := naga.Compile(src); err != nil {
			return fmt.Errorf("gpu: compile %s shader: %w", name, err)
		}
	}
	return nil
}
