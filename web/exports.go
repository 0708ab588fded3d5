// Package web exposes the simulation controls to JavaScript when built
// for js/wasm.
//
// Each exported function queues a command and returns whether it was
// accepted. updateFps takes the new rate as its only argument.
package web

import "github.com/gogpu/life"

// Handler queues one command on c. arg is the first numeric argument of
// the JavaScript call, or zero.
type Handler func(c *life.Controls, arg int) bool

// Exports maps JavaScript global names to handlers.
var Exports = map[string]Handler{
	"playPause":      func(c *life.Controls, _ int) bool { return c.PlayPause() },
	"stepForward":    func(c *life.Controls, _ int) bool { return c.StepForward() },
	"randomiseState": func(c *life.Controls, _ int) bool { return c.Randomise() },
	"updateFps":      func(c *life.Controls, fps int) bool { return c.UpdateFPS(fps) },
	"resetState":     func(c *life.Controls, _ int) bool { return c.Reset() },
}
