//go:build js && wasm

package web

import (
	"errors"
	"fmt"
	"syscall/js"
	"time"

	"github.com/gogpu/life"
)

// ErrNoCanvas is returned when the page has no canvas with the given id.
var ErrNoCanvas = errors.New("web: canvas not found")

// Canvas drives a Simulation from requestAnimationFrame and copies each
// rendered frame into a 2D canvas. All callbacks run on the browser event
// loop, so the simulation is only touched from there.
type Canvas struct {
	sim     *life.Simulation
	surface *life.ImageSurface
	el      js.Value
	ctx     js.Value
	pixels  js.Value

	width, height int
	dirty         bool
	stopped       bool

	listeners []listener
	frame     js.Func
	rafID     int
	done      chan error
}

type listener struct {
	target js.Value
	event  string
	fn     js.Func
}

// NewCanvas attaches sim to the canvas element with the given id.
func NewCanvas(sim *life.Simulation, id string) (*Canvas, error) {
	el := js.Global().Get("document").Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return nil, fmt.Errorf("%w: %q", ErrNoCanvas, id)
	}
	c := &Canvas{
		sim:     sim,
		surface: life.NewImageSurface(),
		el:      el,
		ctx:     el.Call("getContext", "2d"),
		done:    make(chan error, 1),
	}
	c.listen()
	return c, nil
}

func (c *Canvas) on(target js.Value, event string, fn func(e js.Value)) {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			fn(args[0])
		}
		return nil
	})
	target.Call("addEventListener", event, f)
	c.listeners = append(c.listeners, listener{target: target, event: event, fn: f})
}

func (c *Canvas) listen() {
	c.on(c.el, "mousemove", func(e js.Value) {
		c.sim.PointerMoved(e.Get("offsetX").Float(), e.Get("offsetY").Float())
		c.dirty = true
	})
	c.on(c.el, "mousedown", func(e js.Value) {
		if e.Get("button").Int() == 0 {
			c.sim.PointerButton(true)
		}
	})
	c.on(c.el, "mouseup", func(e js.Value) {
		if e.Get("button").Int() == 0 {
			c.sim.PointerButton(false)
		}
	})
	c.on(c.el, "mouseenter", func(js.Value) { c.sim.PointerEntered(true) })
	c.on(c.el, "mouseleave", func(js.Value) {
		c.sim.PointerEntered(false)
		c.dirty = true
	})
	c.on(js.Global().Get("window"), "keydown", func(e js.Value) {
		switch c.sim.Key(KeyFor(e.Get("code").String()), true) {
		case life.ActionRedraw:
			c.dirty = true
		case life.ActionExit:
			c.stop(nil)
		}
	})
}

// Start begins the animation loop. The returned channel yields nil when
// Escape stops the loop, or the fatal error from Tick.
func (c *Canvas) Start() <-chan error {
	c.frame = js.FuncOf(func(js.Value, []js.Value) any {
		c.rafID = 0
		c.tick()
		if !c.stopped {
			c.request()
		}
		return nil
	})
	c.request()
	return c.done
}

func (c *Canvas) request() {
	c.rafID = js.Global().Call("requestAnimationFrame", c.frame).Int()
}

func (c *Canvas) tick() {
	if c.stopped {
		return
	}
	if w, h := c.el.Get("width").Int(), c.el.Get("height").Int(); w != c.width || h != c.height {
		c.width, c.height = w, h
		c.sim.Resize(w, h)
		c.pixels = js.Undefined()
		c.dirty = true
	}

	redraw, err := c.sim.Tick(time.Now())
	if err != nil {
		c.stop(err)
		return
	}
	if !redraw && !c.dirty {
		return
	}
	if c.sim.Redraw(c.surface) {
		c.blit()
		c.dirty = false
	}
}

// blit copies the surface image into the canvas.
func (c *Canvas) blit() {
	img := c.surface.Image()
	b := img.Bounds()
	if c.pixels.IsUndefined() || c.pixels.Get("length").Int() != len(img.Pix) {
		c.pixels = js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	}
	js.CopyBytesToJS(c.pixels, img.Pix)
	data := js.Global().Get("ImageData").New(c.pixels, b.Dx(), b.Dy())
	c.ctx.Call("putImageData", data, 0, 0)
}

func (c *Canvas) stop(err error) {
	if c.stopped {
		return
	}
	c.stopped = true
	c.done <- err
}

// Release removes the event listeners and frees the callbacks. Call it
// after the loop has stopped.
func (c *Canvas) Release() {
	for _, l := range c.listeners {
		l.target.Call("removeEventListener", l.event, l.fn)
		l.fn.Release()
	}
	c.listeners = nil
	if c.rafID != 0 {
		js.Global().Call("cancelAnimationFrame", c.rafID)
		c.rafID = 0
	}
	if c.frame.Truthy() {
		c.frame.Release()
	}
}
