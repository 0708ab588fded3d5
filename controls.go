package life

import (
	"github.com/gogpu/life/backend"
	"github.com/gogpu/life/config"
)

// CommandKind identifies a control command.
type CommandKind int

// Control commands.
const (
	CmdPlayPause CommandKind = iota
	CmdStepForward
	CmdRandomise
	CmdUpdateFPS
	CmdReset
	CmdApplyConfig
	CmdDeviceReady
)

var commandNames = [...]string{
	CmdPlayPause:   "play_pause",
	CmdStepForward: "step_forward",
	CmdRandomise:   "randomise",
	CmdUpdateFPS:   "update_fps",
	CmdReset:       "reset",
	CmdApplyConfig: "apply_config",
	CmdDeviceReady: "device_ready",
}

func (k CommandKind) String() string {
	if k >= 0 && int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "unknown"
}

// Command is one control request. Only the fields of its kind are set.
type Command struct {
	Kind CommandKind

	FPS      int              // CmdUpdateFPS
	Config   *config.Config   // CmdApplyConfig
	Pipeline backend.Pipeline // CmdDeviceReady
	Err      error            // CmdDeviceReady
}

// Controls is the control surface shared with other goroutines: browser
// callbacks, the config watcher, asynchronous device setup. Commands are
// queued and applied by the simulation once per tick.
type Controls struct {
	ch chan Command
}

// DefaultControlQueue is the queue length used when none is given.
const DefaultControlQueue = 64

// NewControls returns a control surface queueing up to n commands.
func NewControls(n int) *Controls {
	if n <= 0 {
		n = DefaultControlQueue
	}
	return &Controls{ch: make(chan Command, n)}
}

// Send queues cmd without blocking. It reports false when the queue is full.
func (c *Controls) Send(cmd Command) bool {
	select {
	case c.ch <- cmd:
		return true
	default:
		Logger().Warn("life: control queue full, command dropped", "command", cmd.Kind.String())
		return false
	}
}

// PlayPause toggles the paused state.
func (c *Controls) PlayPause() bool { return c.Send(Command{Kind: CmdPlayPause}) }

// StepForward advances one generation while paused.
func (c *Controls) StepForward() bool { return c.Send(Command{Kind: CmdStepForward}) }

// Randomise refills both state buffers with random cells.
func (c *Controls) Randomise() bool { return c.Send(Command{Kind: CmdRandomise}) }

// UpdateFPS sets the step rate; it is clamped when applied.
func (c *Controls) UpdateFPS(n int) bool { return c.Send(Command{Kind: CmdUpdateFPS, FPS: n}) }

// Reset clears both state buffers.
func (c *Controls) Reset() bool { return c.Send(Command{Kind: CmdReset}) }

// ApplyConfig replaces the configuration.
func (c *Controls) ApplyConfig(cfg *config.Config) bool {
	return c.Send(Command{Kind: CmdApplyConfig, Config: cfg})
}

// DeviceReady delivers the result of asynchronous pipeline setup. It blocks
// until queued so the result is never dropped.
func (c *Controls) DeviceReady(p backend.Pipeline, err error) {
	c.ch <- Command{Kind: CmdDeviceReady, Pipeline: p, Err: err}
}

// drain applies every queued command without blocking.
func (c *Controls) drain(apply func(Command)) {
	for {
		select {
		case cmd := <-c.ch:
			apply(cmd)
		default:
			return
		}
	}
}
