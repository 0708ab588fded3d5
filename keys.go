package life

// Key is a keyboard key the simulation reacts to. Hosts translate their
// platform key codes into these.
type Key int

// Keys.
const (
	KeyUnknown Key = iota
	KeySpace
	KeyRight
	KeyN
	KeyR
	KeyC
	KeyUp
	KeyDown
	KeyEscape
)

// Action tells the host what to do after an input event.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionRedraw
	ActionExit
)

// fpsKeyStep is the rate change per Up/Down press.
const fpsKeyStep = 5

// Key applies the key binding for k. Releases are ignored.
//
//	Space       play / pause
//	Right, N    step forward (paused only)
//	R           randomise
//	C           reset
//	Up, Down    fps +5 / -5
//	Escape      exit
func (s *Simulation) Key(k Key, pressed bool) Action {
	if !pressed {
		return ActionNone
	}
	switch k {
	case KeyEscape:
		return ActionExit
	case KeySpace:
		s.PlayPause()
		return ActionNone
	case KeyRight, KeyN:
		if s.StepForward() {
			return ActionRedraw
		}
	case KeyR:
		s.Randomise()
		return ActionRedraw
	case KeyC:
		s.Reset()
		return ActionRedraw
	case KeyUp:
		s.UpdateFPS(s.FPS() + fpsKeyStep)
	case KeyDown:
		s.UpdateFPS(s.FPS() - fpsKeyStep)
	}
	return ActionNone
}
