package mdpresent

// KeyEvent is a key press forwarded from a presentation surface. Key uses
// the DOM KeyboardEvent.key names.
type KeyEvent struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift"`
	// set while a text input has focus; typing must never drive the deck
	InputFocused bool `json:"inputFocused"`
}

type keyAction func(s *Session)

var keyBindings = map[string]keyAction{
	"ArrowRight": (*Session).Next,
	"PageDown":   (*Session).Next,
	"ArrowLeft":  (*Session).Previous,
	"PageUp":     (*Session).Previous,
	"Home":       (*Session).First,
	"End":        (*Session).Last,
	"b":          (*Session).ToggleBlackout,
	"B":          (*Session).ToggleBlackout,
	"l":          (*Session).ToggleLaserPointer,
	"L":          (*Session).ToggleLaserPointer,
	"d":          (*Session).ToggleDrawing,
	"D":          (*Session).ToggleDrawing,
	"Escape":     (*Session).Stop,
}

func isSpace(key string) bool {
	return key == " " || key == "Space" || key == "Spacebar"
}

func lookupKey(ev KeyEvent) keyAction {
	if isSpace(ev.Key) {
		if ev.Shift {
			return (*Session).Previous
		}
		return (*Session).Next
	}
	return keyBindings[ev.Key]
}

// HandleKey applies the presenting key bindings. Keys are only handled
// while a presentation runs and no text input has focus. The result tells
// the surface to suppress the key's default action.
func (s *Session) HandleKey(ev KeyEvent) (preventDefault bool) {
	if ev.InputFocused {
		return false
	}
	s.mu.Lock()
	bound := s.keysBound && s.mode == ModePresenting
	s.mu.Unlock()
	if !bound {
		return false
	}
	action := lookupKey(ev)
	if action == nil {
		return false
	}
	action(s)
	return true
}
