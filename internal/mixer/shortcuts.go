package mixer

import (
	"strings"

	"soundlab/internal/clipedit"
)

// KeyEvent is a normalized keyboard event from the host UI. Key follows
// DOM conventions (" " for space, "Home", "Delete", single letters
// lowercase). MouseTime carries the timeline position under the mouse for
// positional shortcuts.
type KeyEvent struct {
	Key       string
	Ctrl      bool
	Meta      bool
	Shift     bool
	TextInput bool
	MouseTime float64
}

// primary reports the platform primary modifier (Ctrl or Cmd).
func (e KeyEvent) primary() bool { return e.Ctrl || e.Meta }

// HandleKey dispatches the global keyboard shortcut surface. Events raised
// while a text input has focus are suppressed. Returns true when the event
// was consumed.
func (m *Mixer) HandleKey(event KeyEvent) bool {
	if event.TextInput {
		return false
	}
	key := event.Key
	if len(key) == 1 {
		key = strings.ToLower(key)
	}

	if event.primary() {
		switch key {
		case "z":
			if event.Shift {
				return m.Redo()
			}
			return m.Undo()
		case "y":
			return m.Redo()
		case "c":
			return m.Copy() > 0
		case "v":
			return len(m.Paste()) > 0
		case "a":
			m.SelectAll()
			return true
		}
		return false
	}

	switch key {
	case " ":
		_ = m.TogglePlayback()
		return true
	case "Home":
		m.Rewind()
		return true
	case "Delete", "Backspace":
		m.DeleteSelected()
		return true
	case "s":
		m.Split()
		return true
	case "m":
		m.AddMarker("")
		return true
	case "l":
		m.ToggleLoop()
		return true
	case "[":
		return m.JumpToPrevMarker()
	case "]":
		return m.JumpToNextMarker()
	case "p":
		return m.PlayFrom(event.MouseTime) == nil
	}
	return false
}

// DragModeForEdge maps a pointer-down zone to the drag mode: the outer
// handful of pixels on each side resize, the body moves.
func DragModeForEdge(offsetX, clipWidth float64) clipedit.Mode {
	const handle = 8.0
	switch {
	case offsetX <= handle:
		return clipedit.DragResizeLeft
	case offsetX >= clipWidth-handle:
		return clipedit.DragResizeRight
	default:
		return clipedit.DragMove
	}
}
