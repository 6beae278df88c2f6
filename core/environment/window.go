package environment

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is a daylight window expressed in seconds since midnight.
type Window struct {
	Start int
	End   int
}

// DefaultWindow spans 06:00 to 18:00.
var DefaultWindow = Window{Start: 6 * 3600, End: 18 * 3600}

// ParseWindow parses a "HH:MM-HH:MM" string. Hours and minutes are not range
// checked, so "25:00" yields 90000 seconds.
func ParseWindow(s string) (Window, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("daylight window %q: expected HH:MM-HH:MM", s)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return Window{}, fmt.Errorf("daylight window %q: %w", s, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return Window{}, fmt.Errorf("daylight window %q: %w", s, err)
	}
	return Window{Start: start, End: end}, nil
}

// WindowOrDefault parses s and falls back to DefaultWindow on any error.
// The boolean reports whether the fallback was used.
func WindowOrDefault(s string) (Window, bool) {
	w, err := ParseWindow(s)
	if err != nil {
		return DefaultWindow, true
	}
	return w, false
}

func parseClock(s string) (int, error) {
	hm := strings.Split(s, ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("clock %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hm[0]))
	if err != nil {
		return 0, fmt.Errorf("hour: %w", err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(hm[1]))
	if err != nil {
		return 0, fmt.Errorf("minute: %w", err)
	}
	return h*3600 + m*60, nil
}

// String formats the window back to HH:MM-HH:MM.
func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/3600, w.Start%3600/60, w.End/3600, w.End%3600/60)
}
