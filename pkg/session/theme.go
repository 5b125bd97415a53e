package session

import "fmt"

// Mode is the UI colour scheme.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// ParseMode validates raw.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeLight, ModeDark:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("unknown theme mode %q (want light or dark)", raw)
	}
}

// Theme persists the colour scheme under KeyTheme.
type Theme struct {
	store Storage
}

// NewTheme returns a Theme backed by store.
func NewTheme(store Storage) Theme {
	return Theme{store: store}
}

// Mode returns the stored mode, ModeLight when unset or unrecognised.
func (t Theme) Mode() Mode {
	var raw string
	ok, err := getJSON(t.store, KeyTheme, &raw)
	if err != nil || !ok {
		return ModeLight
	}
	mode, err := ParseMode(raw)
	if err != nil {
		return ModeLight
	}
	return mode
}

// Set stores mode.
func (t Theme) Set(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	return setJSON(t.store, KeyTheme, string(mode))
}

// Toggle flips between light and dark and returns the new mode.
func (t Theme) Toggle() (Mode, error) {
	next := ModeDark
	if t.Mode() == ModeDark {
		next = ModeLight
	}
	return next, t.Set(next)
}
