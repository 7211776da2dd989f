package color

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnknownState indicates a name outside the logical state table.
	ErrUnknownState = errors.New("unknown state")
	// ErrInvalidColorFormat indicates a literal that is not six hex digits.
	ErrInvalidColorFormat = errors.New("invalid color format")
)

// State is a named, pre-mapped output state.
type State string

const (
	Available State = "available"
	DND       State = "dnd"
	On        State = "on"
	Off       State = "off"
)

// Hex is a normalized "#RRGGBB" color with upper-case digits.
type Hex string

const (
	Green Hex = "#00FF00"
	Red   Hex = "#FF0000"
	White Hex = "#FFFFFF"
	Black Hex = "#000000"
)

var stateColors = map[State]Hex{
	Available: Green,
	DND:       Red,
	On:        White,
	Off:       Black,
}

var hexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// States lists the logical states in display order.
func States() []State {
	return []State{Available, DND, On, Off}
}

// Color returns the fixed color for s.
func (s State) Color() (Hex, bool) {
	hex, ok := stateColors[s]
	return hex, ok
}

// ParseState resolves a user supplied name against the logical state table.
func ParseState(name string) (State, error) {
	state := State(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := stateColors[state]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return state, nil
}

// MapState returns the color for a logical state.
func MapState(s State) (Hex, error) {
	hex, ok := s.Color()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, string(s))
	}
	return hex, nil
}

// Normalize validates a hex literal and returns it upper-cased with a leading '#'.
// The leading '#' is optional on input and surrounding whitespace is ignored.
func Normalize(literal string) (Hex, error) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidColorFormat)
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if !hexPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q, expected #RRGGBB", ErrInvalidColorFormat, literal)
	}
	return Hex(strings.ToUpper(s)), nil
}

// RGB splits the color into its channels. It assumes h was produced by this package.
func (h Hex) RGB() (r, g, b uint8) {
	value, err := strconv.ParseUint(strings.TrimPrefix(string(h), "#"), 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return uint8(value >> 16), uint8(value >> 8), uint8(value)
}

func (h Hex) String() string { return string(h) }

// Command is either a logical state or an explicit literal.
type Command struct {
	state   State
	literal string
	isState bool
}

// StateCommand wraps a logical state.
func StateCommand(s State) Command {
	return Command{state: s, isState: true}
}

// LiteralCommand wraps an explicit hex literal.
func LiteralCommand(literal string) Command {
	return Command{literal: literal}
}

// Resolve maps the command to the color the device should show.
func (c Command) Resolve() (Hex, error) {
	if c.isState {
		return MapState(c.state)
	}
	return Normalize(c.literal)
}

// Label names the command for logs and history.
func (c Command) Label() string {
	if c.isState {
		return string(c.state)
	}
	return "literal"
}
