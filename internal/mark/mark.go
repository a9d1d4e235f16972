package mark

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Prefix identifies marks owned by this daemon. Everything after it up to
// the first '|' is the project key; the remainder, when present, is the
// encoded window state.
const Prefix = "scratch:"

// ErrMalformedState flags a state segment that could not be decoded. Marks
// carrying it keep their project membership and fall back to default
// positioning.
var ErrMalformedState = errors.New("malformed mark state")

// stateFields is the canonical encoding order. Decode requires every field
// so that re-encoding a decoded mark reproduces the original string byte for
// byte.
var stateFields = []string{"floating", "x", "y", "w", "h", "ts", "ws", "mon"}

// State is the persisted per-window state carried inside a mark: geometry,
// floating flag, save timestamp, and the workspace/output the window was
// visible on.
type State struct {
	Floating  bool
	X         int
	Y         int
	Width     int
	Height    int
	SavedAt   int64
	Workspace int
	Monitor   string
}

// Mark is a decoded scratch mark. State is nil for identity-only marks and
// for marks whose state segment failed to decode; Err records the decode
// failure in the latter case. Raw preserves the exact string the window
// carries, which Encode cannot reproduce once decoding failed.
type Mark struct {
	Project string
	State   *State
	Err     error
	Raw     string
}

// Identity returns the identity-only mark for a project.
func Identity(project string) string {
	return Prefix + project
}

// CleanMonitor strips from an output name the characters the state encoding
// cannot carry: ',' ends the field, '|' ends the project key, and whitespace
// breaks the unquoted mark command. Output names come from the window
// manager, not from configuration, so they are cleaned at capture.
func CleanMonitor(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || r == '|' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

// Encode serializes the mark in canonical field order. Project keys must not
// contain '|', ',', or whitespace (enforced at configuration load); monitor
// names are cleaned with CleanMonitor before they reach a State.
func (m Mark) Encode() string {
	if m.State == nil {
		return Identity(m.Project)
	}
	s := m.State
	return fmt.Sprintf("%s%s|floating:%t,x:%d,y:%d,w:%d,h:%d,ts:%d,ws:%d,mon:%s",
		Prefix, m.Project, s.Floating, s.X, s.Y, s.Width, s.Height, s.SavedAt, s.Workspace, s.Monitor)
}

// Decode parses a raw mark string. ok is false when the string is not a
// scratch mark at all. A scratch mark with a malformed state segment fails
// closed: project membership survives, State stays nil, and Err says why.
func Decode(raw string) (Mark, bool) {
	rest, found := strings.CutPrefix(raw, Prefix)
	if !found {
		return Mark{}, false
	}
	project, stateRaw, hasState := strings.Cut(rest, "|")
	if project == "" {
		return Mark{}, false
	}
	m := Mark{Project: project, Raw: raw}
	if !hasState {
		return m, true
	}
	st, err := decodeState(stateRaw)
	if err != nil {
		m.Err = err
		return m, true
	}
	m.State = &st
	return m, true
}

// FromMarks scans a window's mark list and decodes the first scratch mark.
func FromMarks(marks []string) (Mark, bool) {
	for _, raw := range marks {
		if m, ok := Decode(raw); ok {
			return m, true
		}
	}
	return Mark{}, false
}

func decodeState(raw string) (State, error) {
	var st State
	seen := make(map[string]bool, len(stateFields))
	for _, field := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			return State{}, fmt.Errorf("%w: field %q", ErrMalformedState, field)
		}
		if seen[key] {
			return State{}, fmt.Errorf("%w: duplicate field %q", ErrMalformedState, key)
		}
		seen[key] = true
		var err error
		switch key {
		case "floating":
			switch value {
			case "true":
				st.Floating = true
			case "false":
				st.Floating = false
			default:
				err = fmt.Errorf("%w: floating %q", ErrMalformedState, value)
			}
		case "x":
			st.X, err = decodeInt(key, value)
		case "y":
			st.Y, err = decodeInt(key, value)
		case "w":
			st.Width, err = decodeInt(key, value)
		case "h":
			st.Height, err = decodeInt(key, value)
		case "ts":
			st.SavedAt, err = decodeInt64(key, value)
		case "ws":
			st.Workspace, err = decodeInt(key, value)
		case "mon":
			st.Monitor = value
		default:
			err = fmt.Errorf("%w: unknown field %q", ErrMalformedState, key)
		}
		if err != nil {
			return State{}, err
		}
	}
	for _, key := range stateFields {
		if !seen[key] {
			return State{}, fmt.Errorf("%w: missing field %q", ErrMalformedState, key)
		}
	}
	return st, nil
}

func decodeInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedState, key, value)
	}
	return n, nil
}

func decodeInt64(key, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedState, key, value)
	}
	return n, nil
}
