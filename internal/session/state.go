package session

import "fmt"

// State is a step of the per-descriptor lifecycle:
//
//	NotStarted -> Opened -> {Decoded, Empty} -> Closed
//	NotStarted -> OpenFailed
type State int

const (
	StateNotStarted State = iota
	StateOpened
	StateDecoded
	StateEmpty
	StateOpenFailed
	StateClosed
)

var stateNames = [...]string{"not-started", "opened", "decoded", "empty", "open-failed", "closed"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// next lists the legal successors of each state.
var next = map[State][]State{
	StateNotStarted: {StateOpened, StateOpenFailed},
	StateOpened:     {StateDecoded, StateEmpty, StateClosed},
	StateDecoded:    {StateClosed},
	StateEmpty:      {StateClosed},
}

// CanFollow reports whether s may come directly after prev.
func (s State) CanFollow(prev State) bool {
	for _, n := range next[prev] {
		if n == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no state may follow s.
func (s State) Terminal() bool { return len(next[s]) == 0 }
