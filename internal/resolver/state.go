package resolver

import "github.com/jjfiecas-stack/sootio-sub001/internal/hosts"

// State is a position in the wrapper-unwrapping machine
type State int

const (
	// StateTerminal means the current URL needs no further unwrapping
	StateTerminal State = iota
	// StateFirstTier is a "view" page linking to cloud pages
	StateFirstTier
	// StateSecondTier is a "cloud" page linking to files
	StateSecondTier
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateFirstTier:
		return "first-tier"
	case StateSecondTier:
		return "second-tier"
	default:
		return "terminal"
	}
}

// initialState maps a URL's wrapper tier to the state the machine starts in
func initialState(tier hosts.Tier) State {
	switch tier {
	case hosts.TierFirst:
		return StateFirstTier
	case hosts.TierSecond:
		return StateSecondTier
	default:
		return StateTerminal
	}
}

// transition returns the state after a candidate of the given tier was chosen from.
//
//	first-tier  + second-tier candidate -> second-tier
//	first-tier  + anything else         -> terminal
//	second-tier + any wrapper           -> that wrapper's tier
//	second-tier + anything else         -> terminal
func transition(from State, chosen hosts.Tier) State {
	switch from {
	case StateFirstTier:
		if chosen == hosts.TierSecond {
			return StateSecondTier
		}
		return StateTerminal
	case StateSecondTier:
		return initialState(chosen)
	default:
		return StateTerminal
	}
}
