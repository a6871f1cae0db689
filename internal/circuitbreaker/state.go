package circuitbreaker

type State int

const (
	// StateClosed - calls pass through to the dependency
	StateClosed State = iota

	// StateOpen - calls fail fast until the cooldown elapses
	StateOpen

	// StateHalfOpen - a trial call decides whether to close again
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
