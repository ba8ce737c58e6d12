package solver

import "github.com/holiman/uint256"

// Phase is the position of a walk in its Start -> Looping -> Done lifecycle.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseLooping
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseLooping:
		return "looping"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// ChainState is the state of a single walk. It is created by Walk, mutated
// once per step and handed back only when the walk reaches PhaseDone.
type ChainState struct {
	Phase Phase
	// Total is the length word read at start. It is never re-read.
	Total     uint64
	Remaining uint64
	Key       *uint256.Int
	// IDs lists visited keys in order. Repeated keys are kept.
	IDs []*uint256.Int
}

// maxPrealloc bounds the initial IDs capacity so a corrupt length word does
// not allocate up front.
const maxPrealloc = 1 << 16

func newChainState() *ChainState {
	return &ChainState{Phase: PhaseStart, Key: new(uint256.Int)}
}

func (c *ChainState) begin(total uint64) {
	c.Total = total
	c.Remaining = total
	capacity := total
	if capacity > maxPrealloc {
		capacity = maxPrealloc
	}
	c.IDs = make([]*uint256.Int, 0, capacity)
	c.Phase = PhaseLooping
}

// Step returns the zero-based index of the next step.
func (c *ChainState) Step() uint64 {
	return c.Total - c.Remaining
}
