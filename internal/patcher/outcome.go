package patcher

// Outcome is the result of one patch operation that did not fail.
type Outcome int

const (
	// NothingToPatch means the target was inspected and already clean.
	NothingToPatch Outcome = iota
	// Changed means the target was rewritten (or would be, in dry-run).
	Changed
)

func (o Outcome) String() string {
	if o == Changed {
		return "changed"
	}
	return "nothing to patch"
}
