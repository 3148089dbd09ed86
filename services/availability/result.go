package availability

import "fmt"

// ProbeKind tags the outcome of a single probe.
type ProbeKind int

const (
	ProbeNotFound ProbeKind = iota
	ProbeMatched
	ProbeFailed
)

func (k ProbeKind) String() string {
	switch k {
	case ProbeMatched:
		return "matched"
	case ProbeNotFound:
		return "not_found"
	case ProbeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProbeResult is Matched(itemID), NotFound, or Failed(err).
type ProbeResult struct {
	kind   ProbeKind
	itemID string
	err    error
}

func Matched(itemID string) ProbeResult {
	return ProbeResult{kind: ProbeMatched, itemID: itemID}
}

func NotFound() ProbeResult {
	return ProbeResult{kind: ProbeNotFound}
}

func Failed(err error) ProbeResult {
	return ProbeResult{kind: ProbeFailed, err: err}
}

func (r ProbeResult) Kind() ProbeKind { return r.kind }

// Err returns the failure reason for a Failed result and nil otherwise.
func (r ProbeResult) Err() error { return r.err }

// Match collapses the result to the stored form: NotFound and Failed both
// yield ("", false).
func (r ProbeResult) Match() (itemID string, available bool) {
	if r.kind == ProbeMatched && r.itemID != "" {
		return r.itemID, true
	}
	return "", false
}

func (r ProbeResult) String() string {
	switch r.kind {
	case ProbeMatched:
		return fmt.Sprintf("matched(%s)", r.itemID)
	case ProbeFailed:
		return fmt.Sprintf("failed(%v)", r.err)
	default:
		return "not_found"
	}
}
