package source

import "fmt"

type Operation int

const (
	OpTop Operation = iota
	OpFilters
	OpDetails
	OpHistogram
)

func (o Operation) String() string {
	switch o {
	case OpTop:
		return "top"
	case OpFilters:
		return "filters"
	case OpDetails:
		return "details"
	case OpHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// FailureMessage is the fixed user-facing text shown when o fails.
func (o Operation) FailureMessage() string {
	switch o {
	case OpTop:
		return "Failed to load stats data"
	case OpFilters:
		return "Failed to load filters"
	case OpDetails:
		return "Failed to load child stats"
	case OpHistogram:
		return "Failed to load histogram"
	default:
		return "Request failed"
	}
}

// NetworkError reports a transport failure, a non-2xx status or an
// undecodable body for one operation. Status is zero when no response
// arrived.
type NetworkError struct {
	Op     Operation
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
