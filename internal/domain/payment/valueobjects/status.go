package valueobjects

// Status is the canonical payment lifecycle value every provider's raw
// status vocabulary is mapped onto. The lifecycle branches:
//
//	created -> pending -> processing -> completed -> refunded
//	                                 \-> failed       \-> disputed
//	                                 \-> cancelled
//
// Refunded and disputed are only reachable from completed. Unknown is
// the fail-safe value for raw statuses no mapping table covers.
type Status string

const (
	StatusCreated    Status = "created"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusDisputed   Status = "disputed"
	StatusUnknown    Status = "unknown"
)

// transitions is the canonical state machine. Unknown is absent on
// purpose: it is an observation, not a lifecycle state.
var transitions = map[Status][]Status{
	StatusCreated:    {StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:  {StatusRefunded, StatusDisputed},
	StatusFailed:     {},
	StatusCancelled:  {},
	StatusRefunded:   {},
	StatusDisputed:   {},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusPending, StatusProcessing, StatusCompleted,
		StatusFailed, StatusCancelled, StatusRefunded, StatusDisputed, StatusUnknown:
		return true
	default:
		return false
	}
}

// IsFinal reports whether no further transition is possible.
func (s Status) IsFinal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// IsSuccessful reports whether the payment was captured at some point.
func (s Status) IsSuccessful() bool {
	return s == StatusCompleted || s == StatusRefunded
}

// CanRefund reports whether a refund may be attempted from this status.
func (s Status) CanRefund() bool {
	return s == StatusCompleted
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
