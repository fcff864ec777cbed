package domain

// Status is the position of an order in its pipeline. Pending is the
// initial state for every source; the rest of the pipeline depends on
// where the order came from.
type Status int

const (
	StatusPending    Status = 0
	StatusAttended   Status = 1
	StatusInProgress Status = 2
	StatusReady      Status = 3
	StatusDelivered  Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAttended:
		return "attended"
	case StatusInProgress:
		return "in_progress"
	case StatusReady:
		return "ready"
	case StatusDelivered:
		return "delivered"
	}
	return "unknown"
}

func (s Status) Known() bool {
	return s >= StatusPending && s <= StatusDelivered
}

// Allowed transitions per source. Table and takeaway orders are attended
// in one step; web orders walk the full kitchen pipeline.
var allowed = map[SourceType]map[Status]map[Status]bool{
	SourceTable: {
		StatusPending: {StatusAttended: true},
	},
	SourceTakeaway: {
		StatusPending: {StatusAttended: true},
	},
	SourceWeb: {
		StatusPending:    {StatusInProgress: true},
		StatusInProgress: {StatusReady: true},
		StatusReady:      {StatusDelivered: true},
	},
}

// CanTransition reports whether from->to is allowed for the given source.
func CanTransition(source SourceType, from, to Status) bool {
	nexts := allowed[source][from]
	return nexts != nil && nexts[to]
}
