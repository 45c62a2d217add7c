package models

// Status is the party lifecycle state.
//
// Transitions:
//   - Pending  -> Active   (admin approval)
//   - Pending  -> Inactive (deactivation)
//   - Active   -> Inactive (deactivation)
//   - Inactive -> Pending  (reactivation; re-approval is always required,
//     a party never goes Inactive -> Active directly)
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits the move.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusActive || next == StatusInactive
	case StatusActive:
		return next == StatusInactive
	case StatusInactive:
		return next == StatusPending
	}
	return false
}
