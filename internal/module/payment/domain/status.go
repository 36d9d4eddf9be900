package domain

// TransactionStatus represents the lifecycle state of an order transaction.
type TransactionStatus string

const (
	StatusOpen       TransactionStatus = "open"
	StatusInProgress TransactionStatus = "in_progress"
	StatusPaid       TransactionStatus = "paid"
	StatusFailed     TransactionStatus = "failed"
	StatusCanceled   TransactionStatus = "canceled"
)

// IsTerminal returns true if the status is a terminal state.
// Terminal states are never left without external intervention.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusCanceled
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	switch s {
	case StatusOpen:
		return target == StatusInProgress || target == StatusPaid || target == StatusFailed || target == StatusCanceled
	case StatusInProgress:
		return target == StatusPaid || target == StatusFailed || target == StatusCanceled
	case StatusPaid, StatusFailed, StatusCanceled:
		return false // Terminal states
	default:
		return false
	}
}
