package cost

import "errors"

// ErrBudgetExceeded is the sentinel wrapped by BudgetExceededError so
// callers can test with errors.Is regardless of which scope tripped.
var ErrBudgetExceeded = errors.New("budget exceeded")

// BudgetExceededError reports which scope and numbers tripped a cap or
// envelope. It is never retriable.
type BudgetExceededError struct {
	Scope   string
	Reason  string
}

func (e *BudgetExceededError) Error() string { return e.Reason }

func (e *BudgetExceededError) Unwrap() error { return ErrBudgetExceeded }

func newBudgetExceeded(scope, reason string) *BudgetExceededError {
	return &BudgetExceededError{Scope: scope, Reason: reason}
}
