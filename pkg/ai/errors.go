package ai

import "fmt"

// BudgetExceededError reports that the configured daily cost ceiling has been
// reached. It is raised before any remote call is made and is never absorbed
// by fallback paths: a run that hits the budget stops.
type BudgetExceededError struct {
	DailyCost float64
	Limit     float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("daily API cost limit exceeded ($%.2f of $%.2f)", e.DailyCost, e.Limit)
}

// TransportError reports a network or remote-service failure while calling
// the model. Callers recover from it by degrading to a local analysis path.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports that a model response could not be parsed
// as the expected JSON document, even after the lenient repair cascade.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("malformed model response: %v (raw: %s)", e.Err, raw)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
