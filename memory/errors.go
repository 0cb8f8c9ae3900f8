package memory

import "fmt"

// SummarizationError reports a failed attempt to fold old messages. The
// summary and conversation are unchanged when it is returned.
type SummarizationError struct {
	Pending int // messages that were due to be folded
	Err     error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarize %d messages: %v", e.Pending, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// InvalidStateError reports a snapshot that breaks the conversation invariants.
type InvalidStateError struct {
	Reason string
	Index  int // offending message, -1 when not message specific
}

func (e *InvalidStateError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid session state: %s at message %d", e.Reason, e.Index)
	}
	return "invalid session state: " + e.Reason
}
