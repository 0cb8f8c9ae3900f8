package chat

// State is the loop's position in its lifecycle.
type State int

const (
	Idle State = iota
	AwaitingInput
	CallingModel
	Responding
	Exiting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingInput:
		return "awaiting_input"
	case CallingModel:
		return "calling_model"
	case Responding:
		return "responding"
	case Exiting:
		return "exiting"
	default:
		return "unknown"
	}
}
