package dashboard

// Kind tags a pipeline State.
type Kind int

const (
	Idle Kind = iota
	Loading
	Ready
	Failed
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is what one pipeline last produced. Data is only meaningful when
// Kind is Ready and Err only when Kind is Failed.
type State[T any] struct {
	Kind Kind
	Data T
	Err  error
}

func ReadyState[T any](data T) State[T] {
	return State[T]{Kind: Ready, Data: data}
}

func FailedState[T any](err error) State[T] {
	return State[T]{Kind: Failed, Err: err}
}

// Section names the pipeline whose slot changed.
type Section int

const (
	SectionSnapshot Section = iota
	SectionHistory
)

func (s Section) String() string {
	if s == SectionHistory {
		return "history"
	}
	return "snapshot"
}
