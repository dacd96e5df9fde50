package fetch

import "encoding/json"

type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Snapshot is a consistent copy of a hook's state. Response keeps the last
// successful body even while a newer request is loading.
type Snapshot[T any] struct {
	URL      string `json:"url"`
	State    State  `json:"state"`
	Response *T     `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (s Snapshot[T]) Settled() bool {
	return s.State == StateSuccess || s.State == StateError
}
