package session

import "github.com/spacesedan/sentiscope/internal/models"

type Kind int

const (
	Idle Kind = iota
	Submitting
	DisplayingResult
	Error
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case DisplayingResult:
		return "displaying_result"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of the session. Record and View are set only in
// DisplayingResult, Message only in Error.
type State struct {
	Kind    Kind
	Input   string
	Message string
	Record  models.AnalysisRecord
	View    models.ResultView
}

// AcceptsInput reports whether a new submission may start.
func (s State) AcceptsInput() bool { return s.Kind != Submitting }
