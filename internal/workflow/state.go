package workflow

import (
	"errors"

	"github.com/kozaktomas/face-compare/internal/compare"
	"github.com/kozaktomas/face-compare/internal/preview"
)

// Phase represents the submission workflow phase.
type Phase string

// Phase constants. Idle, Succeeded and Failed are resting phases.
const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// State is the workflow state. Progress is meaningful while submitting,
// Response only when succeeded. Error is the single displayable message.
type State struct {
	Phase    Phase             `json:"phase"`
	Progress int               `json:"progress"`
	Response *compare.Response `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Resting reports whether the phase is waiting for user input.
func (p Phase) Resting() bool {
	return p == PhaseIdle || p == PhaseSucceeded || p == PhaseFailed
}

// Errors returned by the controller.
var (
	ErrSubmissionInFlight = errors.New("a comparison is already in progress")
	ErrMissingReference   = errors.New("no reference image selected")
	ErrMissingCandidates  = errors.New("no candidate images selected")
	ErrDiscarded          = errors.New("comparison discarded by reset")
)

// ReferenceView describes the selected reference image.
type ReferenceView struct {
	Name    string         `json:"name"`
	Size    int64          `json:"size"`
	Preview *preview.Entry `json:"preview,omitempty"` // nil until decoded
}

// View is the presentation snapshot of the controller.
type View struct {
	State          State            `json:"state"`
	SubmissionID   string           `json:"submission_id,omitempty"`
	Reference      *ReferenceView   `json:"reference,omitempty"`
	CandidateCount int              `json:"candidate_count"`
	ResultNames    []string         `json:"result_names,omitempty"` // by image_index, set with a response
	Previews       preview.Snapshot `json:"previews"`
}

// Outcome is the final result of one submission.
type Outcome struct {
	SubmissionID string
	Response     *compare.Response
	Err          error
}
