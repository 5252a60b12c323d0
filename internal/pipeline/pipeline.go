// Package pipeline describes the application status state machine.
//
// Hiring is not linear: a candidate can go from "offer" back to "interview",
// or straight from "applied" to "rejected". So every status may move to
// every other status. The only ordering that exists is presentational: the
// pipeline order used for sorting and columns, and the three-stage funnel
// (applied → interview → offer) used for progress and conversion views.
package pipeline

import "github.com/sakif/jobtrack/internal/model"

// Initial is the status of a newly created application.
const Initial = model.StatusApplied

// FunnelStages is the ordered sub-sequence tracked by the funnel and the
// stage-progress indicator.
var FunnelStages = [3]model.Status{
	model.StatusApplied,
	model.StatusInterview,
	model.StatusOffer,
}

// Index returns the pipeline position of s (0..4), or -1 for unknown input.
func Index(s model.Status) int {
	return s.Index()
}

// CanTransition reports whether an application in from may be moved to to.
// Any pair of enum members is allowed, including from == to.
func CanTransition(from, to model.Status) bool {
	return from.Valid() && to.Valid()
}

// Terminal reports whether s ends the funnel. It is a display convention
// only; CanTransition still allows leaving a terminal status.
func Terminal(s model.Status) bool {
	return s == model.StatusRejected || s == model.StatusWithdrawn
}

// StageIndex returns the position of s within FunnelStages, or -1 when s is
// not a funnel stage (rejected, withdrawn).
func StageIndex(s model.Status) int {
	for i, stage := range FunnelStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// StageState classifies a funnel stage relative to an application's
// current status.
type StageState string

const (
	StagePast   StageState = "past"
	StageActive StageState = "active"
	StageFuture StageState = "future"
)

// StageProgress is one entry of the progress indicator.
type StageProgress struct {
	Stage model.Status `json:"stage"`
	State StageState   `json:"state"`
}

// Progress classifies every funnel stage for an application in status s.
// Stages before the current one are past, the current one is active and the
// rest are future. For rejected and withdrawn there is no current stage, so
// every stage is future.
func Progress(s model.Status) [3]StageProgress {
	current := StageIndex(s)

	var out [3]StageProgress
	for i, stage := range FunnelStages {
		state := StageFuture
		switch {
		case current < 0:
			// not in the funnel
		case i < current:
			state = StagePast
		case i == current:
			state = StageActive
		}
		out[i] = StageProgress{Stage: stage, State: state}
	}
	return out
}
