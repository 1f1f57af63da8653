// Package progress computes batch progress from materialized batch phases:
// which phases are done, which are eligible to be worked next, and how far
// along the batch is. It is pure; callers load state and interpret results.
package progress

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Step is the minimal view of a batch phase the eligibility rule needs.
type Step struct {
	Ordinal   int
	Completed bool
}

// Eligible returns the indices of the steps an operator may start now: pending
// steps for which no strictly lower-ordinal step is still pending. Steps tied
// on ordinal become eligible together once everything below them is done.
func Eligible(steps []Step) []int {
	var eligible []int
	for i, s := range steps {
		if s.Completed {
			continue
		}
		blocked := false
		for _, other := range steps {
			if !other.Completed && other.Ordinal < s.Ordinal {
				blocked = true
				break
			}
		}
		if !blocked {
			eligible = append(eligible, i)
		}
	}
	return eligible
}

// PhaseStatus is one row of a progress report.
type PhaseStatus struct {
	BatchPhaseID     uuid.UUID  `json:"batch_phase_id"`
	PhaseID          uuid.UUID  `json:"phase_id"`
	PhaseCode        string     `json:"phase_code"`
	PhaseDescription string     `json:"phase_description"`
	Ordinal          int        `json:"ordinal"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	Completed        bool       `json:"completed"`
	Eligible         bool       `json:"eligible"`

	// Set when an open appointment claims this phase, so callers can show
	// "being worked by X".
	OpenAppointmentID *uuid.UUID `json:"open_appointment_id,omitempty"`
	OperatorID        *uuid.UUID `json:"operator_id,omitempty"`
	OperatorName      string     `json:"operator_name,omitempty"`
}

// Report is the full progress picture of one batch.
type Report struct {
	Steps           []PhaseStatus `json:"steps"`
	TotalSteps      int           `json:"total_steps"`
	CompletedSteps  int           `json:"completed_steps"`
	ProgressPercent float64       `json:"progress_percent"`
}

// BuildReport orders the given phase rows by (ordinal, creation order as
// given), marks the eligible ones, and derives the completion percentage.
// An empty input yields an empty report with 0%, never an error.
func BuildReport(steps []PhaseStatus) Report {
	ordered := make([]PhaseStatus, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Ordinal < ordered[j].Ordinal
	})

	rule := make([]Step, len(ordered))
	completed := 0
	for i, s := range ordered {
		rule[i] = Step{Ordinal: s.Ordinal, Completed: s.Completed}
		if s.Completed {
			completed++
		}
		ordered[i].Eligible = false
	}
	for _, i := range Eligible(rule) {
		ordered[i].Eligible = true
	}

	return Report{
		Steps:           ordered,
		TotalSteps:      len(ordered),
		CompletedSteps:  completed,
		ProgressPercent: Percent(completed, len(ordered)),
	}
}

// Percent returns completed/total as a percentage rounded to one decimal
// place; 0 when total is 0.
func Percent(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}
