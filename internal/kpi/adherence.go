// Package kpi derives timing metrics from finished appointments: per-
// appointment real duration, adherence and delay, and fleet-wide aggregates.
// All functions are pure and never fail; missing estimates degrade to
// "undefined" rather than erroring, since time bookkeeping is informational.
package kpi

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// RealMinutes returns the whole minutes elapsed between start and finish,
// truncated (floor). Negative intervals clamp to zero.
func RealMinutes(start, finish time.Time) int {
	d := finish.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// Delay compares the real duration against the estimate. When the estimate is
// zero or negative nothing is considered exceeded.
func Delay(realMinutes, estimatedMinutes int) (exceeded bool, delayMinutes int) {
	if estimatedMinutes <= 0 {
		return false, 0
	}
	if realMinutes > estimatedMinutes {
		return true, realMinutes - estimatedMinutes
	}
	return false, 0
}

// Adherence returns real/estimated as a percentage. The second return value is
// false when the estimate is zero or absent, in which case the appointment is
// excluded from adherence aggregation.
func Adherence(realMinutes, estimatedMinutes int) (float64, bool) {
	if estimatedMinutes <= 0 {
		return 0, false
	}
	return float64(realMinutes) / float64(estimatedMinutes) * 100, true
}

// FinishedAppointment is the slice of appointment state the aggregates need.
type FinishedAppointment struct {
	AppointmentID    uuid.UUID
	OperatorID       uuid.UUID
	OperatorName     string
	RealMinutes      int
	EstimatedMinutes int
	ExceededTime     bool
}

// OperatorTotals accumulates one operator's share of the window.
type OperatorTotals struct {
	OperatorID   uuid.UUID `json:"operator_id"`
	Name         string    `json:"name"`
	Appointments int       `json:"appointments"`
	TotalMinutes int       `json:"total_minutes"`
}

// Summary is the fleet-wide KPI set over a reporting window.
type Summary struct {
	TotalAppointments       int              `json:"total_appointments"`
	AverageRealMinutes      float64          `json:"average_real_minutes"`
	AverageAdherencePercent float64          `json:"average_adherence_percent"`
	ExceededCount           int              `json:"exceeded_count"`
	ByOperator              []OperatorTotals `json:"by_operator"`
}

// Summarize aggregates finished appointments into a Summary. Averages are
// computed on unrounded sums and rounded to two decimals only at the end.
// Operators are ranked by appointment count descending; ties break by name,
// then id, so the ranking is deterministic.
func Summarize(rows []FinishedAppointment) Summary {
	if len(rows) == 0 {
		return Summary{ByOperator: []OperatorTotals{}}
	}

	var realSum float64
	var adherenceSum float64
	adherenceCount := 0
	exceeded := 0
	perOperator := make(map[uuid.UUID]*OperatorTotals)

	for _, r := range rows {
		realSum += float64(r.RealMinutes)
		if pct, ok := Adherence(r.RealMinutes, r.EstimatedMinutes); ok {
			adherenceSum += pct
			adherenceCount++
		}
		if r.ExceededTime {
			exceeded++
		}

		totals, ok := perOperator[r.OperatorID]
		if !ok {
			totals = &OperatorTotals{OperatorID: r.OperatorID, Name: r.OperatorName}
			perOperator[r.OperatorID] = totals
		}
		totals.Appointments++
		totals.TotalMinutes += r.RealMinutes
	}

	ranked := make([]OperatorTotals, 0, len(perOperator))
	for _, totals := range perOperator {
		ranked = append(ranked, *totals)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Appointments != ranked[j].Appointments {
			return ranked[i].Appointments > ranked[j].Appointments
		}
		if ranked[i].Name != ranked[j].Name {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].OperatorID.String() < ranked[j].OperatorID.String()
	})

	avgAdherence := 0.0
	if adherenceCount > 0 {
		avgAdherence = adherenceSum / float64(adherenceCount)
	}

	return Summary{
		TotalAppointments:       len(rows),
		AverageRealMinutes:      round2(realSum / float64(len(rows))),
		AverageAdherencePercent: round2(avgAdherence),
		ExceededCount:           exceeded,
		ByOperator:              ranked,
	}
}

// Productivity is the average finished-appointment count per day over the
// trailing seven days, rounded to two decimals.
func Productivity(finishedLastSevenDays int) float64 {
	return round2(float64(finishedLastSevenDays) / 7.0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
