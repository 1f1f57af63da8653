package progress

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligible_SequentialRecipe(t *testing.T) {
	steps := []Step{
		{Ordinal: 1, Completed: true},
		{Ordinal: 2, Completed: false},
		{Ordinal: 3, Completed: false},
	}

	assert.Equal(t, []int{1}, Eligible(steps))
}

func TestEligible_NothingDone(t *testing.T) {
	steps := []Step{
		{Ordinal: 1, Completed: false},
		{Ordinal: 2, Completed: false},
	}

	assert.Equal(t, []int{0}, Eligible(steps))
}

func TestEligible_TiedOrdinalsBecomeEligibleTogether(t *testing.T) {
	steps := []Step{
		{Ordinal: 1, Completed: true},
		{Ordinal: 2, Completed: false},
		{Ordinal: 2, Completed: false},
		{Ordinal: 3, Completed: false},
	}

	assert.Equal(t, []int{1, 2}, Eligible(steps))
}

func TestEligible_TiedOrdinalPartiallyDone(t *testing.T) {
	// One of two parallel branches is finished; the other stays eligible and
	// still blocks ordinal 3.
	steps := []Step{
		{Ordinal: 1, Completed: true},
		{Ordinal: 2, Completed: true},
		{Ordinal: 2, Completed: false},
		{Ordinal: 3, Completed: false},
	}

	assert.Equal(t, []int{2}, Eligible(steps))
}

func TestEligible_AllCompleted(t *testing.T) {
	steps := []Step{
		{Ordinal: 1, Completed: true},
		{Ordinal: 2, Completed: true},
	}

	assert.Empty(t, Eligible(steps))
}

func TestEligible_Empty(t *testing.T) {
	assert.Empty(t, Eligible(nil))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 0.0, Percent(0, 3))
	assert.Equal(t, 33.3, Percent(1, 3))
	assert.Equal(t, 66.7, Percent(2, 3))
	assert.Equal(t, 100.0, Percent(3, 3))
}

func TestBuildReport_OrdersAndMarksEligible(t *testing.T) {
	op := uuid.New()
	appt := uuid.New()
	steps := []PhaseStatus{
		{PhaseCode: "ASM", Ordinal: 2, Completed: false, OpenAppointmentID: &appt, OperatorID: &op, OperatorName: "Marcos"},
		{PhaseCode: "CUT", Ordinal: 1, Completed: true},
		{PhaseCode: "PCK", Ordinal: 3, Completed: false},
	}

	report := BuildReport(steps)

	require.Len(t, report.Steps, 3)
	assert.Equal(t, "CUT", report.Steps[0].PhaseCode)
	assert.Equal(t, "ASM", report.Steps[1].PhaseCode)
	assert.Equal(t, "PCK", report.Steps[2].PhaseCode)

	assert.False(t, report.Steps[0].Eligible)
	assert.True(t, report.Steps[1].Eligible)
	assert.False(t, report.Steps[2].Eligible)

	// Open-appointment claim travels with the eligible row.
	require.NotNil(t, report.Steps[1].OpenAppointmentID)
	assert.Equal(t, appt, *report.Steps[1].OpenAppointmentID)
	assert.Equal(t, "Marcos", report.Steps[1].OperatorName)

	assert.Equal(t, 3, report.TotalSteps)
	assert.Equal(t, 1, report.CompletedSteps)
	assert.Equal(t, 33.3, report.ProgressPercent)
}

func TestBuildReport_EmptyBatch(t *testing.T) {
	report := BuildReport(nil)

	assert.Empty(t, report.Steps)
	assert.Equal(t, 0, report.TotalSteps)
	assert.Equal(t, 0.0, report.ProgressPercent)
}

func TestBuildReport_ProgressReachesHundredOnlyWhenAllFinished(t *testing.T) {
	steps := []PhaseStatus{
		{Ordinal: 1, Completed: true},
		{Ordinal: 2, Completed: true},
	}
	assert.Equal(t, 100.0, BuildReport(steps).ProgressPercent)

	steps[1].Completed = false
	assert.Equal(t, 50.0, BuildReport(steps).ProgressPercent)
}

func TestBuildReport_StableOrderForTiedOrdinals(t *testing.T) {
	steps := []PhaseStatus{
		{PhaseCode: "A", Ordinal: 1},
		{PhaseCode: "B", Ordinal: 1},
	}

	report := BuildReport(steps)

	// Ties keep insertion (creation) order.
	assert.Equal(t, "A", report.Steps[0].PhaseCode)
	assert.Equal(t, "B", report.Steps[1].PhaseCode)
	assert.True(t, report.Steps[0].Eligible)
	assert.True(t, report.Steps[1].Eligible)
}
