package kpi

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealMinutes_Floor(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 37, RealMinutes(start, start.Add(37*time.Minute)))
	assert.Equal(t, 37, RealMinutes(start, start.Add(37*time.Minute+59*time.Second)))
	assert.Equal(t, 0, RealMinutes(start, start.Add(45*time.Second)))
}

func TestRealMinutes_NegativeClampsToZero(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, RealMinutes(start, start.Add(-5*time.Minute)))
}

func TestDelay(t *testing.T) {
	exceeded, delay := Delay(37, 30)
	assert.True(t, exceeded)
	assert.Equal(t, 7, delay)

	exceeded, delay = Delay(25, 30)
	assert.False(t, exceeded)
	assert.Equal(t, 0, delay)

	exceeded, delay = Delay(30, 30)
	assert.False(t, exceeded)
	assert.Equal(t, 0, delay)

	// No estimate means nothing can be exceeded.
	exceeded, delay = Delay(120, 0)
	assert.False(t, exceeded)
	assert.Equal(t, 0, delay)
}

func TestAdherence(t *testing.T) {
	pct, ok := Adherence(37, 30)
	require.True(t, ok)
	assert.InDelta(t, 123.33, pct, 0.01)

	pct, ok = Adherence(15, 30)
	require.True(t, ok)
	assert.Equal(t, 50.0, pct)

	_, ok = Adherence(15, 0)
	assert.False(t, ok)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.TotalAppointments)
	assert.Equal(t, 0.0, summary.AverageRealMinutes)
	assert.Equal(t, 0.0, summary.AverageAdherencePercent)
	assert.Equal(t, 0, summary.ExceededCount)
	assert.Empty(t, summary.ByOperator)
}

func TestSummarize_Averages(t *testing.T) {
	ana := uuid.New()
	rui := uuid.New()
	rows := []FinishedAppointment{
		{AppointmentID: uuid.New(), OperatorID: ana, OperatorName: "Ana", RealMinutes: 30, EstimatedMinutes: 30},
		{AppointmentID: uuid.New(), OperatorID: ana, OperatorName: "Ana", RealMinutes: 45, EstimatedMinutes: 30, ExceededTime: true},
		{AppointmentID: uuid.New(), OperatorID: rui, OperatorName: "Rui", RealMinutes: 20, EstimatedMinutes: 0},
	}

	summary := Summarize(rows)

	assert.Equal(t, 3, summary.TotalAppointments)
	// (30+45+20)/3
	assert.InDelta(t, 31.67, summary.AverageRealMinutes, 0.001)
	// Zero-estimate row is excluded: (100 + 150) / 2
	assert.Equal(t, 125.0, summary.AverageAdherencePercent)
	assert.Equal(t, 1, summary.ExceededCount)
}

func TestSummarize_OperatorRanking(t *testing.T) {
	ana := uuid.New()
	rui := uuid.New()
	bea := uuid.New()
	rows := []FinishedAppointment{
		{OperatorID: rui, OperatorName: "Rui", RealMinutes: 10, EstimatedMinutes: 20},
		{OperatorID: ana, OperatorName: "Ana", RealMinutes: 15, EstimatedMinutes: 20},
		{OperatorID: ana, OperatorName: "Ana", RealMinutes: 25, EstimatedMinutes: 20, ExceededTime: true},
		{OperatorID: bea, OperatorName: "Bea", RealMinutes: 12, EstimatedMinutes: 20},
	}

	summary := Summarize(rows)

	require.Len(t, summary.ByOperator, 3)
	assert.Equal(t, "Ana", summary.ByOperator[0].Name)
	assert.Equal(t, 2, summary.ByOperator[0].Appointments)
	assert.Equal(t, 40, summary.ByOperator[0].TotalMinutes)

	// Rui and Bea tie on count; ties break alphabetically by name.
	assert.Equal(t, "Bea", summary.ByOperator[1].Name)
	assert.Equal(t, "Rui", summary.ByOperator[2].Name)
}

func TestProductivity(t *testing.T) {
	assert.Equal(t, 0.0, Productivity(0))
	assert.Equal(t, 1.0, Productivity(7))
	assert.Equal(t, 1.43, Productivity(10))
}
