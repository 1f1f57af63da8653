package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBatchStatusConstants(t *testing.T) {
	// Verify status constants match the schema check constraint
	statuses := []string{
		BatchStatusNotStarted,
		BatchStatusInProduction,
		BatchStatusPaused,
		BatchStatusCompleted,
		BatchStatusCancelled,
	}
	for _, s := range statuses {
		assert.NotEmpty(t, s)
	}
	assert.Equal(t, "in_production", BatchStatusInProduction)
}

func TestUserPasswordHashNeverSerialized(t *testing.T) {
	u := User{
		ID:           uuid.New(),
		Username:     "ana",
		Name:         "Ana Lima",
		PasswordHash: "$2a$10$secret",
		Role:         RoleOperator,
	}

	raw, err := json.Marshal(u)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), "ana")
}

func TestActiveAppointmentEmbedsAppointment(t *testing.T) {
	started := time.Now()
	a := ActiveAppointment{
		Appointment: Appointment{
			ID:        uuid.New(),
			StartedAt: started,
		},
		BatchCode:         "LOT-001",
		RequiresChecklist: true,
	}

	assert.Equal(t, started, a.StartedAt)
	assert.Nil(t, a.FinishedAt)
	assert.True(t, a.RequiresChecklist)
	assert.False(t, a.ChecklistComplete)
}
