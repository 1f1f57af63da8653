package db

import (
	"time"

	"github.com/google/uuid"
)

// Batch status constants
const (
	BatchStatusNotStarted   = "not_started"
	BatchStatusInProduction = "in_production"
	BatchStatusPaused       = "paused"
	BatchStatusCompleted    = "completed"
	BatchStatusCancelled    = "cancelled"
)

// User role constants
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User represents an account on the shop floor (admin or operator)
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Never serialize to JSON
	Role         string    `json:"role"`
	Sector       string    `json:"sector,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Product represents a manufacturable product with a phase recipe
type Product struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Phase represents a named production step (cutting, assembly, ...)
type Phase struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecipeStep is one entry of a product's ordered phase recipe
type RecipeStep struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	PhaseID          uuid.UUID `json:"phase_id"`
	PhaseCode        string    `json:"phase_code,omitempty"`
	PhaseDescription string    `json:"phase_description,omitempty"`
	Ordinal          int       `json:"ordinal"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	ShelfLifeHours   *int      `json:"shelf_life_hours,omitempty"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

// Machine represents a catalog machine entry
type Machine struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Sector      string    `json:"sector,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Batch represents a production run of a product through its phases
type Batch struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BatchProduct links a product to a batch
type BatchProduct struct {
	ID        uuid.UUID `json:"id"`
	BatchID   uuid.UUID `json:"batch_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Notes     string    `json:"notes,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchPhase is the per-batch materialized copy of a recipe step. Its
// started_at is stamped by the first claiming appointment, its finished_at by
// the finish of that phase's appointment.
type BatchPhase struct {
	ID               uuid.UUID  `json:"id"`
	BatchID          uuid.UUID  `json:"batch_id"`
	PhaseID          uuid.UUID  `json:"phase_id"`
	ProductID        uuid.UUID  `json:"product_id"`
	PhaseCode        string     `json:"phase_code,omitempty"`
	PhaseDescription string     `json:"phase_description,omitempty"`
	Ordinal          int        `json:"ordinal"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	ShelfLifeHours   *int       `json:"shelf_life_hours,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	Active           bool       `json:"active"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Appointment is one operator's open-to-closed work interval on one batch
// phase. real/exceeded/delay are computed once, on finish.
type Appointment struct {
	ID           uuid.UUID  `json:"id"`
	BatchPhaseID uuid.UUID  `json:"batch_phase_id"`
	OperatorID   uuid.UUID  `json:"operator_id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	RealMinutes  *int       `json:"real_minutes,omitempty"`
	ExceededTime *bool      `json:"exceeded_time,omitempty"`
	DelayMinutes *int       `json:"delay_minutes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ChecklistItem is a per-phase condition answered while an appointment is open
type ChecklistItem struct {
	ID          uuid.UUID `json:"id"`
	PhaseID     uuid.UUID `json:"phase_id"`
	Description string    `json:"description"`
	Mandatory   bool      `json:"mandatory"`
	Ordinal     int       `json:"ordinal"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChecklistAnswer is an operator's answer to one checklist item, upserted per
// (appointment, item) pair
type ChecklistAnswer struct {
	ID              uuid.UUID `json:"id"`
	AppointmentID   uuid.UUID `json:"appointment_id"`
	ChecklistItemID uuid.UUID `json:"checklist_item_id"`
	Completed       bool      `json:"completed"`
	Note            string    `json:"note,omitempty"`
	AnsweredAt      time.Time `json:"answered_at"`
}

// ChecklistItemStatus pairs a phase checklist item with the answer (if any)
// recorded for a given appointment
type ChecklistItemStatus struct {
	Item     ChecklistItem    `json:"item"`
	Answer   *ChecklistAnswer `json:"answer,omitempty"`
	Answered bool             `json:"answered"`
}

// ActiveAppointment is the operator-facing view of an open appointment
type ActiveAppointment struct {
	Appointment
	BatchID           uuid.UUID `json:"batch_id"`
	BatchCode         string    `json:"batch_code"`
	PhaseID           uuid.UUID `json:"phase_id"`
	PhaseDescription  string    `json:"phase_description"`
	EstimatedMinutes  int       `json:"estimated_minutes"`
	RequiresChecklist bool      `json:"requires_checklist"`
	ChecklistComplete bool      `json:"checklist_complete"`
}

// AppointmentHistoryEntry is a row of an operator's work history
type AppointmentHistoryEntry struct {
	ID           uuid.UUID  `json:"id"`
	BatchCode    string     `json:"batch_code"`
	ProductCode  string     `json:"product_code"`
	Phase        string     `json:"phase"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	RealMinutes  *int       `json:"real_minutes,omitempty"`
	ExceededTime *bool      `json:"exceeded_time,omitempty"`
}
