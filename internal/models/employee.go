package models

import (
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	TotalPoints int       `json:"total_points"`
	CreatedAt   time.Time `json:"created_at"`
}

// TrainingHistoryEntry is one completed training module for an employee.
// The UI only reads the most recent few.
type TrainingHistoryEntry struct {
	ID          uuid.UUID `json:"id"`
	EmployeeID  uuid.UUID `json:"employee_id"`
	ScenarioID  *string   `json:"scenario_id,omitempty"`
	Score       *int      `json:"score,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
