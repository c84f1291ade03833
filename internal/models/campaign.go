package models

import (
	"time"

	"github.com/google/uuid"
)

type Campaign struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	Name           string    `json:"name"`
	ScenarioID     *string   `json:"scenario_id,omitempty"`
	DestinationURL *string   `json:"destination_url,omitempty"`
	ClickCount     int64     `json:"click_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
