package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityTargetsCreated    = "targets_created"
	ActivityClickRecorded     = "click_recorded"
	ActivityTrainingCompleted = "training_completed"
	ActivitySelectionMade     = "selection_made"
)

type ActivityEntry struct {
	ID         uuid.UUID  `json:"id"`
	ActorType  string     `json:"actor_type"` // recipient/admin/system
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   *uuid.UUID `json:"entity_id,omitempty"`
	Meta       any        `json:"meta,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
