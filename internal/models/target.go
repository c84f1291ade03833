package models

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// Target is the per-(campaign, employee) tracking record addressed by its
// public token. Exactly one exists per pair; the token never changes after
// creation.
type Target struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Token      string    `json:"token"`

	ClickCount       int        `json:"click_count"`
	LastClickAt      *time.Time `json:"last_click_at,omitempty"`
	LastClickIP      *string    `json:"last_click_ip,omitempty"`
	LastClickUA      *string    `json:"last_click_user_agent,omitempty"`
	LastSuspiciousAt *time.Time `json:"last_suspicious_at,omitempty"`
	LastSuspiciousIP *string    `json:"last_suspicious_ip,omitempty"`
	LastSuspiciousUA *string    `json:"last_suspicious_user_agent,omitempty"`

	ScenarioID    *string `json:"scenario_id,omitempty"`
	PayloadType   *string `json:"payload_type,omitempty"`
	DesignVariant *string `json:"design_variant,omitempty"`
	BrandID       *string `json:"brand_id,omitempty"`

	TrainingCompletedAt *time.Time `json:"training_completed_at,omitempty"`
	QuizScore           *int       `json:"quiz_score,omitempty"`
	RewardPoints        int        `json:"reward_points"`
	RewardXP            int        `json:"reward_xp"`

	CreatedAt time.Time `json:"created_at"`
}

// SelectionRecord is one past content assignment for an employee, newest
// first when returned as a list. Read-only input to the selection engine.
type SelectionRecord struct {
	PayloadType   string    `json:"payload_type"`
	DesignVariant string    `json:"design_variant"`
	Date          time.Time `json:"date"`
}

const tokenBytes = 16 // 128 bits

// NewToken returns a URL-safe tracking token. The DB unique constraint on
// targets.token is the backstop; at 128 bits a collision is not expected.
func NewToken() string {
	b := make([]byte, tokenBytes)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
