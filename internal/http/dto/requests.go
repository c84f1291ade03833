package dto

import "github.com/phishsim/backend/internal/selection"

type CreateCampaignRequest struct {
	Name           string  `json:"name"`
	ScenarioID     *string `json:"scenario_id,omitempty"`
	DestinationURL *string `json:"destination_url,omitempty"`
}

type CreateTargetsRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
}

type CompleteTrainingRequest struct {
	TargetID   string  `json:"target_id"`
	ScenarioID *string `json:"scenario_id,omitempty"`
	QuizScore  *int    `json:"quiz_score,omitempty"`
}

type SelectionRequest struct {
	CampaignID  string                  `json:"campaign_id,omitempty"`
	EmployeeID  string                  `json:"employee_id"`
	Scenario    selection.Scenario      `json:"scenario"`
	History     []SelectionHistoryEntry `json:"history,omitempty"`
	Constraints selection.Constraints   `json:"constraints"`
}

type SelectionHistoryEntry struct {
	PayloadType   string `json:"payload_type"`
	DesignVariant string `json:"design_variant"`
	Date          string `json:"date"` // RFC 3339
}
