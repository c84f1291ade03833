package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type CompleteTrainingResponse struct {
	Success      bool    `json:"success"`
	EmployeeID   string  `json:"employee_id"`
	ScenarioID   *string `json:"scenario_id,omitempty"`
	PointsEarned int     `json:"points_earned"`
	TotalPoints  int     `json:"total_points"`
	RewardXP     int     `json:"reward_xp"`
}

type SelectionResponse struct {
	Selection any `json:"selection"`
	Context   any `json:"context"`
}
