package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phishsim/backend/internal/models"
	"go.uber.org/zap"
)

// SuggestRequest is what the external content suggester receives. The
// suggester is an untrusted collaborator: everything it returns is validated
// and clamped by the engine.
type SuggestRequest struct {
	Scenario         Scenario                 `json:"scenario"`
	AllowedPayloads  []string                 `json:"allowed_payloads"`
	CandidateDesigns []string                 `json:"candidate_designs"`
	BrandPool        []string                 `json:"brand_pool"`
	EmployeeID       string                   `json:"employee_id"`
	History          []models.SelectionRecord `json:"history,omitempty"`
	Constraints      Constraints              `json:"constraints"`
	Seed             uint64                   `json:"seed"`
}

type Suggestion struct {
	PayloadType   string `json:"payload_type"`
	DesignVariant string `json:"design_variant"`
	BrandID       string `json:"brand_id,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Preheader     string `json:"preheader,omitempty"`
	Rationale     string `json:"rationale,omitempty"`
}

type Suggester interface {
	Suggest(ctx context.Context, req SuggestRequest) (*Suggestion, error)
}

// SuggesterClient talks to the external content suggester service. Calls
// are bounded by the client timeout; any failure surfaces as
// models.ErrExternalService and the engine falls back locally.
type SuggesterClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewSuggesterClient(baseURL string, timeout time.Duration, log *zap.Logger) *SuggesterClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SuggesterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *SuggesterClient) Suggest(ctx context.Context, req SuggestRequest) (*Suggestion, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/internal/suggest", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("suggester unavailable: %w: %w", models.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("suggester returned %d: %s: %w", resp.StatusCode, string(b), models.ErrExternalService)
	}

	var sug Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&sug); err != nil {
		return nil, fmt.Errorf("unparseable suggester response: %w: %w", models.ErrExternalService, err)
	}
	if sug.PayloadType == "" {
		return nil, fmt.Errorf("suggester response missing payload_type: %w", models.ErrExternalService)
	}
	return &sug, nil
}
