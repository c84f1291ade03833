package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/phishsim/backend/internal/config"
	"github.com/phishsim/backend/internal/models"
	"github.com/phishsim/backend/internal/services"
	"go.uber.org/zap"
)

type memTargets struct {
	byToken map[string]*models.Target
	byID    map[uuid.UUID]*models.Target
}

func (s *memTargets) GetByToken(ctx context.Context, token string) (*models.Target, error) {
	t, ok := s.byToken[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *memTargets) RecordClick(ctx context.Context, id uuid.UUID, ip, ua string) error {
	t, ok := s.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	t.ClickCount++
	return nil
}

func (s *memTargets) RecordSuspicious(ctx context.Context, id uuid.UUID, ip, ua string) error {
	t, ok := s.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	t.LastSuspiciousIP = &ip
	t.LastSuspiciousUA = &ua
	return nil
}

type memCampaigns struct {
	byID map[uuid.UUID]*models.Campaign
}

func (s *memCampaigns) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *memCampaigns) IncrementClickCount(ctx context.Context, id uuid.UUID) error {
	c, ok := s.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	c.ClickCount++
	return nil
}

const defaultDestination = "https://training.example.com/landing"

func newTrackApp(destinationURL *string) (*fiber.App, *models.Target, *memTargets, *memCampaigns) {
	campaignID := uuid.New()
	target := &models.Target{
		ID:         uuid.New(),
		CampaignID: campaignID,
		EmployeeID: uuid.New(),
		Token:      models.NewToken(),
	}
	targets := &memTargets{
		byToken: map[string]*models.Target{target.Token: target},
		byID:    map[uuid.UUID]*models.Target{target.ID: target},
	}
	campaigns := &memCampaigns{byID: map[uuid.UUID]*models.Campaign{
		campaignID: {ID: campaignID, Name: "awareness", DestinationURL: destinationURL},
	}}

	cfg := &config.Config{DefaultDestinationURL: defaultDestination}
	svc := services.NewTrackService(targets, campaigns, nil, nil, cfg, zap.NewNop())
	handler := NewTrackHandler(svc, zap.NewNop())

	app := fiber.New()
	app.Get("/t/:token", handler.HandleToken)
	app.Post("/t/:token/confirm", handler.ConfirmToken)
	return app, target, targets, campaigns
}

func browserRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	return req
}

func TestHandleTokenUnknown(t *testing.T) {
	app, _, _, _ := newTrackApp(nil)

	resp, err := app.Test(browserRequest("GET", "/t/abc123"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleTokenBrowserRedirects(t *testing.T) {
	// Campaign without a destination URL redirects to the system default.
	app, target, targets, campaigns := newTrackApp(nil)

	resp, err := app.Test(browserRequest("GET", "/t/"+target.Token))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != defaultDestination {
		t.Errorf("Location = %q, want %q", loc, defaultDestination)
	}
	if targets.byID[target.ID].ClickCount != 1 {
		t.Errorf("target click count = %d, want 1", targets.byID[target.ID].ClickCount)
	}
	if campaigns.byID[target.CampaignID].ClickCount != 1 {
		t.Errorf("campaign click count = %d, want 1", campaigns.byID[target.CampaignID].ClickCount)
	}
}

func TestHandleTokenCurlChallenged(t *testing.T) {
	dest := "https://phish.example.com/doc"
	app, target, targets, campaigns := newTrackApp(&dest)

	req := httptest.NewRequest("GET", "/t/"+target.Token, nil)
	req.Header.Set("User-Agent", "curl/8.0")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse interstitial: %v", err)
	}

	href, ok := doc.Find("a").First().Attr("href")
	if !ok {
		t.Fatalf("interstitial has no fallback link")
	}
	if href != dest {
		t.Errorf("fallback link = %q, want %q", href, dest)
	}
	script := doc.Find("script").Text()
	if !strings.Contains(script, "/t/"+target.Token+"/confirm") {
		t.Errorf("interstitial script does not confirm the token: %q", script)
	}

	if targets.byID[target.ID].ClickCount != 0 {
		t.Errorf("challenged hit was counted")
	}
	if campaigns.byID[target.CampaignID].ClickCount != 0 {
		t.Errorf("challenged hit bumped the campaign aggregate")
	}
	if targets.byID[target.ID].LastSuspiciousIP == nil {
		t.Errorf("suspicious fields not recorded")
	}
}

func TestHandleTokenHeadChallenged(t *testing.T) {
	app, target, targets, _ := newTrackApp(nil)

	resp, err := app.Test(browserRequest("HEAD", "/t/"+target.Token))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 interstitial", resp.StatusCode)
	}
	if targets.byID[target.ID].ClickCount != 0 {
		t.Errorf("HEAD request was counted as a click")
	}
}

func TestConfirmTokenCounts(t *testing.T) {
	app, target, targets, campaigns := newTrackApp(nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/t/"+target.Token+"/confirm", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if targets.byID[target.ID].ClickCount != 1 {
		t.Errorf("confirm did not count the click")
	}
	if campaigns.byID[target.CampaignID].ClickCount != 1 {
		t.Errorf("confirm did not bump the campaign aggregate")
	}

	resp, err = app.Test(httptest.NewRequest("POST", "/t/unknown/confirm", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("unknown token confirm status = %d, want 404", resp.StatusCode)
	}
}
