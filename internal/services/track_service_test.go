package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phishsim/backend/internal/botcheck"
	"github.com/phishsim/backend/internal/config"
	"github.com/phishsim/backend/internal/events"
	"github.com/phishsim/backend/internal/models"
	"go.uber.org/zap"
)

type fakeTargetStore struct {
	byToken map[string]*models.Target
	byID    map[uuid.UUID]*models.Target

	clickErr error
}

func newFakeTargetStore(targets ...*models.Target) *fakeTargetStore {
	s := &fakeTargetStore{
		byToken: map[string]*models.Target{},
		byID:    map[uuid.UUID]*models.Target{},
	}
	for _, t := range targets {
		s.byToken[t.Token] = t
		s.byID[t.ID] = t
	}
	return s
}

func (s *fakeTargetStore) GetByToken(ctx context.Context, token string) (*models.Target, error) {
	t, ok := s.byToken[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *fakeTargetStore) RecordClick(ctx context.Context, id uuid.UUID, ip, ua string) error {
	if s.clickErr != nil {
		return s.clickErr
	}
	t, ok := s.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	t.ClickCount++
	t.LastClickIP = &ip
	t.LastClickUA = &ua
	return nil
}

func (s *fakeTargetStore) RecordSuspicious(ctx context.Context, id uuid.UUID, ip, ua string) error {
	t, ok := s.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	t.LastSuspiciousIP = &ip
	t.LastSuspiciousUA = &ua
	return nil
}

type fakeCampaignStore struct {
	campaigns map[uuid.UUID]*models.Campaign
}

func (s *fakeCampaignStore) Create(ctx context.Context, c *models.Campaign) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	s.campaigns[c.ID] = &stored
	return nil
}

func (s *fakeCampaignStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *fakeCampaignStore) IncrementClickCount(ctx context.Context, id uuid.UUID) error {
	c, ok := s.campaigns[id]
	if !ok {
		return models.ErrNotFound
	}
	c.ClickCount++
	return nil
}

func (s *fakeCampaignStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.campaigns, id)
	return nil
}

type fakePublisher struct {
	ch chan events.Event
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{ch: make(chan events.Event, 8)}
}

func (p *fakePublisher) Publish(ctx context.Context, stream string, event events.Event) error {
	p.ch <- event
	return nil
}

func (p *fakePublisher) wait(t *testing.T, eventType string) events.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-p.ch:
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event published", eventType)
		}
	}
}

func humanMeta() botcheck.RequestMeta {
	return botcheck.RequestMeta{
		Method:         "GET",
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
		AcceptLanguage: "en-US",
		SecFetchSite:   "cross-site",
		IP:             "10.1.2.3",
	}
}

func newTrackFixture(destinationURL *string) (*TrackService, *models.Target, *fakeTargetStore, *fakeCampaignStore) {
	campaignID := uuid.New()
	target := &models.Target{
		ID:         uuid.New(),
		CampaignID: campaignID,
		EmployeeID: uuid.New(),
		Token:      models.NewToken(),
	}
	targets := newFakeTargetStore(target)
	campaigns := &fakeCampaignStore{campaigns: map[uuid.UUID]*models.Campaign{
		campaignID: {ID: campaignID, Name: "q3-awareness", DestinationURL: destinationURL},
	}}

	cfg := &config.Config{DefaultDestinationURL: "https://training.example.com/landing"}
	svc := NewTrackService(targets, campaigns, nil, nil, cfg, zap.NewNop())
	return svc, target, targets, campaigns
}

func strptr(s string) *string { return &s }

func TestHandleClickUnknownToken(t *testing.T) {
	svc, _, _, _ := newTrackFixture(nil)

	_, err := svc.HandleClick(context.Background(), "abc123", humanMeta())
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got %v", err)
	}
}

func TestHandleClickDirectCountsOnce(t *testing.T) {
	svc, target, targets, campaigns := newTrackFixture(strptr("https://phish.example.com/landing"))

	out, err := svc.HandleClick(context.Background(), target.Token, humanMeta())
	if err != nil {
		t.Fatalf("HandleClick: %v", err)
	}
	if out.Mode != botcheck.ModeDirect {
		t.Fatalf("Mode = %q, want direct", out.Mode)
	}
	if out.DestinationURL != "https://phish.example.com/landing" {
		t.Errorf("DestinationURL = %q", out.DestinationURL)
	}

	if got := targets.byID[target.ID].ClickCount; got != 1 {
		t.Errorf("target click count = %d, want 1", got)
	}
	if got := campaigns.campaigns[target.CampaignID].ClickCount; got != 1 {
		t.Errorf("campaign click count = %d, want 1", got)
	}
	if targets.byID[target.ID].LastSuspiciousIP != nil {
		t.Errorf("direct click must not touch suspicious fields")
	}
}

func TestHandleClickChallengeDoesNotCount(t *testing.T) {
	svc, target, targets, campaigns := newTrackFixture(nil)

	meta := humanMeta()
	meta.UserAgent = "curl/8.0"

	out, err := svc.HandleClick(context.Background(), target.Token, meta)
	if err != nil {
		t.Fatalf("HandleClick: %v", err)
	}
	if out.Mode != botcheck.ModeChallenge {
		t.Fatalf("Mode = %q, want challenge", out.Mode)
	}

	stored := targets.byID[target.ID]
	if stored.ClickCount != 0 {
		t.Errorf("challenged hit incremented target counter: %d", stored.ClickCount)
	}
	if campaigns.campaigns[target.CampaignID].ClickCount != 0 {
		t.Errorf("challenged hit incremented campaign counter")
	}
	if stored.LastSuspiciousIP == nil || *stored.LastSuspiciousIP != "10.1.2.3" {
		t.Errorf("suspicious fields not recorded: %+v", stored)
	}
}

func TestHandleClickChallengePublishesEvent(t *testing.T) {
	campaignID := uuid.New()
	target := &models.Target{
		ID:         uuid.New(),
		CampaignID: campaignID,
		EmployeeID: uuid.New(),
		Token:      models.NewToken(),
	}
	targets := newFakeTargetStore(target)
	campaigns := &fakeCampaignStore{campaigns: map[uuid.UUID]*models.Campaign{
		campaignID: {ID: campaignID, Name: "q3-awareness"},
	}}
	pub := newFakePublisher()

	cfg := &config.Config{DefaultDestinationURL: "https://training.example.com/landing"}
	svc := NewTrackService(targets, campaigns, nil, pub, cfg, zap.NewNop())

	meta := humanMeta()
	meta.UserAgent = "curl/8.0"
	if _, err := svc.HandleClick(context.Background(), target.Token, meta); err != nil {
		t.Fatalf("HandleClick: %v", err)
	}

	ev := pub.wait(t, events.EventClickChallenged)
	if ev.Payload["campaign_id"] != campaignID.String() {
		t.Errorf("campaign_id = %v, want %s", ev.Payload["campaign_id"], campaignID)
	}
	if reason, _ := ev.Payload["reason"].(string); reason == "" {
		t.Errorf("challenge event carries no reason: %+v", ev.Payload)
	}
}

func TestHandleClickDefaultDestination(t *testing.T) {
	svc, target, _, _ := newTrackFixture(nil)

	out, err := svc.HandleClick(context.Background(), target.Token, humanMeta())
	if err != nil {
		t.Fatalf("HandleClick: %v", err)
	}
	if out.DestinationURL != "https://training.example.com/landing" {
		t.Errorf("expected default destination, got %q", out.DestinationURL)
	}
}

func TestHandleClickStorageErrorSwallowed(t *testing.T) {
	svc, target, targets, _ := newTrackFixture(nil)
	targets.clickErr = errors.New("connection refused")

	out, err := svc.HandleClick(context.Background(), target.Token, humanMeta())
	if err != nil {
		t.Fatalf("storage error must not surface to the recipient, got %v", err)
	}
	if out.Mode != botcheck.ModeDirect || out.DestinationURL == "" {
		t.Errorf("degraded outcome incomplete: %+v", out)
	}
}

func TestConfirmClick(t *testing.T) {
	svc, target, targets, campaigns := newTrackFixture(nil)

	if err := svc.ConfirmClick(context.Background(), target.Token, humanMeta()); err != nil {
		t.Fatalf("ConfirmClick: %v", err)
	}
	if got := targets.byID[target.ID].ClickCount; got != 1 {
		t.Errorf("target click count = %d, want 1", got)
	}
	if got := campaigns.campaigns[target.CampaignID].ClickCount; got != 1 {
		t.Errorf("campaign click count = %d, want 1", got)
	}

	if err := svc.ConfirmClick(context.Background(), "nope", humanMeta()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown token, got %v", err)
	}
}
