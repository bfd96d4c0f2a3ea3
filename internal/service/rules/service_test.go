package rules_test

import (
	"context"
	"errors"
	"testing"

	"joker-service/internal/config"
	"joker-service/internal/model"
	"joker-service/internal/service/game"
	rulessvc "joker-service/internal/service/rules"
	appErr "joker-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *rulessvc.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.RuleSet{}); err != nil {
		t.Fatalf("failed to migrate rule set model: %v", err)
	}

	config.GlobalConfig = &config.Config{}
	config.ApplyGameDefaults(&config.GlobalConfig.Game)

	return rulessvc.NewService(db)
}

func TestCreateAndResolve(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rs, err := svc.Create(ctx, rulessvc.UpsertInput{
		Name:          "blitz",
		TurnTimeoutMs: 10_000,
		Schedule:      [][]int{{1, 2, 3}, {4}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rs.SeatCount != 4 {
		t.Fatalf("expected default seat count 4, got %d", rs.SeatCount)
	}
	if rs.Status != rulessvc.StatusEnabled {
		t.Fatalf("expected enabled status, got %s", rs.Status)
	}

	cfg, err := svc.Resolve(ctx, rs.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.RuleSetID != rs.ID {
		t.Fatalf("expected rule set id %d, got %d", rs.ID, cfg.RuleSetID)
	}
	if cfg.TurnTimeoutMs != 10_000 {
		t.Fatalf("expected timeout 10000, got %d", cfg.TurnTimeoutMs)
	}
	if cfg.Schedule.TotalRounds() != 4 {
		t.Fatalf("expected 4 rounds, got %d", cfg.Schedule.TotalRounds())
	}
	if err := cfg.Schedule.Validate(cfg.SeatCount); err != nil {
		t.Fatalf("resolved schedule invalid: %v", err)
	}
}

func TestResolveCarriesScoringAndPacing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	scoring := game.DefaultScoreConstants()
	scoring.Shtanga = -500
	scoring.PassBonus = 100

	rs, err := svc.Create(ctx, rulessvc.UpsertInput{
		Name:            "high stakes",
		RoundEndDelayMs: 2_500,
		Scoring:         &scoring,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cfg, err := svc.Resolve(ctx, rs.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Scoring.Shtanga != -500 || cfg.Scoring.PassBonus != 100 {
		t.Fatalf("scoring override lost: %+v", cfg.Scoring)
	}
	if cfg.Scoring.MadeBetPerTrick != scoring.MadeBetPerTrick {
		t.Fatalf("untouched constant changed: %+v", cfg.Scoring)
	}
	if cfg.RoundEndDelayMs != 2_500 {
		t.Fatalf("expected round end delay 2500, got %d", cfg.RoundEndDelayMs)
	}

	// A preset without an override resolves the defaults.
	plain, err := svc.Create(ctx, rulessvc.UpsertInput{Name: "plain scoring"})
	if err != nil {
		t.Fatalf("create plain: %v", err)
	}
	cfg, err = svc.Resolve(ctx, plain.ID)
	if err != nil {
		t.Fatalf("resolve plain: %v", err)
	}
	if cfg.Scoring != game.DefaultScoreConstants() {
		t.Fatalf("expected default scoring, got %+v", cfg.Scoring)
	}
	if cfg.RoundEndDelayMs != 0 {
		t.Fatalf("expected immediate round transitions by default, got %d", cfg.RoundEndDelayMs)
	}
}

func TestCreateRejectsBadSchedule(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), rulessvc.UpsertInput{
		Name:     "broken",
		Schedule: [][]int{{20}}, // 20*4 cards do not exist
	})
	if !errors.Is(err, appErr.ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule, got %v", err)
	}
}

func TestResolveDefaultsWithoutPreset(t *testing.T) {
	svc := newTestService(t)

	cfg, err := svc.Resolve(context.Background(), 0)
	if err != nil {
		t.Fatalf("resolve defaults: %v", err)
	}
	if cfg.SeatCount != 4 || cfg.TurnTimeoutMs != 30_000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Schedule.Validate(cfg.SeatCount); err != nil {
		t.Fatalf("default schedule invalid: %v", err)
	}
}

func TestResolveDisabledPreset(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rs, err := svc.Create(ctx, rulessvc.UpsertInput{Name: "retired"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.SetStatus(ctx, rs.ID, rulessvc.StatusDisabled); err != nil {
		t.Fatalf("disable: %v", err)
	}

	if _, err := svc.Resolve(ctx, rs.ID); !errors.Is(err, appErr.ErrRuleSetDisabled) {
		t.Fatalf("expected ErrRuleSetDisabled, got %v", err)
	}
	if _, err := svc.Resolve(ctx, 99999); !errors.Is(err, appErr.ErrRuleSetNotFound) {
		t.Fatalf("expected ErrRuleSetNotFound, got %v", err)
	}
}

func TestUpdatePreset(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rs, err := svc.Create(ctx, rulessvc.UpsertInput{Name: "casual"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, rs.ID, rulessvc.UpsertInput{
		Name:     "casual",
		Schedule: [][]int{{9, 9}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	cfg, err := svc.Resolve(ctx, updated.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := game.Schedule{{9, 9}}
	if cfg.Schedule.TotalRounds() != want.TotalRounds() || cfg.Schedule[0][0] != 9 {
		t.Fatalf("update did not take: %v", cfg.Schedule)
	}

	if _, err := svc.Update(ctx, 99999, rulessvc.UpsertInput{Name: "ghost"}); !errors.Is(err, appErr.ErrRuleSetNotFound) {
		t.Fatalf("expected ErrRuleSetNotFound, got %v", err)
	}
}
