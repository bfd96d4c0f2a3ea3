package rules

import (
	"context"
	"encoding/json"
	"errors"

	"joker-service/internal/config"
	"joker-service/internal/model"
	"joker-service/internal/service/game"
	appErr "joker-service/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

// Service manages rule set presets and resolves them into the engine's
// RulesConfig.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type UpsertInput struct {
	Name             string               `json:"name" binding:"required"`
	SeatCount        int                  `json:"seatCount"`
	TurnTimeoutMs    int64                `json:"turnTimeoutMs"`
	ReconnectGraceMs int64                `json:"reconnectGraceMs"`
	RoundEndDelayMs  int64                `json:"roundEndDelayMs"`
	Schedule         [][]int              `json:"schedule"`
	Scoring          *game.ScoreConstants `json:"scoring"`
}

// Create validates the preset structurally before it can ever be referenced
// by a table.
func (s *Service) Create(ctx context.Context, in UpsertInput) (*model.RuleSet, error) {
	cfg := s.fillDefaults(in)
	if err := game.Schedule(cfg.Schedule).Validate(cfg.SeatCount); err != nil {
		return nil, err
	}
	scheduleJSON, err := json.Marshal(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	scoringJSON, err := json.Marshal(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	rs := model.RuleSet{
		Name:             cfg.Name,
		SeatCount:        cfg.SeatCount,
		TurnTimeoutMs:    cfg.TurnTimeoutMs,
		ReconnectGraceMs: cfg.ReconnectGraceMs,
		RoundEndDelayMs:  cfg.RoundEndDelayMs,
		ScheduleJSON:     datatypes.JSON(scheduleJSON),
		ScoringJSON:      datatypes.JSON(scoringJSON),
		Status:           StatusEnabled,
	}
	if err := s.db.WithContext(ctx).Create(&rs).Error; err != nil {
		return nil, err
	}
	return &rs, nil
}

// Update rewrites a preset in place. Running tables keep the config they
// resolved at creation.
func (s *Service) Update(ctx context.Context, id int64, in UpsertInput) (*model.RuleSet, error) {
	var rs model.RuleSet
	if err := s.db.WithContext(ctx).First(&rs, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrRuleSetNotFound
		}
		return nil, err
	}

	cfg := s.fillDefaults(in)
	if err := game.Schedule(cfg.Schedule).Validate(cfg.SeatCount); err != nil {
		return nil, err
	}
	scheduleJSON, err := json.Marshal(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	scoringJSON, err := json.Marshal(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	rs.Name = cfg.Name
	rs.SeatCount = cfg.SeatCount
	rs.TurnTimeoutMs = cfg.TurnTimeoutMs
	rs.ReconnectGraceMs = cfg.ReconnectGraceMs
	rs.RoundEndDelayMs = cfg.RoundEndDelayMs
	rs.ScheduleJSON = datatypes.JSON(scheduleJSON)
	rs.ScoringJSON = datatypes.JSON(scoringJSON)
	if err := s.db.WithContext(ctx).Save(&rs).Error; err != nil {
		return nil, err
	}
	return &rs, nil
}

func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	if status != StatusEnabled && status != StatusDisabled {
		return appErr.ErrRuleSetNotFound
	}
	res := s.db.WithContext(ctx).
		Model(&model.RuleSet{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appErr.ErrRuleSetNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]model.RuleSet, error) {
	var sets []model.RuleSet
	err := s.db.WithContext(ctx).Order("id ASC").Find(&sets).Error
	return sets, err
}

func (s *Service) Get(ctx context.Context, id int64) (*model.RuleSet, error) {
	var rs model.RuleSet
	if err := s.db.WithContext(ctx).First(&rs, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrRuleSetNotFound
		}
		return nil, err
	}
	return &rs, nil
}

// Resolve turns a preset into the runtime config a new table plays under.
// id 0 resolves the config-file defaults.
func (s *Service) Resolve(ctx context.Context, id int64) (game.RulesConfig, error) {
	if id == 0 {
		return DefaultConfig(), nil
	}

	rs, err := s.Get(ctx, id)
	if err != nil {
		return game.RulesConfig{}, err
	}
	if rs.Status != StatusEnabled {
		return game.RulesConfig{}, appErr.ErrRuleSetDisabled
	}

	var schedule game.Schedule
	if err := json.Unmarshal(rs.ScheduleJSON, &schedule); err != nil {
		return game.RulesConfig{}, appErr.ErrInvalidSchedule
	}
	scoring := game.DefaultScoreConstants()
	if len(rs.ScoringJSON) > 0 {
		if err := json.Unmarshal(rs.ScoringJSON, &scoring); err != nil {
			return game.RulesConfig{}, err
		}
	}
	return game.RulesConfig{
		RuleSetID:        rs.ID,
		SeatCount:        rs.SeatCount,
		TurnTimeoutMs:    int(rs.TurnTimeoutMs),
		ReconnectGraceMs: int(rs.ReconnectGraceMs),
		RoundEndDelayMs:  int(rs.RoundEndDelayMs),
		Schedule:         schedule,
		Scoring:          scoring,
	}, nil
}

// DefaultConfig builds the rules from the config file's game section.
func DefaultConfig() game.RulesConfig {
	g := config.GameConfig{}
	if config.GlobalConfig != nil {
		g = config.GlobalConfig.Game
	}
	config.ApplyGameDefaults(&g)
	return game.RulesConfig{
		SeatCount:        g.SeatCount,
		TurnTimeoutMs:    int(g.TurnTimeoutMs),
		ReconnectGraceMs: int(g.ReconnectGraceMs),
		RoundEndDelayMs:  int(g.RoundEndDelayMs),
		Schedule:         game.Schedule(g.Schedule),
		Scoring:          game.DefaultScoreConstants(),
	}
}

func (s *Service) fillDefaults(in UpsertInput) UpsertInput {
	def := DefaultConfig()
	if in.SeatCount == 0 {
		in.SeatCount = def.SeatCount
	}
	if in.TurnTimeoutMs == 0 {
		in.TurnTimeoutMs = int64(def.TurnTimeoutMs)
	}
	if in.ReconnectGraceMs == 0 {
		in.ReconnectGraceMs = int64(def.ReconnectGraceMs)
	}
	if in.RoundEndDelayMs == 0 {
		in.RoundEndDelayMs = int64(def.RoundEndDelayMs)
	}
	if len(in.Schedule) == 0 {
		in.Schedule = [][]int(def.Schedule)
	}
	if in.Scoring == nil {
		scoring := def.Scoring
		in.Scoring = &scoring
	}
	return in
}
