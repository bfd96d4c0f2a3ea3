package archive

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"joker-service/internal/model"
	"joker-service/internal/service/game"
	appErr "joker-service/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service persists finished games and serves the archive queries. It
// implements game.Archiver.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type standing struct {
	Name       string `json:"name"`
	Seat       int    `json:"seat"`
	TotalScore int    `json:"totalScore"`
	IsBot      bool   `json:"isBot,omitempty"`
}

// SaveFinished writes the game record and its round logs in one transaction.
// A table is archived at most once; replays hit the duplicate guard.
func (s *Service) SaveFinished(ctx context.Context, state *game.GameState) error {
	if state.Phase != game.PhaseFinished || state.FinishedAt == nil {
		return appErr.ErrTableFinished
	}

	standings := make(map[string]standing, len(state.Players))
	for _, p := range state.Players {
		standings[p.ID] = standing{
			Name:       p.Name,
			Seat:       p.Seat,
			TotalScore: p.TotalScore,
			IsBot:      p.IsBot,
		}
	}
	resultJSON, err := json.Marshal(standings)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.GameRecord
		err := tx.Where("table_id = ?", state.ID).First(&existing).Error
		if err == nil {
			return appErr.ErrGameAlreadySaved
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		record := model.GameRecord{
			TableID:    state.ID,
			RuleSetID:  state.RuleSetID,
			WinnerID:   state.WinnerID,
			ResultJSON: datatypes.JSON(resultJSON),
			StartedAt:  state.CreatedAt,
			FinishedAt: *state.FinishedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		for _, rr := range state.History {
			log, err := roundLog(state, rr)
			if err != nil {
				return err
			}
			if err := tx.Create(log).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func roundLog(state *game.GameState, rr game.RoundResult) (*model.GameRoundLog, error) {
	bets := make(map[string]int, len(rr.Seats))
	tricks := make(map[string]int, len(rr.Seats))
	scores := make(map[string]int, len(rr.Seats))
	for seat, sr := range rr.Seats {
		id := state.Players[seat].ID
		bets[id] = sr.Bet
		tricks[id] = sr.Tricks
		scores[id] = sr.Score + sr.Premium
	}

	betsJSON, err := json.Marshal(bets)
	if err != nil {
		return nil, err
	}
	tricksJSON, err := json.Marshal(tricks)
	if err != nil {
		return nil, err
	}
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return nil, err
	}

	trump := ""
	if rr.Trump != nil {
		trump = string(*rr.Trump)
	}
	return &model.GameRoundLog{
		TableID:    state.ID,
		Pulka:      rr.Pulka,
		Round:      rr.Round,
		Trump:      trump,
		BetsJSON:   datatypes.JSON(betsJSON),
		TricksJSON: datatypes.JSON(tricksJSON),
		ScoresJSON: datatypes.JSON(scoresJSON),
	}, nil
}

// ListGames returns archived games, newest first.
func (s *Service) ListGames(ctx context.Context, limit, offset int) ([]model.GameRecord, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.GameRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.GameRecord
	err := s.db.WithContext(ctx).
		Order("finished_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	return records, total, err
}

// GetGame returns one archived game with its round logs.
func (s *Service) GetGame(ctx context.Context, tableID string) (*model.GameRecord, []model.GameRoundLog, error) {
	var record model.GameRecord
	if err := s.db.WithContext(ctx).Where("table_id = ?", tableID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, appErr.ErrGameNotFound
		}
		return nil, nil, err
	}

	var logs []model.GameRoundLog
	err := s.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("pulka ASC, round ASC").
		Find(&logs).Error
	if err != nil {
		return nil, nil, err
	}
	return &record, logs, nil
}

// PlayedBetween lists games finished inside a window, for admin reporting.
func (s *Service) PlayedBetween(ctx context.Context, from, to time.Time) ([]model.GameRecord, error) {
	var records []model.GameRecord
	err := s.db.WithContext(ctx).
		Where("finished_at >= ? AND finished_at < ?", from, to).
		Order("finished_at ASC").
		Find(&records).Error
	return records, err
}
