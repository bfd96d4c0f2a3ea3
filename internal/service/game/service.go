package game

import (
	"context"
	"sync"
	"time"

	appErr "joker-service/pkg/errors"
	"joker-service/pkg/logger"
	"joker-service/pkg/utils/random"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Archiver persists finished games. Implemented by the archive service.
type Archiver interface {
	SaveFinished(ctx context.Context, state *GameState) error
}

// Registrar mirrors live tables into a shared index so summaries survive
// process restarts and other replicas can list and inspect them.
type Registrar interface {
	Publish(ctx context.Context, summary TableSummary, state *GameState) error
	Remove(ctx context.Context, tableID string) error
	List(ctx context.Context) ([]TableSummary, error)
	GetState(ctx context.Context, tableID string) (*GameState, error)
}

// SeatSpec describes one seat at creation time.
type SeatSpec struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	IsBot    bool   `json:"isBot"`
}

// SeatSummary is the listing view of one seat.
type SeatSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsBot     bool   `json:"isBot"`
	Connected bool   `json:"connected"`
}

// TableSummary is the listing view of a table.
type TableSummary struct {
	ID        string        `json:"id"`
	JoinCode  string        `json:"joinCode"`
	Phase     Phase         `json:"phase"`
	SeatCount int           `json:"seatCount"`
	Players   []SeatSummary `json:"players"`
	Pulka     int           `json:"pulka"`
	Round     int           `json:"round"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Service supervises every live table in the process.
type Service struct {
	runtimes sync.Map // tableID -> *TableRuntime

	archiver Archiver
	registry Registrar
	seedFn   func() int64
}

func NewService(archiver Archiver, registry Registrar) *Service {
	return &Service{
		archiver: archiver,
		registry: registry,
		seedFn:   func() int64 { return time.Now().UnixNano() },
	}
}

// CreateTable validates the seats and rules, builds the runtime, and starts
// play. Structural problems are fatal before the table exists.
func (s *Service) CreateTable(ctx context.Context, seats []SeatSpec, rules RulesConfig) (*GameState, error) {
	if len(seats) != rules.SeatCount {
		return nil, appErr.ErrInvalidSeatCount
	}
	if err := rules.Schedule.Validate(rules.SeatCount); err != nil {
		return nil, err
	}

	players := make([]*Player, len(seats))
	for i, spec := range seats {
		id := spec.PlayerID
		if spec.IsBot && id == "" {
			id = "bot-" + uuid.NewString()
		}
		if id == "" {
			return nil, appErr.ErrPlayerNotSeated
		}
		players[i] = &Player{
			ID:        id,
			Name:      spec.Name,
			Seat:      i,
			IsBot:     spec.IsBot,
			Connected: spec.IsBot,
		}
	}

	state := &GameState{
		ID:            uuid.NewString(),
		JoinCode:      random.Code(6),
		RuleSetID:     rules.RuleSetID,
		Players:       players,
		Phase:         PhaseWaiting,
		TurnTimeoutMs: rules.TurnTimeoutMs,
		CreatedAt:     time.Now(),
	}

	rt := newTableRuntime(state, rules, s.seedFn(), s.handleFinish, s.handlePublish)
	s.runtimes.Store(state.ID, rt)

	logger.Log.Info("table created",
		zap.String("tableID", state.ID),
		zap.Int("seats", len(players)),
	)
	rt.Start()
	return rt.Snapshot("", true), nil
}

func (s *Service) GetRuntime(tableID string) (*TableRuntime, error) {
	if v, ok := s.runtimes.Load(tableID); ok {
		return v.(*TableRuntime), nil
	}
	return nil, appErr.ErrTableNotFound
}

// Snapshot returns the viewer's redacted state for one table. A god-mode read
// of a table this replica does not own falls back to the registry's last
// published snapshot.
func (s *Service) Snapshot(ctx context.Context, tableID, viewerID string, godMode bool) (*GameState, error) {
	rt, err := s.GetRuntime(tableID)
	if err != nil {
		if godMode && s.registry != nil {
			state, regErr := s.registry.GetState(ctx, tableID)
			if regErr != nil {
				logger.Log.Warn("registry state fetch failed", zap.String("tableID", tableID), zap.Error(regErr))
			}
			if state != nil {
				return state, nil
			}
		}
		return nil, err
	}
	snap := rt.Snapshot(viewerID, godMode)
	if !godMode && snap.SeatOf(viewerID) < 0 {
		return nil, appErr.ErrTableAccessDenied
	}
	return snap, nil
}

// Apply routes one player action to its table.
func (s *Service) Apply(tableID, playerID string, action Action) (*GameState, error) {
	rt, err := s.GetRuntime(tableID)
	if err != nil {
		return nil, err
	}
	return rt.ApplyAction(playerID, action)
}

// ListTables prefers the shared registry; with no registry (or on error) it
// falls back to the in-process runtimes.
func (s *Service) ListTables(ctx context.Context) []TableSummary {
	if s.registry != nil {
		if summaries, err := s.registry.List(ctx); err == nil {
			return summaries
		} else {
			logger.Log.Warn("registry list failed, using local runtimes", zap.Error(err))
		}
	}
	var summaries []TableSummary
	s.runtimes.Range(func(_, v interface{}) bool {
		rt := v.(*TableRuntime)
		summaries = append(summaries, summarize(rt.Snapshot("", true)))
		return true
	})
	return summaries
}

// Abandon removes a table that should not be archived.
func (s *Service) Abandon(ctx context.Context, tableID string) error {
	rt, err := s.GetRuntime(tableID)
	if err != nil {
		return err
	}
	rt.Abandon()
	s.runtimes.Delete(tableID)
	if s.registry != nil {
		if err := s.registry.Remove(ctx, tableID); err != nil {
			logger.Log.Warn("registry remove failed", zap.String("tableID", tableID), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) handleFinish(state *GameState) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.archiver != nil {
		if err := s.archiver.SaveFinished(ctx, state); err != nil {
			logger.Log.Error("archive finished game failed",
				zap.String("tableID", state.ID),
				zap.Error(err),
			)
		}
	}
	if s.registry != nil {
		if err := s.registry.Remove(ctx, state.ID); err != nil {
			logger.Log.Warn("registry remove failed", zap.String("tableID", state.ID), zap.Error(err))
		}
	}
	s.runtimes.Delete(state.ID)
}

func (s *Service) handlePublish(state *GameState) {
	if s.registry == nil || state.Phase == PhaseFinished {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.registry.Publish(ctx, summarize(state), state); err != nil {
		logger.Log.Warn("registry publish failed", zap.String("tableID", state.ID), zap.Error(err))
	}
}

func summarize(state *GameState) TableSummary {
	seats := make([]SeatSummary, len(state.Players))
	for i, p := range state.Players {
		seats[i] = SeatSummary{
			ID:        p.ID,
			Name:      p.Name,
			IsBot:     p.IsBot,
			Connected: p.Connected,
		}
	}
	return TableSummary{
		ID:        state.ID,
		JoinCode:  state.JoinCode,
		Phase:     state.Phase,
		SeatCount: len(state.Players),
		Players:   seats,
		Pulka:     state.Pulka,
		Round:     state.Round,
		CreatedAt: state.CreatedAt,
	}
}
