package game

import (
	"time"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseBidding  Phase = "bidding"
	PhasePlaying  Phase = "playing"
	PhaseRoundEnd Phase = "round_end"
	PhaseFinished Phase = "finished"
)

// Player is one seat of a table. Hand order is presentation-only and never
// affects play.
type Player struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Seat            int    `json:"seat"`
	IsBot           bool   `json:"isBot"`
	ControlledByBot bool   `json:"controlledByBot"`
	Connected       bool   `json:"connected"`
	Hand            []Card `json:"hand,omitempty"`
	HandSize        int    `json:"handSize"`
	Bet             *int   `json:"bet"`
	Tricks          int    `json:"tricks"`
	TotalScore      int    `json:"totalScore"`
	CleanInPulka    bool   `json:"cleanInPulka"`
}

// RoundResult is one completed round of the score sheet.
type RoundResult struct {
	Pulka          int          `json:"pulka"`
	Round          int          `json:"round"`
	CardsPerPlayer int          `json:"cardsPerPlayer"`
	Trump          *Suit        `json:"trump"`
	Seats          []SeatResult `json:"seats"`
}

// GameState is the full authoritative state of one table. The owning runtime
// is the only writer; everything handed out is a deep copy.
type GameState struct {
	ID                 string        `json:"id"`
	JoinCode           string        `json:"joinCode"`
	RuleSetID          int64         `json:"ruleSetId,omitempty"`
	Players            []*Player     `json:"players"`
	DealerIndex        int           `json:"dealerIndex"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	Pulka              int           `json:"pulka"`
	Round              int           `json:"round"`
	CardsPerPlayer     int           `json:"cardsPerPlayer"`
	Phase              Phase         `json:"phase"`
	Trump              *Suit         `json:"trump"`
	TrumpCard          *Card         `json:"trumpCard"`
	Table              []TableCard   `json:"table"`
	TurnStartedAt      time.Time     `json:"turnStartedAt"`
	TurnTimeoutMs      int           `json:"turnTimeoutMs"`
	History            []RoundResult `json:"history"`
	CreatedAt          time.Time     `json:"createdAt"`
	FinishedAt         *time.Time    `json:"finishedAt,omitempty"`
	WinnerID           string        `json:"winnerId,omitempty"`
}

func (p *Player) clone() *Player {
	cp := *p
	if p.Bet != nil {
		bet := *p.Bet
		cp.Bet = &bet
	}
	cp.Hand = append([]Card(nil), p.Hand...)
	return &cp
}

// Clone deep-copies the state so readers never alias runtime-owned memory.
func (s *GameState) Clone() *GameState {
	cp := *s

	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.clone()
	}

	if s.Trump != nil {
		trump := *s.Trump
		cp.Trump = &trump
	}
	if s.TrumpCard != nil {
		card := *s.TrumpCard
		cp.TrumpCard = &card
	}
	if s.FinishedAt != nil {
		finished := *s.FinishedAt
		cp.FinishedAt = &finished
	}

	cp.Table = make([]TableCard, len(s.Table))
	for i, tc := range s.Table {
		cp.Table[i] = tc
		if tc.JokerOption != nil {
			opt := *tc.JokerOption
			cp.Table[i].JokerOption = &opt
		}
	}

	cp.History = make([]RoundResult, len(s.History))
	for i, rr := range s.History {
		cp.History[i] = rr
		if rr.Trump != nil {
			trump := *rr.Trump
			cp.History[i].Trump = &trump
		}
		cp.History[i].Seats = append([]SeatResult(nil), rr.Seats...)
	}

	return &cp
}

// View returns a redacted deep copy for one viewer: only the viewer's own
// hand is visible unless godMode is set. HandSize stays accurate for every
// seat.
func (s *GameState) View(viewerID string, godMode bool) *GameState {
	view := s.Clone()
	for _, p := range view.Players {
		p.HandSize = len(p.Hand)
		if godMode || p.ID == viewerID {
			continue
		}
		p.Hand = nil
	}
	return view
}

// SeatOf finds the seat index of a player, or -1.
func (s *GameState) SeatOf(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the seat whose turn it is, or nil outside
// bidding/playing.
func (s *GameState) CurrentPlayer() *Player {
	if s.Phase != PhaseBidding && s.Phase != PhasePlaying {
		return nil
	}
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

func (s *GameState) bets() []*int {
	bets := make([]*int, len(s.Players))
	for i, p := range s.Players {
		bets[i] = p.Bet
	}
	return bets
}
