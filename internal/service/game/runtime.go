package game

import (
	mrand "math/rand"
	"sync"
	"time"

	appErr "joker-service/pkg/errors"
	"joker-service/pkg/logger"

	"go.uber.org/zap"
)

// RulesConfig is the resolved rule set a table plays under.
type RulesConfig struct {
	RuleSetID        int64          `json:"ruleSetId,omitempty"`
	SeatCount        int            `json:"seatCount"`
	TurnTimeoutMs    int            `json:"turnTimeoutMs"`
	ReconnectGraceMs int            `json:"reconnectGraceMs"`
	RoundEndDelayMs  int            `json:"roundEndDelayMs"`
	Schedule         Schedule       `json:"schedule"`
	Scoring          ScoreConstants `json:"scoring"`
}

type ActionType string

const (
	ActionBid      ActionType = "bid"
	ActionPlayCard ActionType = "play_card"
)

// Action is one player command against a table.
type Action struct {
	Type        ActionType   `json:"type"`
	Amount      *int         `json:"amount,omitempty"`
	Card        string       `json:"card,omitempty"`
	JokerOption *JokerOption `json:"jokerOption,omitempty"`
}

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// TableRuntime owns one table. Every mutation runs under mu; methods with the
// Locked suffix require it held. Timer callbacks re-acquire the lock and carry
// the turn sequence they were armed for, so a fire that lost the race against
// a player action is discarded.
type TableRuntime struct {
	state *GameState
	rules RulesConfig
	rng   *mrand.Rand

	subscribers map[string]chan OutgoingMessage
	seq         int64

	timer        *time.Timer
	turnDeadline time.Time
	turnSeq      int64

	graceTimers map[string]*time.Timer

	mu sync.Mutex

	onFinish  func(*GameState)
	onPublish func(*GameState)
}

func newTableRuntime(state *GameState, rules RulesConfig, seed int64, onFinish, onPublish func(*GameState)) *TableRuntime {
	return &TableRuntime{
		state:       state,
		rules:       rules,
		rng:         mrand.New(mrand.NewSource(seed)),
		subscribers: make(map[string]chan OutgoingMessage),
		graceTimers: make(map[string]*time.Timer),
		onFinish:    onFinish,
		onPublish:   onPublish,
	}
}

// Start deals the first round and opens bidding.
func (rt *TableRuntime) Start() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.state.Phase != PhaseWaiting {
		return
	}
	rt.startRoundLocked()
	rt.runBotsLocked()
	rt.broadcastStateLocked()
}

func (rt *TableRuntime) Subscribe(playerID string) chan OutgoingMessage {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ch := make(chan OutgoingMessage, 8)
	rt.subscribers[playerID] = ch
	rt.pushStateLocked(playerID)
	return ch
}

func (rt *TableRuntime) Unsubscribe(playerID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if ch, ok := rt.subscribers[playerID]; ok {
		delete(rt.subscribers, playerID)
		close(ch)
	}
}

// ApplyAction validates and applies one player command, returning the actor's
// redacted view of the resulting state.
func (rt *TableRuntime) ApplyAction(playerID string, action Action) (*GameState, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	seat := rt.state.SeatOf(playerID)
	if seat < 0 {
		return nil, appErr.ErrTableAccessDenied
	}
	if rt.state.Phase == PhaseFinished {
		return nil, appErr.ErrTableFinished
	}
	if seat != rt.state.CurrentPlayerIndex ||
		(rt.state.Phase != PhaseBidding && rt.state.Phase != PhasePlaying) {
		if err := rt.phaseErrLocked(action); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotYourTurn
	}

	var err error
	switch action.Type {
	case ActionBid:
		if rt.state.Phase != PhaseBidding {
			err = appErr.ErrInvalidActionForPhase
			break
		}
		if action.Amount == nil {
			err = appErr.ErrInvalidBid
			break
		}
		err = rt.applyBidLocked(seat, *action.Amount)
	case ActionPlayCard:
		if rt.state.Phase != PhasePlaying {
			err = appErr.ErrInvalidActionForPhase
			break
		}
		var card Card
		card, err = ParseCard(action.Card)
		if err != nil {
			err = appErr.ErrCardNotInHand
			break
		}
		err = rt.applyPlayLocked(seat, card, action.JokerOption)
	default:
		err = appErr.ErrUnknownAction
	}
	if err != nil {
		return nil, err
	}

	rt.runBotsLocked()
	rt.broadcastStateLocked()
	return rt.state.View(playerID, false), nil
}

// phaseErrLocked distinguishes a wrong-phase command from a wrong-turn one so
// callers get the sharper error.
func (rt *TableRuntime) phaseErrLocked(action Action) error {
	switch rt.state.Phase {
	case PhaseBidding:
		if action.Type != ActionBid {
			return appErr.ErrInvalidActionForPhase
		}
	case PhasePlaying:
		if action.Type != ActionPlayCard {
			return appErr.ErrInvalidActionForPhase
		}
	default:
		return appErr.ErrInvalidActionForPhase
	}
	return nil
}

// Snapshot returns a redacted deep copy for the viewer; godMode exposes every
// hand.
func (rt *TableRuntime) Snapshot(viewerID string, godMode bool) *GameState {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state.View(viewerID, godMode)
}

// HasSeat reports whether the player occupies a seat at this table.
func (rt *TableRuntime) HasSeat(playerID string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state.SeatOf(playerID) >= 0
}

// SetConnected tracks a seat's live connection. A disconnect arms the grace
// timer; expiry hands the seat to the bot. Reconnecting reclaims the seat.
func (rt *TableRuntime) SetConnected(playerID string, connected bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	seat := rt.state.SeatOf(playerID)
	if seat < 0 {
		return
	}
	p := rt.state.Players[seat]
	if p.IsBot {
		return
	}
	p.Connected = connected

	if connected {
		if t, ok := rt.graceTimers[playerID]; ok {
			t.Stop()
			delete(rt.graceTimers, playerID)
		}
		if p.ControlledByBot {
			p.ControlledByBot = false
			logger.Log.Info("seat reclaimed from bot",
				zap.String("tableID", rt.state.ID),
				zap.String("playerID", playerID),
			)
		}
		rt.broadcastStateLocked()
		return
	}

	if rt.state.Phase == PhaseFinished {
		return
	}
	if t, ok := rt.graceTimers[playerID]; ok {
		t.Stop()
	}
	grace := time.Duration(rt.rules.ReconnectGraceMs) * time.Millisecond
	rt.graceTimers[playerID] = time.AfterFunc(grace, func() {
		rt.onGraceExpired(playerID)
	})
	rt.broadcastStateLocked()
}

func (rt *TableRuntime) onGraceExpired(playerID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	delete(rt.graceTimers, playerID)
	seat := rt.state.SeatOf(playerID)
	if seat < 0 || rt.state.Phase == PhaseFinished {
		return
	}
	p := rt.state.Players[seat]
	if p.Connected || p.ControlledByBot {
		return
	}
	p.ControlledByBot = true
	logger.Log.Info("grace expired, bot takes over",
		zap.String("tableID", rt.state.ID),
		zap.String("playerID", playerID),
	)
	rt.runBotsLocked()
	rt.broadcastStateLocked()
}

// Abandon tears the table down without archiving.
func (rt *TableRuntime) Abandon() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.cancelTimerLocked()
	for id, t := range rt.graceTimers {
		t.Stop()
		delete(rt.graceTimers, id)
	}
	now := time.Now()
	rt.state.Phase = PhaseFinished
	rt.state.FinishedAt = &now
	rt.broadcastStateLocked()
	for id, ch := range rt.subscribers {
		delete(rt.subscribers, id)
		close(ch)
	}
}

func (rt *TableRuntime) startRoundLocked() {
	st := rt.state
	cards, ok := rt.rules.Schedule.CardsFor(st.Pulka, st.Round)
	if !ok {
		rt.finishLocked()
		return
	}
	st.CardsPerPlayer = cards

	deck := Shuffle(NewDeck(), rt.rng.Int63())
	deal, err := Deal(deck, cards, len(st.Players))
	if err != nil {
		// Schedule validation at creation makes this unreachable.
		logger.Log.Error("deal failed", zap.String("tableID", st.ID), zap.Error(err))
		rt.finishLocked()
		return
	}
	trump, trumpCard := RevealTrump(deal)
	st.Trump = trump
	st.TrumpCard = trumpCard
	st.Table = st.Table[:0]

	for i, p := range st.Players {
		p.Hand = deal.Hands[i]
		p.Bet = nil
		p.Tricks = 0
		if st.Round == 0 {
			p.CleanInPulka = true
		}
	}

	st.Phase = PhaseBidding
	st.CurrentPlayerIndex = (st.DealerIndex + 1) % len(st.Players)
	rt.beginTurnLocked()
}

func (rt *TableRuntime) applyBidLocked(seat, amount int) error {
	st := rt.state
	if err := ValidateBid(st.bets(), amount, st.CardsPerPlayer, seat, st.DealerIndex); err != nil {
		return err
	}
	bid := amount
	st.Players[seat].Bet = &bid

	if allBetsPlaced(st.bets()) {
		st.Phase = PhasePlaying
		st.CurrentPlayerIndex = (st.DealerIndex + 1) % len(st.Players)
	} else {
		st.CurrentPlayerIndex = (seat + 1) % len(st.Players)
	}
	rt.beginTurnLocked()
	return nil
}

func (rt *TableRuntime) applyPlayLocked(seat int, card Card, opt *JokerOption) error {
	st := rt.state
	p := st.Players[seat]
	if err := ValidatePlay(p.Hand, card, opt, st.Table, st.Trump); err != nil {
		return err
	}

	for i, c := range p.Hand {
		if c == card {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			break
		}
	}
	st.Table = append(st.Table, TableCard{Card: card, PlayerID: p.ID, JokerOption: opt})

	if len(st.Table) < len(st.Players) {
		st.CurrentPlayerIndex = (seat + 1) % len(st.Players)
		rt.beginTurnLocked()
		return nil
	}

	winnerIdx := TrickWinner(st.Table, st.Trump)
	winnerSeat := st.SeatOf(st.Table[winnerIdx].PlayerID)
	st.Players[winnerSeat].Tricks++
	st.Table = st.Table[:0]
	st.CurrentPlayerIndex = winnerSeat

	if len(st.Players[winnerSeat].Hand) == 0 {
		rt.endRoundLocked()
		return nil
	}
	rt.beginTurnLocked()
	return nil
}

func (rt *TableRuntime) endRoundLocked() {
	st := rt.state
	rt.cancelTimerLocked()

	result := RoundResult{
		Pulka:          st.Pulka,
		Round:          st.Round,
		CardsPerPlayer: st.CardsPerPlayer,
		Seats:          make([]SeatResult, len(st.Players)),
	}
	if st.Trump != nil {
		trump := *st.Trump
		result.Trump = &trump
	}
	for i, p := range st.Players {
		bet := 0
		if p.Bet != nil {
			bet = *p.Bet
		}
		score := RoundScore(rt.rules.Scoring, bet, p.Tricks, st.CardsPerPlayer)
		spoiled := Spoiled(bet, p.Tricks)
		result.Seats[i] = SeatResult{Bet: bet, Tricks: p.Tricks, Score: score, Spoiled: spoiled}
		p.TotalScore += score
		if spoiled {
			p.CleanInPulka = false
		}
	}
	st.History = append(st.History, result)

	if rt.rules.Schedule.IsLastRoundOfPulka(st.Pulka, st.Round) {
		rt.applyPulkaPremiumsLocked()
	}

	st.Phase = PhaseRoundEnd
	rt.broadcastStateLocked()

	pulka, round, more := rt.rules.Schedule.Next(st.Pulka, st.Round)
	if !more {
		rt.finishLocked()
		return
	}
	st.Pulka = pulka
	st.Round = round
	st.DealerIndex = (st.DealerIndex + 1) % len(st.Players)

	if rt.rules.RoundEndDelayMs > 0 {
		rt.turnSeq++
		seq := rt.turnSeq
		rt.timer = time.AfterFunc(time.Duration(rt.rules.RoundEndDelayMs)*time.Millisecond, func() {
			rt.onRoundEndDelay(seq)
		})
		return
	}
	rt.startRoundLocked()
}

func (rt *TableRuntime) onRoundEndDelay(seq int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if seq != rt.turnSeq || rt.state.Phase != PhaseRoundEnd {
		return
	}
	rt.startRoundLocked()
	rt.runBotsLocked()
	rt.broadcastStateLocked()
}

// applyPulkaPremiumsLocked folds the clean-player premiums of the pulka that
// just ended into the score sheet.
func (rt *TableRuntime) applyPulkaPremiumsLocked() {
	st := rt.state
	var rounds [][]SeatResult
	for _, rr := range st.History {
		if rr.Pulka == st.Pulka {
			rounds = append(rounds, rr.Seats)
		}
	}
	deltas := PulkaPremiums(rounds, len(st.Players))
	last := &st.History[len(st.History)-1]
	for seat, delta := range deltas {
		if delta == 0 {
			continue
		}
		st.Players[seat].TotalScore += delta
		last.Seats[seat].Premium = delta
	}
}

func (rt *TableRuntime) finishLocked() {
	st := rt.state
	rt.cancelTimerLocked()
	for id, t := range rt.graceTimers {
		t.Stop()
		delete(rt.graceTimers, id)
	}

	now := time.Now()
	st.Phase = PhaseFinished
	st.FinishedAt = &now
	st.WinnerID = rt.winnerLocked()

	logger.Log.Info("table finished",
		zap.String("tableID", st.ID),
		zap.String("winnerID", st.WinnerID),
	)
	rt.broadcastStateLocked()
	if rt.onFinish != nil {
		final := st.Clone()
		go rt.onFinish(final)
	}
}

// winnerLocked picks the highest total score; ties go to the earliest seat in
// score-sheet order, starting left of the dealer.
func (rt *TableRuntime) winnerLocked() string {
	st := rt.state
	n := len(st.Players)
	winner := -1
	for offset := 1; offset <= n; offset++ {
		seat := (st.DealerIndex + offset) % n
		if winner < 0 || st.Players[seat].TotalScore > st.Players[winner].TotalScore {
			winner = seat
		}
	}
	return st.Players[winner].ID
}

func (rt *TableRuntime) beginTurnLocked() {
	st := rt.state
	if st.Phase != PhaseBidding && st.Phase != PhasePlaying {
		return
	}
	rt.cancelTimerLocked()
	rt.turnSeq++
	seq := rt.turnSeq
	st.TurnStartedAt = time.Now()
	timeout := time.Duration(rt.rules.TurnTimeoutMs) * time.Millisecond
	rt.turnDeadline = st.TurnStartedAt.Add(timeout)
	rt.timer = time.AfterFunc(timeout, func() {
		rt.onTurnTimeout(seq)
	})
}

func (rt *TableRuntime) onTurnTimeout(seq int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if seq != rt.turnSeq {
		return
	}
	st := rt.state
	if st.Phase != PhaseBidding && st.Phase != PhasePlaying {
		return
	}

	p := st.Players[st.CurrentPlayerIndex]
	logger.Log.Warn("turn timeout",
		zap.String("tableID", st.ID),
		zap.String("playerID", p.ID),
		zap.String("phase", string(st.Phase)),
	)
	if !p.IsBot && !p.Connected {
		p.ControlledByBot = true
	}
	rt.autoActionLocked()
	rt.runBotsLocked()
	rt.broadcastStateLocked()
}

// autoActionLocked plays the minimal legal action for the current seat.
func (rt *TableRuntime) autoActionLocked() {
	st := rt.state
	seat := st.CurrentPlayerIndex
	switch st.Phase {
	case PhaseBidding:
		bid := LowestLegalBid(st.bets(), st.CardsPerPlayer, seat, st.DealerIndex)
		if err := rt.applyBidLocked(seat, bid); err != nil {
			logger.Log.Error("auto bid rejected", zap.String("tableID", st.ID), zap.Error(err))
		}
	case PhasePlaying:
		card, opt := LowestLegalPlay(st.Players[seat].Hand, st.Table, st.Trump)
		if err := rt.applyPlayLocked(seat, card, opt); err != nil {
			logger.Log.Error("auto play rejected", zap.String("tableID", st.ID), zap.Error(err))
		}
	}
}

// runBotsLocked lets bot-controlled seats act until a human's turn comes up
// or the hand leaves an actionable phase. Iterative so an all-bot table does
// not recurse through a whole game.
func (rt *TableRuntime) runBotsLocked() {
	for {
		st := rt.state
		if st.Phase != PhaseBidding && st.Phase != PhasePlaying {
			return
		}
		p := st.Players[st.CurrentPlayerIndex]
		if !p.IsBot && !p.ControlledByBot {
			return
		}
		rt.autoActionLocked()
	}
}

func (rt *TableRuntime) cancelTimerLocked() {
	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
}

func (rt *TableRuntime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}

func (rt *TableRuntime) pushStateLocked(playerID string) {
	rt.pushMessageLocked(playerID, OutgoingMessage{
		Type: "state",
		Seq:  rt.nextSeqLocked(),
		Data: rt.state.View(playerID, false),
	})
}

func (rt *TableRuntime) broadcastStateLocked() {
	for id := range rt.subscribers {
		rt.pushStateLocked(id)
	}
	if rt.onPublish != nil {
		snapshot := rt.state.Clone()
		go rt.onPublish(snapshot)
	}
}

func (rt *TableRuntime) pushMessageLocked(playerID string, msg OutgoingMessage) {
	ch, ok := rt.subscribers[playerID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		logger.Log.Warn("ws subscriber channel full",
			zap.String("playerID", playerID),
			zap.String("tableID", rt.state.ID),
		)
	}
}
