package game

// ScoreConstants holds the per-round scoring parameters. Rule presets may
// override them; DefaultScoreConstants matches the classic table.
type ScoreConstants struct {
	MadeBetPerTrick int `json:"madeBetPerTrick"`
	TookAllPerTrick int `json:"tookAllPerTrick"`
	MissPerTrick    int `json:"missPerTrick"`
	Shtanga         int `json:"shtanga"`
	PassBonus       int `json:"passBonus"`
}

func DefaultScoreConstants() ScoreConstants {
	return ScoreConstants{
		MadeBetPerTrick: 50,
		TookAllPerTrick: 100,
		MissPerTrick:    10,
		Shtanga:         -200,
		PassBonus:       50,
	}
}

// Spoiled reports whether a seat missed its bet.
func Spoiled(bet, tricks int) bool {
	return bet != tricks
}

// RoundScore computes one seat's delta for a finished round.
func RoundScore(c ScoreConstants, bet, tricks, cardsPerPlayer int) int {
	if bet == tricks {
		switch {
		case bet == 0:
			return c.PassBonus
		case bet == cardsPerPlayer:
			return c.TookAllPerTrick * cardsPerPlayer
		default:
			return c.MadeBetPerTrick * bet
		}
	}
	if bet > 0 && tricks == 0 {
		return c.Shtanga
	}
	return c.MissPerTrick * tricks
}

// SeatResult records one seat's outcome for one round of the score sheet.
type SeatResult struct {
	Bet     int  `json:"bet"`
	Tricks  int  `json:"tricks"`
	Score   int  `json:"score"`
	Spoiled bool `json:"spoiled"`
	Premium int  `json:"premium,omitempty"`
}

// PulkaPremiums settles the premium for seats that stayed clean through the
// whole pulka. The premium is the single highest round score of the pulka,
// last round excluded; a one-round pulka therefore carries none. A clean
// seat receives it only when the previous seat is not clean (a clean
// neighbor already tried to charge it), and charges it to the immediate next
// seat only when that seat is not clean. With a run of adjacent clean seats,
// the first receives and the last charges. rounds is indexed [round][seat];
// returned deltas are indexed by seat.
func PulkaPremiums(rounds [][]SeatResult, seats int) []int {
	deltas := make([]int, seats)
	if len(rounds) == 0 {
		return deltas
	}

	clean := make([]bool, seats)
	for seat := 0; seat < seats; seat++ {
		clean[seat] = true
		for _, round := range rounds {
			if round[seat].Spoiled {
				clean[seat] = false
				break
			}
		}
	}

	premium := 0
	for _, round := range rounds[:len(rounds)-1] {
		for _, sr := range round {
			if sr.Score > premium {
				premium = sr.Score
			}
		}
	}
	if premium == 0 {
		return deltas
	}

	for seat := 0; seat < seats; seat++ {
		if !clean[seat] {
			continue
		}
		prev := (seat - 1 + seats) % seats
		next := (seat + 1) % seats
		if !clean[prev] {
			deltas[seat] += premium
		}
		if !clean[next] {
			deltas[next] -= premium
		}
	}
	return deltas
}
