package game

import (
	appErr "joker-service/pkg/errors"
)

// Schedule lays out the session as pulkas of round lengths. The classic
// layout is {1..8}, {9,9,9,9}, {8..1}, {9,9,9,9} for four seats.
type Schedule [][]int

// DefaultSchedule returns the classic four-pulka layout for the given seat
// count, scaled so every round fits the deck.
func DefaultSchedule(seats int) Schedule {
	maxLen := (DeckSize - 1) / seats
	up := make([]int, 0, maxLen-1)
	for n := 1; n < maxLen; n++ {
		up = append(up, n)
	}
	down := make([]int, 0, maxLen-1)
	for n := maxLen - 1; n >= 1; n-- {
		down = append(down, n)
	}
	flat := make([]int, seats)
	for i := range flat {
		flat[i] = maxLen
	}
	return Schedule{up, flat, down, append([]int(nil), flat...)}
}

// Validate rejects schedules a session could not play: empty pulkas, round
// lengths below one, or rounds that need more cards than the deck holds.
func (s Schedule) Validate(seats int) error {
	if len(s) == 0 {
		return appErr.ErrInvalidSchedule
	}
	for _, pulka := range s {
		if len(pulka) == 0 {
			return appErr.ErrInvalidSchedule
		}
		for _, length := range pulka {
			if length < 1 || length*seats > DeckSize {
				return appErr.ErrInvalidSchedule
			}
		}
	}
	return nil
}

// CardsFor returns the round length at the given position, or false when the
// position is past the end of the schedule.
func (s Schedule) CardsFor(pulka, round int) (int, bool) {
	if pulka < 0 || pulka >= len(s) {
		return 0, false
	}
	if round < 0 || round >= len(s[pulka]) {
		return 0, false
	}
	return s[pulka][round], true
}

// Next advances the (pulka, round) cursor, reporting false once the schedule
// is exhausted.
func (s Schedule) Next(pulka, round int) (int, int, bool) {
	if round+1 < len(s[pulka]) {
		return pulka, round + 1, true
	}
	if pulka+1 < len(s) {
		return pulka + 1, 0, true
	}
	return pulka, round, false
}

// IsLastRoundOfPulka reports whether the position ends its pulka.
func (s Schedule) IsLastRoundOfPulka(pulka, round int) bool {
	return pulka >= 0 && pulka < len(s) && round == len(s[pulka])-1
}

// TotalRounds counts every round across all pulkas.
func (s Schedule) TotalRounds() int {
	total := 0
	for _, pulka := range s {
		total += len(pulka)
	}
	return total
}
