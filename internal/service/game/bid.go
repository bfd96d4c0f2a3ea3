package game

import (
	appErr "joker-service/pkg/errors"
)

// The dealer bids last. Its bid may not bring the total to exactly
// cardsPerPlayer, which guarantees at least one player misses their bid
// every round.

func sumBets(bets []*int) int {
	total := 0
	for _, bet := range bets {
		if bet != nil {
			total += *bet
		}
	}
	return total
}

// ForbiddenBid returns the value the given seat may not bid, if any.
// Only the dealer is ever constrained.
func ForbiddenBid(bets []*int, cardsPerPlayer, seatIndex, dealerIndex int) (int, bool) {
	if seatIndex != dealerIndex {
		return 0, false
	}
	forbidden := cardsPerPlayer - sumBets(bets)
	if forbidden < 0 || forbidden > cardsPerPlayer {
		return 0, false
	}
	return forbidden, true
}

// ValidateBid checks range and the no-matching-total constraint for one bid.
func ValidateBid(bets []*int, bid, cardsPerPlayer, seatIndex, dealerIndex int) error {
	if bid < 0 || bid > cardsPerPlayer {
		return appErr.ErrInvalidBid
	}
	if forbidden, ok := ForbiddenBid(bets, cardsPerPlayer, seatIndex, dealerIndex); ok && bid == forbidden {
		return appErr.ErrForbiddenBid
	}
	return nil
}

// LowestLegalBid is the auto-action bid: 0, or the lowest value that honors
// the dealer constraint. Always succeeds since at most one value in
// [0, cardsPerPlayer] is forbidden.
func LowestLegalBid(bets []*int, cardsPerPlayer, seatIndex, dealerIndex int) int {
	for bid := 0; bid <= cardsPerPlayer; bid++ {
		if ValidateBid(bets, bid, cardsPerPlayer, seatIndex, dealerIndex) == nil {
			return bid
		}
	}
	return 0
}

func allBetsPlaced(bets []*int) bool {
	for _, bet := range bets {
		if bet == nil {
			return false
		}
	}
	return true
}
