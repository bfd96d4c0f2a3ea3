package game

import (
	mrand "math/rand"

	appErr "joker-service/pkg/errors"
)

// DeckSize is 52 standard cards plus the single joker.
const DeckSize = 53

// NewDeck returns the full deck in deterministic order: suits in declaration
// order, ranks ascending, joker last.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for rank := RankTwo; rank <= RankAce; rank++ {
			deck = append(deck, NewCard(suit, rank))
		}
	}
	deck = append(deck, NewJoker())
	return deck
}

// Shuffle returns a reproducible permutation of deck for the given seed.
// The input slice is not modified.
func Shuffle(deck []Card, seed int64) []Card {
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)
	rng := mrand.New(mrand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

type DealResult struct {
	Hands     [][]Card
	Remainder []Card
}

// Deal distributes contiguous slices of the deck in seat order and returns
// the undealt remainder. Hands are fresh slices; the deck is not retained.
func Deal(deck []Card, cardsPerPlayer, seats int) (DealResult, error) {
	if cardsPerPlayer <= 0 || seats <= 0 {
		return DealResult{}, appErr.ErrInsufficientCards
	}
	need := cardsPerPlayer * seats
	if need > len(deck) {
		return DealResult{}, appErr.ErrInsufficientCards
	}

	hands := make([][]Card, seats)
	for seat := 0; seat < seats; seat++ {
		hand := make([]Card, cardsPerPlayer)
		copy(hand, deck[seat*cardsPerPlayer:(seat+1)*cardsPerPlayer])
		hands[seat] = hand
	}

	remainder := make([]Card, len(deck)-need)
	copy(remainder, deck[need:])

	return DealResult{Hands: hands, Remainder: remainder}, nil
}

// RevealTrump picks the trump for a round: the top of the remainder, or the
// last dealt card when the whole deck went out. A joker reveal means the
// round is played without trump.
func RevealTrump(result DealResult) (*Suit, *Card) {
	var reveal Card
	if len(result.Remainder) > 0 {
		reveal = result.Remainder[0]
	} else {
		lastHand := result.Hands[len(result.Hands)-1]
		reveal = lastHand[len(lastHand)-1]
	}

	card := reveal
	if reveal.Joker {
		return nil, &card
	}
	suit := reveal.Suit
	return &suit, &card
}
