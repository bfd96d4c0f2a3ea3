package game

import (
	appErr "joker-service/pkg/errors"
)

type JokerMode string

const (
	// JokerModeHigh plays the joker as the highest card of its declared suit.
	JokerModeHigh JokerMode = "high"
	// JokerModeTrump plays the joker above every non-joker trump card.
	JokerModeTrump JokerMode = "trump"
)

func (m JokerMode) Valid() bool {
	return m == JokerModeHigh || m == JokerModeTrump
}

// JokerOption declares which suit the joker impersonates for one play and
// whether it is played as highest-of-suit or as a trump-beater.
type JokerOption struct {
	Suit Suit      `json:"suit"`
	Mode JokerMode `json:"mode"`
}

// TableCard is one played card in the current trick.
type TableCard struct {
	Card        Card         `json:"card"`
	PlayerID    string       `json:"playerId"`
	JokerOption *JokerOption `json:"jokerOption,omitempty"`
}

// LeadSuit is the suit the trick's followers must honor. A joker lead sets
// it to the declared suit.
func LeadSuit(table []TableCard) (Suit, bool) {
	if len(table) == 0 {
		return "", false
	}
	lead := table[0]
	if lead.Card.Joker {
		if lead.JokerOption == nil {
			return "", false
		}
		return lead.JokerOption.Suit, true
	}
	return lead.Card.Suit, true
}

func handHasSuit(hand []Card, suit Suit) bool {
	for _, c := range hand {
		if !c.Joker && c.Suit == suit {
			return true
		}
	}
	return false
}

func handContains(hand []Card, card Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}

// ValidatePlay checks one card against follow-suit rules and, for the joker,
// its declaration. The state is never mutated on failure.
func ValidatePlay(hand []Card, card Card, opt *JokerOption, table []TableCard, trump *Suit) error {
	if !handContains(hand, card) {
		return appErr.ErrCardNotInHand
	}

	if card.Joker {
		if opt == nil || !opt.Mode.Valid() || !opt.Suit.Valid() {
			return appErr.ErrInvalidJokerDeclaration
		}
		// A follower holding the lead suit may still throw the joker, but
		// the declaration must name the lead suit.
		if lead, ok := LeadSuit(table); ok && handHasSuit(hand, lead) && opt.Suit != lead {
			return appErr.ErrInvalidJokerDeclaration
		}
		return nil
	}

	if opt != nil {
		return appErr.ErrInvalidJokerDeclaration
	}
	if lead, ok := LeadSuit(table); ok {
		if card.Suit != lead && handHasSuit(hand, lead) {
			return appErr.ErrMustFollowSuit
		}
	}
	return nil
}

// TrickWinner returns the index in table of the winning card.
//
// Precedence: a joker declared in trump mode beats everything; a joker
// declared high in the trump suit is the top trump; otherwise the highest
// trump-suited card wins; otherwise a joker declared high in the lead suit;
// otherwise the highest card of the lead suit. Ties are impossible since
// every card is unique.
func TrickWinner(table []TableCard, trump *Suit) int {
	winner := -1
	for i, tc := range table {
		if tc.Card.Joker && tc.JokerOption != nil && tc.JokerOption.Mode == JokerModeTrump {
			winner = i
		}
	}
	if winner >= 0 {
		return winner
	}

	if trump != nil {
		for i, tc := range table {
			if tc.Card.Joker && tc.JokerOption != nil &&
				tc.JokerOption.Mode == JokerModeHigh && tc.JokerOption.Suit == *trump {
				return i
			}
		}
		best := -1
		for i, tc := range table {
			if tc.Card.Joker || tc.Card.Suit != *trump {
				continue
			}
			if best < 0 || tc.Card.Rank > table[best].Card.Rank {
				best = i
			}
		}
		if best >= 0 {
			return best
		}
	}

	lead, ok := LeadSuit(table)
	if !ok {
		return 0
	}
	for i, tc := range table {
		if tc.Card.Joker && tc.JokerOption != nil &&
			tc.JokerOption.Mode == JokerModeHigh && tc.JokerOption.Suit == lead {
			return i
		}
	}
	best := 0
	bestRank := Rank(-1)
	for i, tc := range table {
		if tc.Card.Joker || tc.Card.Suit != lead {
			continue
		}
		if tc.Card.Rank > bestRank {
			bestRank = tc.Card.Rank
			best = i
		}
	}
	return best
}

// LowestLegalPlay picks the auto-action card: the lowest-ranked legal card,
// with the joker as a last resort. Always succeeds for a non-empty hand.
func LowestLegalPlay(hand []Card, table []TableCard, trump *Suit) (Card, *JokerOption) {
	lead, following := LeadSuit(table)

	pickLowest := func(suit Suit, restrict bool) (Card, bool) {
		var best Card
		found := false
		for _, c := range hand {
			if c.Joker {
				continue
			}
			if restrict && c.Suit != suit {
				continue
			}
			if !found || c.Rank < best.Rank {
				best = c
				found = true
			}
		}
		return best, found
	}

	if following && handHasSuit(hand, lead) {
		card, _ := pickLowest(lead, true)
		return card, nil
	}
	if card, ok := pickLowest("", false); ok {
		return card, nil
	}

	// Only the joker left. Declare the lead suit when following, otherwise
	// lean on the trump, falling back to hearts.
	declared := SuitHearts
	if following {
		declared = lead
	} else if trump != nil {
		declared = *trump
	}
	return NewJoker(), &JokerOption{Suit: declared, Mode: JokerModeHigh}
}
