package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

func (s Suit) Valid() bool {
	switch s {
	case SuitHearts, SuitDiamonds, SuitClubs, SuitSpades:
		return true
	}
	return false
}

func (s Suit) letter() byte {
	switch s {
	case SuitHearts:
		return 'h'
	case SuitDiamonds:
		return 'd'
	case SuitClubs:
		return 'c'
	default:
		return 's'
	}
}

func suitFromLetter(b byte) (Suit, bool) {
	switch b {
	case 'h':
		return SuitHearts, true
	case 'd':
		return SuitDiamonds, true
	case 'c':
		return SuitClubs, true
	case 's':
		return SuitSpades, true
	}
	return "", false
}

type Rank int

const (
	RankTwo   Rank = 2
	RankThree Rank = 3
	RankFour  Rank = 4
	RankFive  Rank = 5
	RankSix   Rank = 6
	RankSeven Rank = 7
	RankEight Rank = 8
	RankNine  Rank = 9
	RankTen   Rank = 10
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
	RankAce   Rank = 14
)

const rankLetters = "23456789TJQKA"

func (r Rank) letter() byte {
	if r < RankTwo || r > RankAce {
		return '?'
	}
	return rankLetters[r-RankTwo]
}

func rankFromLetter(b byte) (Rank, bool) {
	idx := strings.IndexByte(rankLetters, b)
	if idx < 0 {
		return 0, false
	}
	return Rank(idx) + RankTwo, true
}

// JokerCode is the wire code of the single wildcard card.
const JokerCode = "JK"

// Card is an immutable value: either a standard suited card or the joker.
// Wire format is a two-character code, rank then suit ("9h", "As"), or "JK"
// for the joker.
type Card struct {
	Joker bool
	Suit  Suit
	Rank  Rank
}

func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

func NewJoker() Card {
	return Card{Joker: true}
}

func (c Card) Code() string {
	if c.Joker {
		return JokerCode
	}
	return string([]byte{c.Rank.letter(), c.Suit.letter()})
}

func ParseCard(code string) (Card, error) {
	if code == JokerCode {
		return NewJoker(), nil
	}
	if len(code) != 2 {
		return Card{}, fmt.Errorf("invalid card code %q", code)
	}
	rank, ok := rankFromLetter(code[0])
	if !ok {
		return Card{}, fmt.Errorf("invalid card rank in %q", code)
	}
	suit, ok := suitFromLetter(code[1])
	if !ok {
		return Card{}, fmt.Errorf("invalid card suit in %q", code)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Code())
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	parsed, err := ParseCard(code)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Card) String() string {
	return c.Code()
}
