package game_test

import (
	"errors"
	"testing"

	"joker-service/internal/service/game"
	appErr "joker-service/pkg/errors"
)

func card(t *testing.T, code string) game.Card {
	t.Helper()
	c, err := game.ParseCard(code)
	if err != nil {
		t.Fatalf("bad card code %q: %v", code, err)
	}
	return c
}

func suitp(s game.Suit) *game.Suit { return &s }

func TestValidatePlayFollowSuit(t *testing.T) {
	hand := []game.Card{card(t, "9h"), card(t, "2s")}
	table := []game.TableCard{{Card: card(t, "5h"), PlayerID: "a"}}

	if err := game.ValidatePlay(hand, card(t, "2s"), nil, table, nil); !errors.Is(err, appErr.ErrMustFollowSuit) {
		t.Fatalf("expected ErrMustFollowSuit, got %v", err)
	}
	if err := game.ValidatePlay(hand, card(t, "9h"), nil, table, nil); err != nil {
		t.Fatalf("following suit should be legal, got %v", err)
	}
	if err := game.ValidatePlay(hand, card(t, "Ad"), nil, table, nil); !errors.Is(err, appErr.ErrCardNotInHand) {
		t.Fatalf("expected ErrCardNotInHand, got %v", err)
	}
}

func TestValidatePlayVoidInLeadSuit(t *testing.T) {
	hand := []game.Card{card(t, "2s"), card(t, "3c")}
	table := []game.TableCard{{Card: card(t, "5h"), PlayerID: "a"}}

	if err := game.ValidatePlay(hand, card(t, "2s"), nil, table, nil); err != nil {
		t.Fatalf("void in lead suit may discard, got %v", err)
	}
}

func TestValidatePlayJokerDeclaration(t *testing.T) {
	joker := game.NewJoker()
	hand := []game.Card{joker, card(t, "9h")}
	table := []game.TableCard{{Card: card(t, "5h"), PlayerID: "a"}}

	if err := game.ValidatePlay(hand, joker, nil, table, nil); !errors.Is(err, appErr.ErrInvalidJokerDeclaration) {
		t.Fatalf("joker without declaration must fail, got %v", err)
	}

	// Holding the lead suit, the declaration must name it.
	wrong := &game.JokerOption{Suit: game.SuitSpades, Mode: game.JokerModeHigh}
	if err := game.ValidatePlay(hand, joker, wrong, table, nil); !errors.Is(err, appErr.ErrInvalidJokerDeclaration) {
		t.Fatalf("joker declaring off-lead suit while holding lead must fail, got %v", err)
	}

	right := &game.JokerOption{Suit: game.SuitHearts, Mode: game.JokerModeHigh}
	if err := game.ValidatePlay(hand, joker, right, table, nil); err != nil {
		t.Fatalf("joker declaring lead suit should be legal, got %v", err)
	}

	// Void in the lead suit, any declared suit goes.
	voidHand := []game.Card{joker, card(t, "2c")}
	if err := game.ValidatePlay(voidHand, joker, wrong, table, nil); err != nil {
		t.Fatalf("void joker declaration should be legal, got %v", err)
	}

	// A standard card must not carry a declaration.
	if err := game.ValidatePlay(hand, card(t, "9h"), right, table, nil); !errors.Is(err, appErr.ErrInvalidJokerDeclaration) {
		t.Fatalf("declaration on standard card must fail, got %v", err)
	}
}

func TestTrickWinnerHighestLeadWins(t *testing.T) {
	table := []game.TableCard{
		{Card: card(t, "5h"), PlayerID: "a"},
		{Card: card(t, "Kh"), PlayerID: "b"},
		{Card: card(t, "As"), PlayerID: "c"}, // off-suit ace counts for nothing
		{Card: card(t, "9h"), PlayerID: "d"},
	}
	if got := game.TrickWinner(table, nil); got != 1 {
		t.Fatalf("expected seat 1 (Kh) to win, got %d", got)
	}
}

func TestTrickWinnerTrumpBeatsLead(t *testing.T) {
	table := []game.TableCard{
		{Card: card(t, "Ah"), PlayerID: "a"},
		{Card: card(t, "2s"), PlayerID: "b"},
		{Card: card(t, "Kh"), PlayerID: "c"},
		{Card: card(t, "3s"), PlayerID: "d"},
	}
	if got := game.TrickWinner(table, suitp(game.SuitSpades)); got != 3 {
		t.Fatalf("expected highest trump (3s) to win, got %d", got)
	}
}

func TestTrickWinnerTrumpModeJokerBeatsAll(t *testing.T) {
	table := []game.TableCard{
		{Card: card(t, "Ah"), PlayerID: "a"},
		{Card: card(t, "As"), PlayerID: "b"},
		{Card: game.NewJoker(), PlayerID: "c", JokerOption: &game.JokerOption{Suit: game.SuitSpades, Mode: game.JokerModeTrump}},
		{Card: card(t, "Ks"), PlayerID: "d"},
	}
	if got := game.TrickWinner(table, suitp(game.SuitSpades)); got != 2 {
		t.Fatalf("expected TRUMP-mode joker to win over ace of trump, got %d", got)
	}
}

func TestTrickWinnerHighJokerInTrumpSuitIsTopTrump(t *testing.T) {
	table := []game.TableCard{
		{Card: card(t, "As"), PlayerID: "a"},
		{Card: game.NewJoker(), PlayerID: "b", JokerOption: &game.JokerOption{Suit: game.SuitSpades, Mode: game.JokerModeHigh}},
		{Card: card(t, "Ks"), PlayerID: "c"},
		{Card: card(t, "2h"), PlayerID: "d"},
	}
	if got := game.TrickWinner(table, suitp(game.SuitSpades)); got != 1 {
		t.Fatalf("expected HIGH joker in trump suit to win, got %d", got)
	}
}

func TestTrickWinnerHighJokerOnLeadWithoutTrump(t *testing.T) {
	table := []game.TableCard{
		{Card: card(t, "Ah"), PlayerID: "a"},
		{Card: game.NewJoker(), PlayerID: "b", JokerOption: &game.JokerOption{Suit: game.SuitHearts, Mode: game.JokerModeHigh}},
		{Card: card(t, "Kh"), PlayerID: "c"},
		{Card: card(t, "Qh"), PlayerID: "d"},
	}
	if got := game.TrickWinner(table, nil); got != 1 {
		t.Fatalf("expected HIGH joker on lead suit to win, got %d", got)
	}
}

func TestTrickWinnerJokerLeadSetsLeadSuit(t *testing.T) {
	table := []game.TableCard{
		{Card: game.NewJoker(), PlayerID: "a", JokerOption: &game.JokerOption{Suit: game.SuitClubs, Mode: game.JokerModeHigh}},
		{Card: card(t, "Ac"), PlayerID: "b"},
		{Card: card(t, "2c"), PlayerID: "c"},
		{Card: card(t, "Ad"), PlayerID: "d"},
	}
	lead, ok := game.LeadSuit(table)
	if !ok || lead != game.SuitClubs {
		t.Fatalf("expected clubs lead from joker declaration, got %v", lead)
	}
	if got := game.TrickWinner(table, nil); got != 0 {
		t.Fatalf("expected leading HIGH joker to win its declared suit, got %d", got)
	}
}

func TestLowestLegalPlayFollowsSuit(t *testing.T) {
	hand := []game.Card{card(t, "Kh"), card(t, "3h"), card(t, "2s")}
	table := []game.TableCard{{Card: card(t, "5h"), PlayerID: "a"}}

	got, opt := game.LowestLegalPlay(hand, table, nil)
	if opt != nil {
		t.Fatalf("expected no joker option, got %v", opt)
	}
	if got != card(t, "3h") {
		t.Fatalf("expected lowest heart 3h, got %v", got)
	}
}

func TestLowestLegalPlayJokerLastResort(t *testing.T) {
	hand := []game.Card{game.NewJoker()}
	table := []game.TableCard{{Card: card(t, "5h"), PlayerID: "a"}}

	got, opt := game.LowestLegalPlay(hand, table, suitp(game.SuitSpades))
	if !got.Joker {
		t.Fatalf("expected forced joker, got %v", got)
	}
	if opt == nil || opt.Suit != game.SuitHearts || opt.Mode != game.JokerModeHigh {
		t.Fatalf("expected HIGH declaration on lead suit, got %v", opt)
	}

	if err := game.ValidatePlay(hand, got, opt, table, suitp(game.SuitSpades)); err != nil {
		t.Fatalf("auto-picked play must validate, got %v", err)
	}
}
