// Package poker implements the three-card poker table: a timed betting
// round shared by all players, a dealt player hand versus a dealer hand,
// and multiplier payouts by hand category.
package poker

import (
	"math/rand"
	"strings"
)

// Rank values run 2..14 with aces high; the ace-low straight is handled
// in evaluation.
const (
	RankJack  = 11
	RankQueen = 12
	RankKing  = 13
	RankAce   = 14
)

// Suit identifies one of the four suits.
type Suit int

// Suits.
const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

var suitSymbols = [...]string{"♠", "♥", "♦", "♣"}

// Card is one playing card with a rank in 2..14.
type Card struct {
	Rank int
	Suit Suit
}

// String renders a card like "10♠" or "A♥".
func (c Card) String() string {
	return rankSymbol(c.Rank) + suitSymbols[c.Suit]
}

func rankSymbol(rank int) string {
	switch rank {
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	case RankAce:
		return "A"
	default:
		return itoa(rank)
	}
}

func itoa(n int) string {
	if n == 10 {
		return "10"
	}
	return string(rune('0' + n))
}

// Hand is exactly three cards.
type Hand [3]Card

// String renders a hand like "A♠ 3♥ K♦".
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// NewDeck returns a fresh 52-card deck, no jokers.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := 2; rank <= RankAce; rank++ {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}
	return deck
}

// DealHands draws two disjoint three-card hands without replacement from
// a fresh deck.
func DealHands() (player, dealer Hand) {
	deck := NewDeck()
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	copy(player[:], deck[:3])
	copy(dealer[:], deck[3:6])
	return player, dealer
}
