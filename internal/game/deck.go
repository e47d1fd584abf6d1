// internal/game/deck.go
package game

import (
	"math/rand/v2"

	"github.com/jason-s-yu/duo/internal/models"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 108

// BuildDeck returns the full unshuffled deck with ids 0..107 in construction order.
// Per color: one 0, two each of 1-9, two each of SKIP, REVERSE and DRAW_TWO.
// Then four WILD and four WILD_DRAW_FOUR, interleaved.
func BuildDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	add := func(color models.Color, rank models.Rank) {
		deck = append(deck, models.Card{ID: len(deck), Color: color, Rank: rank})
	}

	for _, color := range models.Colors {
		add(color, models.NumberRank(0))
		for n := 1; n <= 9; n++ {
			add(color, models.NumberRank(n))
			add(color, models.NumberRank(n))
		}
		for _, rank := range []models.Rank{models.RankSkip, models.RankReverse, models.RankDrawTwo} {
			add(color, rank)
			add(color, rank)
		}
	}
	for i := 0; i < 4; i++ {
		add(models.ColorWild, models.RankWild)
		add(models.ColorWild, models.RankWildDrawFour)
	}
	return deck
}

// Shuffle returns a Fisher-Yates permutation of cards. The input slice is not modified.
func Shuffle(cards []models.Card, r *rand.Rand) []models.Card {
	out := make([]models.Card, len(cards))
	copy(out, cards)
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// ReshuffleDiscard turns every discard except the top card into a freshly shuffled
// draw pile. The returned discard pile holds only the former top card.
// With one card or fewer there is nothing to recycle: draw is empty and the
// discard pile is returned unchanged.
func ReshuffleDiscard(discard []models.Card, r *rand.Rand) (draw, rest []models.Card) {
	if len(discard) <= 1 {
		return []models.Card{}, discard
	}
	top := discard[len(discard)-1]
	draw = Shuffle(discard[:len(discard)-1], r)
	return draw, []models.Card{top}
}

// newRand derives a deterministic source from a session seed and stream number.
func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}
