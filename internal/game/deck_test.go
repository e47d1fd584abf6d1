package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jason-s-yu/duo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeckComposition(t *testing.T) {
	deck := BuildDeck()
	require.Len(t, deck, DeckSize)

	ids := make(map[int]bool)
	type key struct {
		color models.Color
		rank  models.Rank
	}
	counts := make(map[key]int)
	for i, c := range deck {
		assert.Equal(t, i, c.ID, "ids should be sequential")
		ids[c.ID] = true
		counts[key{c.Color, c.Rank}]++
	}
	assert.Len(t, ids, DeckSize)

	for _, color := range models.Colors {
		assert.Equal(t, 1, counts[key{color, models.NumberRank(0)}], "one zero per color")
		for n := 1; n <= 9; n++ {
			assert.Equal(t, 2, counts[key{color, models.NumberRank(n)}])
		}
		assert.Equal(t, 2, counts[key{color, models.RankSkip}])
		assert.Equal(t, 2, counts[key{color, models.RankReverse}])
		assert.Equal(t, 2, counts[key{color, models.RankDrawTwo}])
	}
	assert.Equal(t, 4, counts[key{models.ColorWild, models.RankWild}])
	assert.Equal(t, 4, counts[key{models.ColorWild, models.RankWildDrawFour}])

	// Wilds come last, alternating.
	assert.Equal(t, models.RankWild, deck[100].Rank)
	assert.Equal(t, models.RankWildDrawFour, deck[101].Rank)
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	deck := BuildDeck()
	orig := BuildDeck()

	shuffled := Shuffle(deck, newRand(42, 1))
	assert.Empty(t, cmp.Diff(orig, deck), "input must be untouched")
	assert.NotEmpty(t, cmp.Diff(orig, shuffled), "a 108 card shuffle should move something")

	assert.ElementsMatch(t, orig, shuffled)
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	a := Shuffle(BuildDeck(), newRand(7, 1))
	b := Shuffle(BuildDeck(), newRand(7, 1))
	c := Shuffle(BuildDeck(), newRand(7, 2))
	assert.Empty(t, cmp.Diff(a, b))
	assert.NotEmpty(t, cmp.Diff(a, c))
}

// TestShuffleUniformity checks where card 0 lands over many shuffles with a
// chi-square goodness of fit against the uniform distribution.
func TestShuffleUniformity(t *testing.T) {
	if testing.Short() {
		t.Skip("slow statistical test")
	}
	const trials = 20000
	deck := BuildDeck()
	r := newRand(2024, 99)

	var positions [DeckSize]int
	for i := 0; i < trials; i++ {
		out := Shuffle(deck, r)
		for pos, c := range out {
			if c.ID == 0 {
				positions[pos]++
				break
			}
		}
	}

	expected := float64(trials) / DeckSize
	chi2 := 0.0
	for _, obs := range positions {
		d := float64(obs) - expected
		chi2 += d * d / expected
	}
	// 107 degrees of freedom; 157.0 is roughly the p=0.001 critical value.
	assert.Less(t, chi2, 157.0)
}

func TestReshuffleDiscard(t *testing.T) {
	t.Run("keeps top card", func(t *testing.T) {
		discard := BuildDeck()[:10]
		draw, rest := ReshuffleDiscard(discard, newRand(1, 1))

		require.Len(t, rest, 1)
		assert.Equal(t, discard[9], rest[0])
		assert.Len(t, draw, 9)
		assert.ElementsMatch(t, discard[:9], draw)
	})

	t.Run("single card is a no-op", func(t *testing.T) {
		discard := BuildDeck()[:1]
		draw, rest := ReshuffleDiscard(discard, newRand(1, 1))
		assert.Empty(t, draw)
		assert.Equal(t, discard, rest)
	})

	t.Run("empty pile", func(t *testing.T) {
		draw, rest := ReshuffleDiscard(nil, newRand(1, 1))
		assert.Empty(t, draw)
		assert.Empty(t, rest)
	})
}
