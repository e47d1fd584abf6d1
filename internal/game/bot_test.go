package game

import (
	"testing"

	"github.com/jason-s-yu/duo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickCardPrefersNonWild(t *testing.T) {
	top := card(100, models.ColorRed, models.NumberRank(4))
	hand := []models.Card{
		card(1, models.ColorWild, models.RankWild),
		card(2, models.ColorBlue, models.NumberRank(9)),
		card(3, models.ColorRed, models.NumberRank(1)),
	}
	c, ok := PickCard(hand, top, models.ColorRed)
	require.True(t, ok)
	assert.Equal(t, 3, c.ID)

	c, ok = PickCard(hand[:2], top, models.ColorRed)
	require.True(t, ok)
	assert.Equal(t, 1, c.ID, "falls back to the wild")

	_, ok = PickCard(hand[1:2], top, models.ColorRed)
	assert.False(t, ok)
}

func TestPickColor(t *testing.T) {
	hand := []models.Card{
		card(1, models.ColorWild, models.RankWildDrawFour),
		card(2, models.ColorBlue, models.NumberRank(9)),
		card(3, models.ColorGreen, models.NumberRank(1)),
		card(4, models.ColorGreen, models.RankSkip),
	}
	assert.Equal(t, models.ColorGreen, PickColor(hand, newRand(1, 1)))

	tie := []models.Card{card(2, models.ColorBlue, models.NumberRank(9)), card(5, models.ColorYellow, models.NumberRank(2))}
	assert.Equal(t, models.ColorYellow, PickColor(tie, newRand(1, 1)), "ties follow deck color order")

	onlyWild := PickColor([]models.Card{card(1, models.ColorWild, models.RankWild)}, newRand(1, 1))
	assert.True(t, onlyWild.Valid())
}

func TestNextBotAction(t *testing.T) {
	s := craftSession(
		[]models.Card{card(1, models.ColorBlue, models.NumberRank(7))},
		[]models.Card{card(3, models.ColorRed, models.NumberRank(2))},
		nil,
		card(5, models.ColorRed, models.NumberRank(3)),
	)
	r := newRand(1, 1)

	a, ok := NextBotAction(s, 0, r)
	require.True(t, ok)
	assert.Equal(t, DrawCard{}, a)

	_, ok = NextBotAction(s, 1, r)
	assert.False(t, ok, "not seat 1's turn")

	s.CurrentPlayerIndex = 1
	a, ok = NextBotAction(s, 1, r)
	require.True(t, ok)
	assert.Equal(t, PlayCard{Card: card(3, models.ColorRed, models.NumberRank(2))}, a)

	s.CurrentPlayerIndex = 0
	s.AwaitingColor = true
	a, ok = NextBotAction(s, 0, r)
	require.True(t, ok)
	assert.Equal(t, ChooseColor{Color: models.ColorBlue}, a)
}
