package game

import (
	"testing"

	"github.com/jason-s-yu/duo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewForHidesOpponentHand(t *testing.T) {
	s := craftSession(
		[]models.Card{card(1, models.ColorRed, models.NumberRank(7)), card(2, models.ColorBlue, models.NumberRank(1))},
		[]models.Card{card(3, models.ColorGreen, models.NumberRank(2)), card(4, models.ColorGreen, models.NumberRank(3)), card(6, models.ColorYellow, models.NumberRank(3))},
		[]models.Card{card(7, models.ColorGreen, models.NumberRank(9))},
		card(5, models.ColorRed, models.NumberRank(3)),
	)
	s.UnoCalled = []string{"player2"}

	v := ViewFor(s, 0)
	assert.Equal(t, 0, v.Seat)
	assert.Len(t, v.Hand, 2)
	assert.True(t, v.MyTurn)
	assert.Equal(t, []int{1}, v.Playable)
	assert.Equal(t, 3, v.Opponent.HandSize)
	assert.Equal(t, "Bob", v.Opponent.Name)
	assert.True(t, v.Opponent.CalledUno)
	assert.False(t, v.CalledUno)
	require.NotNil(t, v.DiscardTop)
	assert.Equal(t, 5, v.DiscardTop.ID)
	assert.Equal(t, 1, v.DrawPileSize)

	g := ViewFor(s, 1)
	assert.False(t, g.MyTurn)
	assert.True(t, g.Opponent.IsThisTurn)
	assert.Empty(t, g.Playable, "nothing is playable off turn")
	assert.Equal(t, 2, g.Opponent.HandSize)

	// The view owns its hand slice.
	v.Hand[0] = models.Card{}
	assert.Equal(t, 1, s.Players[0].Hand[0].ID)
}

func TestViewForFinished(t *testing.T) {
	s := craftSession(nil, []models.Card{card(3, models.ColorGreen, models.NumberRank(2))}, nil, card(5, models.ColorRed, models.NumberRank(3)))
	s.Phase = PhaseFinished
	s.Winner = "player1"

	v := ViewFor(s, 1)
	assert.True(t, v.Finished)
	assert.False(t, v.MyTurn)
	assert.Equal(t, "Alice", v.Winner)
}
