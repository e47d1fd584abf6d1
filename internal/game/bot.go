package game

import (
	"math/rand/v2"

	"github.com/jason-s-yu/duo/internal/models"
)

// PickCard picks a card for an automated seat: the first legal non-wild card,
// else the first wild, else false.
func PickCard(hand []models.Card, top models.Card, activeColor models.Color) (models.Card, bool) {
	var wild *models.Card
	for i, c := range hand {
		if !IsLegal(c, top, activeColor) {
			continue
		}
		if !c.IsWild() {
			return c, true
		}
		if wild == nil {
			wild = &hand[i]
		}
	}
	if wild != nil {
		return *wild, true
	}
	return models.Card{}, false
}

// PickColor returns the most common non-wild color in hand. Ties go to the color
// listed first in models.Colors; a hand with no colored cards gets a random color.
func PickColor(hand []models.Card, r *rand.Rand) models.Color {
	counts := make(map[models.Color]int, len(models.Colors))
	for _, c := range hand {
		if c.Color != models.ColorWild {
			counts[c.Color]++
		}
	}
	best, bestN := models.Color(""), 0
	for _, color := range models.Colors {
		if counts[color] > bestN {
			best, bestN = color, counts[color]
		}
	}
	if bestN == 0 {
		return models.Colors[r.IntN(len(models.Colors))]
	}
	return best
}

// NextBotAction returns the action an automated player would take in seat, or
// false when it is not that seat's move.
func NextBotAction(s Session, seat int, r *rand.Rand) (Action, bool) {
	if s.Phase != PhaseInProgress || s.CurrentPlayerIndex != seat {
		return nil, false
	}
	hand := s.Players[seat].Hand
	if s.AwaitingColor {
		return ChooseColor{Color: PickColor(hand, r)}, true
	}
	top, _ := s.Top()
	if c, ok := PickCard(hand, top, s.ActiveColor); ok {
		return PlayCard{Card: c}, true
	}
	return DrawCard{}, true
}
