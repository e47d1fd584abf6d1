// internal/models/card.go
package models

import (
	"fmt"
	"strconv"
)

// Color is the suit of a card. Wild cards carry ColorWild until played.
type Color string

const (
	ColorRed    Color = "RED"
	ColorYellow Color = "YELLOW"
	ColorGreen  Color = "GREEN"
	ColorBlue   Color = "BLUE"
	ColorWild   Color = "WILD"
)

// Colors lists the four real colors in deck-building order.
var Colors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// Valid reports whether c is one of the four real colors; ColorWild is not a valid choice.
func (c Color) Valid() bool {
	switch c {
	case ColorRed, ColorYellow, ColorGreen, ColorBlue:
		return true
	}
	return false
}

// Rank is the face value of a card: "0" through "9" or an action name.
type Rank string

const (
	RankSkip         Rank = "SKIP"
	RankReverse      Rank = "REVERSE"
	RankDrawTwo      Rank = "DRAW_TWO"
	RankWild         Rank = "WILD"
	RankWildDrawFour Rank = "WILD_DRAW_FOUR"
)

// NumberRank returns the rank for a number card.
func NumberRank(n int) Rank {
	return Rank(strconv.Itoa(n))
}

// IsNumber reports whether r is "0".."9".
func (r Rank) IsNumber() bool {
	return len(r) == 1 && r[0] >= '0' && r[0] <= '9'
}

// Card is an immutable playing card. ID is unique within one deck.
type Card struct {
	ID    int   `json:"id"`
	Color Color `json:"color"`
	Rank  Rank  `json:"value"`
}

// IsWild reports whether the card belongs to the wild family.
func (c Card) IsWild() bool {
	return c.Rank == RankWild || c.Rank == RankWildDrawFour
}

// Label is the short human form used in status messages, e.g. "RED 7" or "W+4".
func (c Card) Label() string {
	switch c.Rank {
	case RankWild:
		return "Wild"
	case RankWildDrawFour:
		return "W+4"
	case RankDrawTwo:
		return fmt.Sprintf("%s +2", c.Color)
	}
	return fmt.Sprintf("%s %s", c.Color, c.Rank)
}
