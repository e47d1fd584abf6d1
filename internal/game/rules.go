// internal/game/rules.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/duo/internal/models"
)

// Options holds the table settings chosen by the host before dealing.
type Options struct {
	HandSize int `json:"handSize"` // cards dealt to each seat; default 7
}

// MaxHandSize leaves six cards undealt, so at most four of them are
// WILD_DRAW_FOUR and a seed card can always be flipped.
const MaxHandSize = (DeckSize - 6) / 2

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{HandSize: 7}
}

// Update will update the options with the new values provided.
// Keys that are absent or nil are ignored and the old value persists.
func (o *Options) Update(newOpts map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal, maxVal int) error {
		val, exists := newOpts[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64:
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal || n > maxVal {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
		}
		*field = n
		return nil
	}

	return assignInt(&o.HandSize, "handSize", 1, MaxHandSize)
}

// ParseOptions applies a map of settings on top of current and validates the types.
func ParseOptions(opts map[string]interface{}, current Options) (Options, error) {
	o := current
	err := o.Update(opts)
	return o, err
}

// Validate checks o against the same bounds Update enforces.
func (o Options) Validate() error {
	_, err := ParseOptions(map[string]interface{}{"handSize": o.HandSize}, DefaultOptions())
	return err
}

// IsLegal reports whether card may be played on top given the active color.
// Wild-family cards are always legal; otherwise the color must match the active
// color or the rank must match the top card.
func IsLegal(card, top models.Card, activeColor models.Color) bool {
	return card.IsWild() || card.Color == activeColor || card.Rank == top.Rank
}

// Effect describes the outcome of a resolved card for a two-seat table.
type Effect struct {
	Color  models.Color // active color after the play
	Next   int          // seat that moves next
	Victim int          // seat that draws, or -1
	Draw   int          // cards the victim must draw
}

// EffectOf computes the effect of actor playing card. chosen is only read for wild-family cards.
// With two seats REVERSE behaves exactly like SKIP.
func EffectOf(card models.Card, actor int, chosen models.Color) Effect {
	other := 1 - actor
	e := Effect{Color: card.Color, Next: other, Victim: -1}
	switch card.Rank {
	case models.RankSkip, models.RankReverse:
		e.Next = actor
	case models.RankDrawTwo:
		e.Next, e.Victim, e.Draw = actor, other, 2
	case models.RankWild:
		e.Color = chosen
	case models.RankWildDrawFour:
		e.Color = chosen
		e.Next, e.Victim, e.Draw = actor, other, 4
	}
	return e
}

// ResolveEffect applies the effect of a card actor has already moved onto the
// discard pile, and returns the updated session. s is not modified.
func ResolveEffect(s Session, actor int, card models.Card, chosen models.Color) Session {
	next := s.Clone()
	next.resolveEffect(actor, card, chosen)
	return next
}

// resolveEffect is the in-place form used by the reducer on its private copy.
func (s *Session) resolveEffect(actor int, card models.Card, chosen models.Color) {
	e := EffectOf(card, actor, chosen)
	name := s.Players[actor].Name

	switch card.Rank {
	case models.RankDrawTwo:
		s.drawInto(e.Victim, e.Draw)
		s.Message = fmt.Sprintf("%s played Draw Two. %s draws 2.", name, s.Players[e.Victim].Name)
	case models.RankWildDrawFour:
		s.drawInto(e.Victim, e.Draw)
		s.Message = fmt.Sprintf("%s played W+4 & chose %s. %s draws 4.", name, chosen, s.Players[e.Victim].Name)
	case models.RankSkip, models.RankReverse:
		s.Message = fmt.Sprintf("%s played %s. Turn skipped.", name, card.Rank)
	case models.RankWild:
		s.Message = fmt.Sprintf("%s played a Wild and chose %s.", name, chosen)
	default:
		s.Message = fmt.Sprintf("%s played a %s %s.", name, card.Color, card.Rank)
	}

	s.ActiveColor = e.Color
	s.CurrentPlayerIndex = e.Next
	s.AwaitingColor = false
}
