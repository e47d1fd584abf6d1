// internal/game/session.go
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/jason-s-yu/duo/internal/models"
)

// Phase is the coarse state of a session.
type Phase string

const (
	PhaseAwaitingDeal Phase = "AWAITING_DEAL"
	PhaseInProgress   Phase = "IN_PROGRESS"
	PhaseFinished     Phase = "FINISHED"
)

// Rejections returned by Apply. The session is unchanged whenever one is returned.
var (
	ErrNotStarted       = errors.New("game has not been dealt")
	ErrGameFinished     = errors.New("game is finished")
	ErrUnknownSeat      = errors.New("unknown seat")
	ErrUnknownAction    = errors.New("unknown action")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrCardNotInHand    = errors.New("card is not in hand")
	ErrIllegalCard      = errors.New("card cannot be played on the current discard")
	ErrAwaitingColor    = errors.New("waiting for a color choice")
	ErrNotAwaitingColor = errors.New("no color choice pending")
	ErrInvalidColor     = errors.New("invalid color choice")
	ErrDeckExhausted    = errors.New("no cards left to draw")
)

// Session is the complete authoritative game state. It is a plain value: the
// host replaces its copy with the result of Apply and ships it verbatim to the guest.
type Session struct {
	Deck               []models.Card    `json:"deck"` // back of the slice is drawn next
	DiscardPile        []models.Card    `json:"discardPile"`
	Players            [2]models.Player `json:"players"`
	CurrentPlayerIndex int              `json:"currentPlayerIndex"`
	ActiveColor        models.Color     `json:"currentColor"`
	Phase              Phase            `json:"phase"`
	AwaitingColor      bool             `json:"awaitingColorChoice"`
	Winner             string           `json:"winner,omitempty"`
	UnoCalled          []string         `json:"unoCalled"`
	Message            string           `json:"message"`
	Version            int              `json:"version"`
	Seed               uint64           `json:"seed"`
	Reshuffles         uint64           `json:"reshuffles"`
}

// NewSession returns an undealt session for the two players.
func NewSession(p0, p1 models.Player) Session {
	p0.Hand, p1.Hand = []models.Card{}, []models.Card{}
	return Session{
		Deck:        []models.Card{},
		DiscardPile: []models.Card{},
		Players:     [2]models.Player{p0, p1},
		Phase:       PhaseAwaitingDeal,
		UnoCalled:   []string{},
		Message:     "Waiting to start...",
	}
}

// Clone returns a deep copy that shares no slices with s.
func (s Session) Clone() Session {
	c := s
	c.Deck = slices.Clone(s.Deck)
	c.DiscardPile = slices.Clone(s.DiscardPile)
	c.UnoCalled = slices.Clone(s.UnoCalled)
	for i := range c.Players {
		c.Players[i].Hand = slices.Clone(s.Players[i].Hand)
	}
	return c
}

// Top returns the top of the discard pile.
func (s Session) Top() (models.Card, bool) {
	if len(s.DiscardPile) == 0 {
		return models.Card{}, false
	}
	return s.DiscardPile[len(s.DiscardPile)-1], true
}

// CardCount is the number of cards across the draw pile, discard pile and both hands.
// It equals DeckSize for every dealt session.
func (s Session) CardCount() int {
	n := len(s.Deck) + len(s.DiscardPile)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// SeatOf returns the seat of the player with the given id, or -1.
func (s Session) SeatOf(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// HasCalledUno reports whether the player declared UNO this game.
func (s Session) HasCalledUno(playerID string) bool {
	return slices.Contains(s.UnoCalled, playerID)
}

// Deal starts a new game from any phase: a freshly shuffled deck, opts.HandSize
// cards to each seat dealt alternately, and a seed card on the discard pile.
// A WILD_DRAW_FOUR seed goes back into the deck, which is reshuffled before flipping
// again. A WILD seed leaves RED as the active color. Player names are kept.
func Deal(s Session, opts Options, seed uint64) (Session, error) {
	if err := opts.Validate(); err != nil {
		return s, err
	}

	next := s.Clone()
	next.Seed, next.Reshuffles = seed, 0
	next.Deck = Shuffle(BuildDeck(), next.rng())
	next.DiscardPile = []models.Card{}
	for i := range next.Players {
		next.Players[i].Hand = make([]models.Card, 0, opts.HandSize)
	}

	for n := 0; n < opts.HandSize; n++ {
		for seat := range next.Players {
			c, _ := next.popDeck()
			next.Players[seat].Hand = append(next.Players[seat].Hand, c)
		}
	}

	first, _ := next.popDeck()
	for first.Rank == models.RankWildDrawFour {
		next.Deck = Shuffle(append(next.Deck, first), next.rng())
		first, _ = next.popDeck()
	}
	next.DiscardPile = append(next.DiscardPile, first)

	next.ActiveColor = first.Color
	if first.Rank == models.RankWild {
		next.ActiveColor = models.ColorRed
	}
	next.CurrentPlayerIndex = 0
	next.Phase = PhaseInProgress
	next.AwaitingColor = false
	next.Winner = ""
	next.UnoCalled = []string{}
	next.Message = fmt.Sprintf("Game started! %s's turn.", next.Players[0].Name)
	next.Version++
	return next, nil
}

// Apply is the reducer: it validates action for the given seat and returns the
// next session. s is never modified. On rejection it returns s and one of the Err values.
func Apply(s Session, action Action, actor int) (Session, error) {
	if actor != 0 && actor != 1 {
		return s, ErrUnknownSeat
	}
	switch s.Phase {
	case PhaseAwaitingDeal:
		return s, ErrNotStarted
	case PhaseFinished:
		return s, ErrGameFinished
	}

	next := s.Clone()
	var err error
	switch a := action.(type) {
	case PlayCard:
		err = next.playCard(actor, a.Card)
	case DrawCard:
		err = next.drawCard(actor)
	case ChooseColor:
		err = next.chooseColor(actor, a.Color)
	case CallUno:
		err = next.callUno(actor)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		return s, err
	}
	next.Version++
	return next, nil
}

func (s *Session) playCard(actor int, card models.Card) error {
	if s.AwaitingColor {
		return ErrAwaitingColor
	}
	if actor != s.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	p := &s.Players[actor]
	idx := p.HandIndex(card.ID)
	if idx < 0 {
		return ErrCardNotInHand
	}
	// The hand's copy is authoritative; the intent only identifies the card.
	card = p.Hand[idx]
	top, _ := s.Top()
	if !IsLegal(card, top, s.ActiveColor) {
		return ErrIllegalCard
	}

	p.Hand = slices.Delete(p.Hand, idx, idx+1)
	s.DiscardPile = append(s.DiscardPile, card)

	if len(p.Hand) == 0 {
		s.Phase = PhaseFinished
		s.Winner = p.ID
		s.Message = fmt.Sprintf("%s wins!", p.Name)
		return nil
	}
	if card.IsWild() {
		s.AwaitingColor = true
		s.Message = fmt.Sprintf("%s played a Wild. Waiting for color choice...", p.Name)
		return nil
	}
	s.resolveEffect(actor, card, "")
	return nil
}

func (s *Session) drawCard(actor int) error {
	if s.AwaitingColor {
		return ErrAwaitingColor
	}
	if actor != s.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	if s.drawInto(actor, 1) == 0 {
		return ErrDeckExhausted
	}
	s.CurrentPlayerIndex = 1 - actor
	s.Message = fmt.Sprintf("%s drew a card.", s.Players[actor].Name)
	return nil
}

func (s *Session) chooseColor(actor int, color models.Color) error {
	if !s.AwaitingColor {
		return ErrNotAwaitingColor
	}
	if actor != s.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	if !color.Valid() {
		return ErrInvalidColor
	}
	top, _ := s.Top()
	s.resolveEffect(actor, top, color)
	return nil
}

func (s *Session) callUno(actor int) error {
	if s.AwaitingColor {
		return ErrAwaitingColor
	}
	id := s.Players[actor].ID
	if !slices.Contains(s.UnoCalled, id) {
		s.UnoCalled = append(s.UnoCalled, id)
	}
	s.Message = fmt.Sprintf("%s called UNO!", s.Players[actor].Name)
	return nil
}

// drawInto moves up to n cards to the seat's hand, recycling the discard pile when
// the draw pile runs dry. It returns how many cards were actually drawn.
func (s *Session) drawInto(seat, n int) int {
	drawn := 0
	for ; drawn < n; drawn++ {
		if len(s.Deck) == 0 {
			s.reshuffle()
		}
		c, ok := s.popDeck()
		if !ok {
			break
		}
		s.Players[seat].Hand = append(s.Players[seat].Hand, c)
	}
	return drawn
}

func (s *Session) reshuffle() {
	if len(s.DiscardPile) <= 1 {
		return
	}
	s.Deck, s.DiscardPile = ReshuffleDiscard(s.DiscardPile, s.rng())
}

func (s *Session) popDeck() (models.Card, bool) {
	if len(s.Deck) == 0 {
		return models.Card{}, false
	}
	c := s.Deck[len(s.Deck)-1]
	s.Deck = s.Deck[:len(s.Deck)-1]
	return c, true
}

// rng hands out a new deterministic stream per shuffle so a session replays
// identically from its seed.
func (s *Session) rng() *rand.Rand {
	s.Reshuffles++
	return newRand(s.Seed, s.Reshuffles)
}
