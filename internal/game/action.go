package game

import "github.com/jason-s-yu/duo/internal/models"

// Action is a player intent fed to Apply. The set of implementations is closed.
type Action interface {
	// Type names the action in the action log.
	Type() string
	isAction()
}

// PlayCard moves a card from the actor's hand to the discard pile.
type PlayCard struct {
	Card models.Card
}

// DrawCard takes one card from the draw pile and passes the turn.
type DrawCard struct{}

// ChooseColor names the active color after a wild-family card.
type ChooseColor struct {
	Color models.Color
}

// CallUno records that the actor declared UNO.
type CallUno struct{}

func (PlayCard) Type() string    { return models.ActionPlayCard }
func (DrawCard) Type() string    { return models.ActionDrawCard }
func (ChooseColor) Type() string { return models.ActionChooseColor }
func (CallUno) Type() string     { return models.ActionCallUno }

func (PlayCard) isAction()    {}
func (DrawCard) isAction()    {}
func (ChooseColor) isAction() {}
func (CallUno) isAction()     {}
