// internal/protocol/messages.go
package protocol

import (
	"github.com/jason-s-yu/duo/internal/game"
	"github.com/jason-s-yu/duo/internal/models"
)

// Kind is the wire tag of a message.
type Kind string

// Host to guest.
const (
	KindStartGame       Kind = "START_GAME"
	KindGameStateUpdate Kind = "GAME_STATE_UPDATE"
)

// Guest to host.
const (
	KindPlayCard    Kind = "PLAY_CARD"
	KindDrawCard    Kind = "DRAW_CARD"
	KindChooseColor Kind = "CHOOSE_COLOR"
	KindCallUno     Kind = "CALL_UNO"
)

// Both directions, once per connection.
const KindPlayerInfo Kind = "PLAYER_INFO"

// Message is one of the seven wire messages. The set is closed.
type Message interface {
	Kind() Kind
	isMessage()
}

// StartGame seeds the guest's mirror and tells it which seat it holds.
type StartGame struct {
	InitialState game.Session `json:"initialState"`
	PlayerIndex  int          `json:"playerIndex"`
}

// GameStateUpdate replaces the guest's mirror wholesale.
type GameStateUpdate struct {
	GameState game.Session `json:"gameState"`
}

type PlayCard struct {
	Card models.Card `json:"card"`
}

type DrawCard struct{}

type ChooseColor struct {
	Color models.Color `json:"color"`
}

type CallUno struct{}

// PlayerInfo carries the sender's display name.
type PlayerInfo struct {
	Name string `json:"name"`
}

func (StartGame) Kind() Kind       { return KindStartGame }
func (GameStateUpdate) Kind() Kind { return KindGameStateUpdate }
func (PlayCard) Kind() Kind        { return KindPlayCard }
func (DrawCard) Kind() Kind        { return KindDrawCard }
func (ChooseColor) Kind() Kind     { return KindChooseColor }
func (CallUno) Kind() Kind         { return KindCallUno }
func (PlayerInfo) Kind() Kind      { return KindPlayerInfo }

func (StartGame) isMessage()       {}
func (GameStateUpdate) isMessage() {}
func (PlayCard) isMessage()        {}
func (DrawCard) isMessage()        {}
func (ChooseColor) isMessage()     {}
func (CallUno) isMessage()         {}
func (PlayerInfo) isMessage()      {}

// IntentFor maps a guest intent message to the reducer action, or false for
// messages that are not intents.
func IntentFor(m Message) (game.Action, bool) {
	switch msg := m.(type) {
	case PlayCard:
		return game.PlayCard{Card: msg.Card}, true
	case DrawCard:
		return game.DrawCard{}, true
	case ChooseColor:
		return game.ChooseColor{Color: msg.Color}, true
	case CallUno:
		return game.CallUno{}, true
	}
	return nil, false
}

// MessageFor is the inverse of IntentFor.
func MessageFor(a game.Action) (Message, bool) {
	switch act := a.(type) {
	case game.PlayCard:
		return PlayCard{Card: act.Card}, true
	case game.DrawCard:
		return DrawCard{}, true
	case game.ChooseColor:
		return ChooseColor{Color: act.Color}, true
	case game.CallUno:
		return CallUno{}, true
	}
	return nil, false
}
