// internal/game/sync_state.go
package game

import "github.com/jason-s-yu/duo/internal/models"

// OpponentView is what one seat may know about the other.
type OpponentView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HandSize   int    `json:"handSize"`
	CalledUno  bool   `json:"calledUno"`
	IsThisTurn bool   `json:"isCurrentTurn"`
}

// View is the per-frame rendering snapshot for one seat. The opponent's hand is
// reduced to a count.
type View struct {
	Seat          int           `json:"seat"`
	Phase         Phase         `json:"phase"`
	Hand          []models.Card `json:"hand"`
	CalledUno     bool          `json:"calledUno"`
	Opponent      OpponentView  `json:"opponent"`
	DiscardTop    *models.Card  `json:"discardTop,omitempty"`
	DrawPileSize  int           `json:"drawPileSize"`
	ActiveColor   models.Color  `json:"currentColor"`
	MyTurn        bool          `json:"myTurn"`
	AwaitingColor bool          `json:"awaitingColorChoice"`
	Message       string        `json:"message"`
	Finished      bool          `json:"finished"`
	Winner        string        `json:"winner,omitempty"` // winner's name
	Playable      []int         `json:"playable"`         // ids of legal cards in Hand
}

// ViewFor projects s for the given seat.
func ViewFor(s Session, seat int) View {
	me, them := s.Players[seat], s.Players[1-seat]

	v := View{
		Seat:          seat,
		Phase:         s.Phase,
		Hand:          append([]models.Card(nil), me.Hand...),
		CalledUno:     s.HasCalledUno(me.ID),
		DrawPileSize:  len(s.Deck),
		ActiveColor:   s.ActiveColor,
		MyTurn:        s.Phase == PhaseInProgress && s.CurrentPlayerIndex == seat,
		AwaitingColor: s.AwaitingColor,
		Message:       s.Message,
		Finished:      s.Phase == PhaseFinished,
		Playable:      []int{},
		Opponent: OpponentView{
			ID:         them.ID,
			Name:       them.Name,
			HandSize:   len(them.Hand),
			CalledUno:  s.HasCalledUno(them.ID),
			IsThisTurn: s.Phase == PhaseInProgress && s.CurrentPlayerIndex == 1-seat,
		},
	}
	if top, ok := s.Top(); ok {
		v.DiscardTop = &top
		if v.MyTurn && !s.AwaitingColor {
			for _, c := range me.Hand {
				if IsLegal(c, top, s.ActiveColor) {
					v.Playable = append(v.Playable, c.ID)
				}
			}
		}
	}
	if s.Winner != "" {
		if w := s.SeatOf(s.Winner); w >= 0 {
			v.Winner = s.Players[w].Name
		}
	}
	return v
}
