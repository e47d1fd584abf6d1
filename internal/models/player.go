package models

// Player is one of the two seats. ID is stable for the life of a table; Name is
// filled in by the PLAYER_INFO handshake.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hand []Card `json:"hand"`
}

// HandIndex returns the position of the card with the given id in the hand, or -1.
func (p *Player) HandIndex(cardID int) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
