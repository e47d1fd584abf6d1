package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jason-s-yu/duo/internal/game"
)

// render prints one frame of the table for a seat.
func render(w io.Writer, v game.View) {
	var b strings.Builder
	b.WriteString("\n")

	opp := v.Opponent
	fmt.Fprintf(&b, "%s: %d card(s)", opp.Name, opp.HandSize)
	if opp.CalledUno {
		b.WriteString("  [UNO]")
	}
	if opp.IsThisTurn {
		b.WriteString("  <- turn")
	}
	b.WriteString("\n")

	if v.DiscardTop != nil {
		fmt.Fprintf(&b, "Discard: %s   Color: %s   Draw pile: %d\n", v.DiscardTop.Label(), v.ActiveColor, v.DrawPileSize)
	}
	if v.Message != "" {
		fmt.Fprintf(&b, "> %s\n", v.Message)
	}

	b.WriteString("Your hand:")
	if v.CalledUno {
		b.WriteString("  [UNO]")
	}
	b.WriteString("\n")
	for i, c := range v.Hand {
		mark := " "
		if slices.Contains(v.Playable, c.ID) {
			mark = "*"
		}
		fmt.Fprintf(&b, " %s%2d. %s\n", mark, i+1, c.Label())
	}

	switch {
	case v.Finished:
		fmt.Fprintf(&b, "Game over, %s wins.\n", v.Winner)
	case v.MyTurn && v.AwaitingColor:
		b.WriteString("Choose a color: color red|yellow|green|blue\n")
	case v.MyTurn:
		b.WriteString("Your turn.\n")
	case v.Phase == game.PhaseInProgress:
		fmt.Fprintf(&b, "Waiting for %s...\n", opp.Name)
	}
	io.WriteString(w, b.String())
}
