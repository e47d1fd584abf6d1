package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jason-s-yu/duo/internal/game"
	"github.com/jason-s-yu/duo/internal/models"
)

var errUnknownCommand = errors.New("unknown command, type 'help'")

// command is one parsed line of player input.
type command struct {
	actions []game.Action
	newGame bool
	quit    bool
	help    bool
}

const helpText = `commands:
  play N [color]   play card N from your hand; wilds take a color
  draw             draw a card
  color C          choose red, yellow, green or blue after a wild
  uno              call UNO
  new              deal a new game (host only)
  quit             leave the table`

var colorNames = map[string]models.Color{
	"r": models.ColorRed, "red": models.ColorRed,
	"y": models.ColorYellow, "yellow": models.ColorYellow,
	"g": models.ColorGreen, "green": models.ColorGreen,
	"b": models.ColorBlue, "blue": models.ColorBlue,
}

func parseColor(s string) (models.Color, error) {
	c, ok := colorNames[strings.ToLower(s)]
	if !ok {
		return "", fmt.Errorf("%w: %q", game.ErrInvalidColor, s)
	}
	return c, nil
}

// parseCommand turns a line into intents against the seat's current view.
// Card positions are 1-based as printed by render.
func parseCommand(line string, v game.View) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, nil
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "play", "p":
		if len(args) == 0 || len(args) > 2 {
			return command{}, errors.New("usage: play N [color]")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(v.Hand) {
			return command{}, fmt.Errorf("no card %q in your hand", args[0])
		}
		card := v.Hand[n-1]
		cmd := command{actions: []game.Action{game.PlayCard{Card: card}}}
		if len(args) == 2 {
			if !card.IsWild() {
				return command{}, fmt.Errorf("%s is not a wild", card.Label())
			}
			color, err := parseColor(args[1])
			if err != nil {
				return command{}, err
			}
			cmd.actions = append(cmd.actions, game.ChooseColor{Color: color})
		}
		return cmd, nil
	case "draw", "d":
		return command{actions: []game.Action{game.DrawCard{}}}, nil
	case "color", "c":
		if len(args) != 1 {
			return command{}, errors.New("usage: color C")
		}
		color, err := parseColor(args[0])
		if err != nil {
			return command{}, err
		}
		return command{actions: []game.Action{game.ChooseColor{Color: color}}}, nil
	case "uno", "u":
		return command{actions: []game.Action{game.CallUno{}}}, nil
	case "new", "n":
		return command{newGame: true}, nil
	case "quit", "q", "exit":
		return command{quit: true}, nil
	case "help", "h", "?":
		return command{help: true}, nil
	}
	return command{}, errUnknownCommand
}
