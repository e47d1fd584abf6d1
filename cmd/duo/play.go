package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/jason-s-yu/duo/internal/game"
)

// seat is what the play loop needs from either side of the table.
// table.Host and table.Guest both satisfy it.
type seat interface {
	View() game.View
	Session() game.Session
	Act(ctx context.Context, action game.Action) error
	Err() error
	Close() error
}

// notify coalesces change signals. It never blocks, so it is safe to call from
// OnChange while the table lock is held.
func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// readLines feeds stdin lines to a channel that closes at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

type loopConfig struct {
	out      io.Writer
	seatNo   func() int
	bot      *rand.Rand // nil for a human player
	botDelay time.Duration
	newGame  func(ctx context.Context) error // nil when this side cannot deal
}

// playLoop renders every change and applies commands until the link closes
// or the player quits. It returns the link's terminal error.
func playLoop(ctx context.Context, p seat, changes <-chan struct{}, lines <-chan string, cfg loopConfig) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-changes:
			if err := p.Err(); err != nil {
				fmt.Fprintf(cfg.out, "Connection lost: %v\n", err)
				return err
			}
			render(cfg.out, p.View())
			if cfg.bot != nil {
				if err := botMove(ctx, p, cfg); err != nil {
					return err
				}
			}

		case line, ok := <-lines:
			if !ok {
				if cfg.bot != nil {
					lines = nil // a bot keeps playing without stdin
					continue
				}
				return leave(p, cfg.out)
			}
			cmd, err := parseCommand(line, p.View())
			if err != nil {
				fmt.Fprintf(cfg.out, "! %v\n", err)
				continue
			}
			switch {
			case cmd.quit:
				return leave(p, cfg.out)
			case cmd.help:
				fmt.Fprintln(cfg.out, helpText)
			case cmd.newGame:
				if cfg.newGame == nil {
					fmt.Fprintln(cfg.out, "! only the host can deal")
					continue
				}
				if err := cfg.newGame(ctx); err != nil {
					fmt.Fprintf(cfg.out, "! %v\n", err)
				}
			}
			for _, a := range cmd.actions {
				if err := p.Act(ctx, a); err != nil {
					fmt.Fprintf(cfg.out, "! %v\n", err)
					break
				}
			}
		}
	}
}

func leave(p seat, out io.Writer) error {
	if err := p.Close(); err != nil {
		fmt.Fprintf(out, "! close: %v\n", err)
	}
	return nil
}

// botMove plays the seat's move, if it has one. Reducer rejections are not
// fatal: a guest bot may act on a mirror the host has already moved past.
func botMove(ctx context.Context, p seat, cfg loopConfig) error {
	action, ok := game.NextBotAction(p.Session(), cfg.seatNo(), cfg.bot)
	if !ok {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(cfg.botDelay):
	}
	err := p.Act(ctx, action)
	if err != nil && p.Err() != nil {
		return p.Err()
	}
	if err != nil && !errors.Is(err, game.ErrDeckExhausted) {
		fmt.Fprintf(cfg.out, "! bot: %v\n", err)
	}
	return nil
}
