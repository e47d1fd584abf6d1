// cmd/duo is the terminal client. "duo host" opens a table and prints an
// invite; "duo join <invite>" connects to one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/duo/internal/auth"
	"github.com/jason-s-yu/duo/internal/cache"
	"github.com/jason-s-yu/duo/internal/config"
	"github.com/jason-s-yu/duo/internal/game"
	"github.com/jason-s-yu/duo/internal/handlers"
	"github.com/jason-s-yu/duo/internal/table"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: duo host [flags] | duo join [flags] <invite-url>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "host":
		err = runHost(ctx, cfg, logger, os.Args[2:])
	case "join":
		err = runJoin(ctx, cfg, logger, os.Args[2:])
	default:
		usage()
	}

	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, table.ErrLinkClosed):
		os.Exit(1)
	default:
		logger.Fatal(err)
	}
}

func linkOptions(cfg config.Config) handlers.LinkOptions {
	return handlers.LinkOptions{
		WriteTimeout: cfg.WriteTimeout,
		RateLimit:    rate.Limit(cfg.RateLimit),
		RateBurst:    cfg.RateBurst,
	}
}

func runHost(ctx context.Context, cfg config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	name := fs.String("name", "Player 1", "your display name")
	bot := fs.Bool("bot", false, "let the computer play your seat")
	botDelay := fs.Duration("bot-delay", 500*time.Millisecond, "pause before each bot move")
	seed := fs.Uint64("seed", 0, "deal seed, 0 picks one at random")
	handSize := fs.Int("hand", cfg.HandSize, "cards dealt to each player")
	keyPath := fs.String("key", "", "ed25519 private key file used to sign invites")
	pubPath := fs.String("pub", "", "ed25519 public key file matching -key")
	fs.Parse(args)

	opts := game.DefaultOptions()
	if err := opts.Update(map[string]interface{}{"handSize": *handSize}); err != nil {
		return err
	}

	var invites *auth.Invites
	var err error
	if *keyPath != "" {
		invites, err = auth.NewInvitesFromPath(*keyPath, *pubPath, cfg.InviteTTL)
	} else {
		invites, err = auth.NewInvites(cfg.InviteTTL)
	}
	if err != nil {
		return err
	}

	var recorder table.Recorder
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		recorder = &cache.ActionQueue{Client: rdb, Name: cfg.QueueName}
		logger.Infof("recording actions to redis list %s", cfg.QueueName)
	}

	h := table.NewHost(table.HostConfig{
		Name:     *name,
		Options:  opts,
		Seed:     *seed,
		Logger:   logger,
		Recorder: recorder,
	})
	changes := make(chan struct{}, 1)
	h.OnChange = func(game.Session, error) { notify(changes) }

	store := table.NewStore()
	store.Add(h)
	ts := &handlers.TableServer{
		Store:     store,
		Invites:   invites,
		Logger:    logger,
		Link:      linkOptions(cfg),
		PublicURL: cfg.PublicURL,
	}
	invite, err := ts.InviteURL(h.ID)
	if err != nil {
		return err
	}
	if code, err := handlers.InviteQR(invite); err == nil {
		fmt.Println(code)
	}
	fmt.Printf("Table %s\nShare this invite with your friend:\n  %s\nWaiting for them to connect...\n", h.ID, invite)

	srv := &http.Server{Addr: cfg.Addr, Handler: ts.Routes()}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", cfg.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		h.Close()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return pruneLoop(ctx, store, cfg.InviteTTL)
	})
	g.Go(func() error {
		defer cancel()
		lc := loopConfig{
			out:      os.Stdout,
			seatNo:   func() int { return table.HostSeat },
			botDelay: *botDelay,
			newGame:  h.NewGame,
		}
		if *bot {
			lc.bot = rand.New(rand.NewPCG(rand.Uint64(), 0))
		}
		return playLoop(ctx, h, changes, readLines(os.Stdin), lc)
	})
	return g.Wait()
}

var errInviteExpired = errors.New("nobody joined before the invite expired")

// pruneLoop drops the table once its invite has expired unused or its link has
// closed, and ends the process when no table is left.
func pruneLoop(ctx context.Context, store *table.Store, maxWait time.Duration) error {
	if maxWait <= 0 {
		maxWait = time.Duration(math.MaxInt64)
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			store.Prune(now, maxWait)
			if store.Len() == 0 {
				return errInviteExpired
			}
		}
	}
}

func runJoin(ctx context.Context, cfg config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	name := fs.String("name", fmt.Sprintf("Player %d", rand.IntN(100)), "your display name")
	bot := fs.Bool("bot", false, "let the computer play your seat")
	botDelay := fs.Duration("bot-delay", 500*time.Millisecond, "pause before each bot move")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}

	guest := table.NewGuest(*name, logger)
	changes := make(chan struct{}, 1)
	guest.OnChange = func(game.Session, error) { notify(changes) }

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return handlers.Dial(ctx, fs.Arg(0), guest, linkOptions(cfg), logger)
	})
	g.Go(func() error {
		defer cancel()
		lc := loopConfig{
			out:      os.Stdout,
			seatNo:   guest.Seat,
			botDelay: *botDelay,
		}
		if *bot {
			lc.bot = rand.New(rand.NewPCG(rand.Uint64(), 0))
		}
		return playLoop(ctx, guest, changes, readLines(os.Stdin), lc)
	})
	return g.Wait()
}
