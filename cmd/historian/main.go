// cmd/historian is an asynchronous historian service that pops action records
// from the Redis queue hosts push to and persists them to PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jason-s-yu/duo/internal/cache"
	"github.com/jason-s-yu/duo/internal/config"
	"github.com/jason-s-yu/duo/internal/database"
	"github.com/jason-s-yu/duo/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	show := flag.String("show", "", "print the stored summary of a table id and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal(err)
	}
	history := database.NewHistory(pool)

	if *show != "" {
		if err := printSummary(ctx, history, *show); err != nil {
			logger.Fatal(err)
		}
		return
	}

	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb, err := cache.Connect(ctx, addr, cfg.RedisDB)
	if err != nil {
		logger.Fatal(err)
	}
	defer rdb.Close()

	svc := historian.New(
		&cache.ActionQueue{Client: rdb, Name: cfg.QueueName},
		history,
		historian.Config{
			BatchSize:  cfg.BatchSize,
			FlushDelay: cfg.FlushDelay,
			Inactivity: cfg.Inactivity,
		},
		logger,
	)
	if err := svc.Run(ctx); err != nil {
		logger.Fatal(err)
	}
	logger.Info("historian shutdown complete")
}

func printSummary(ctx context.Context, history *database.History, id string) error {
	tableID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid table id: %w", err)
	}
	s, err := history.Summary(ctx, tableID)
	if errors.Is(err, database.ErrTableNotFound) {
		fmt.Printf("table %s has no history\n", tableID)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("table   %s\nstatus  %s\nactions %d\nstarted %s\n", s.ID, s.Status, s.Actions, s.Started.Format("2006-01-02 15:04:05"))
	if s.Winner != "" {
		fmt.Printf("winner  %s\n", s.Winner)
	}
	if s.Ended != nil {
		fmt.Printf("ended   %s\n", s.Ended.Format("2006-01-02 15:04:05"))
	}
	return nil
}
