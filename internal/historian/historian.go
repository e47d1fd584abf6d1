// Package historian drains the action queue hosts push to and persists the
// records to Postgres in batches. Tables that go quiet are marked abandoned.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/duo/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source yields queued action records. cache.ActionQueue implements it.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (models.ActionRecord, bool, error)
}

// Sink stores action records. database.History implements it.
type Sink interface {
	InsertActions(ctx context.Context, recs []models.ActionRecord) error
	MarkAbandoned(ctx context.Context, tableID uuid.UUID) error
}

type Config struct {
	BatchSize     int
	FlushDelay    time.Duration
	Inactivity    time.Duration // idle time until a table is marked abandoned
	PopTimeout    time.Duration // defaults to 3s
	SweepInterval time.Duration // defaults to 1m
}

// Service batches records from a Source into a Sink.
type Service struct {
	source Source
	sink   Sink
	cfg    Config
	logger *logrus.Entry

	lastActivity sync.Map // map[uuid.UUID]time.Time

	batchMu sync.Mutex
	batch   []models.ActionRecord
}

func New(source Source, sink Sink, cfg Config, logger *logrus.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = 500 * time.Millisecond
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 3 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Service{
		source: source,
		sink:   sink,
		cfg:    cfg,
		logger: logger.WithField("component", "historian"),
		batch:  make([]models.ActionRecord, 0, cfg.BatchSize),
	}
}

// Run reads, flushes and sweeps until ctx is cancelled. Whatever is still
// batched at shutdown is flushed before Run returns.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("historian started")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(ctx) })
	g.Go(func() error { return s.flushLoop(ctx) })
	if s.cfg.Inactivity > 0 {
		g.Go(func() error { return s.inactivityLoop(ctx) })
	}
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(flushCtx)
	s.logger.Info("historian shutting down")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Service) readLoop(ctx context.Context) error {
	for {
		rec, ok, err := s.source.Pop(ctx, s.cfg.PopTimeout)
		if ctx.Err() != nil {
			if err == nil && ok {
				s.append(rec)
			}
			return ctx.Err()
		}
		if err != nil {
			s.logger.WithError(err).Error("pop failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}

		s.track(rec, time.Now())
		if s.append(rec) {
			s.flush(ctx)
		}
	}
}

func (s *Service) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

// track notes activity for the record's table. A table whose game ended or
// whose host already reported it abandoned no longer needs watching.
func (s *Service) track(rec models.ActionRecord, at time.Time) {
	switch rec.ActionType {
	case models.ActionGameEnd, models.ActionAbandoned:
		s.lastActivity.Delete(rec.TableID)
	default:
		s.lastActivity.Store(rec.TableID, at)
	}
}

// append adds rec to the pending batch and reports whether the batch is full.
func (s *Service) append(rec models.ActionRecord) bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, rec)
	return len(s.batch) >= s.cfg.BatchSize
}

// pending returns the number of batched records.
func (s *Service) pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// flush writes the current batch in a single transaction. A failed batch is
// logged and dropped.
func (s *Service) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batchCopy := make([]models.ActionRecord, len(s.batch))
	copy(batchCopy, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.sink.InsertActions(ctx, batchCopy); err != nil {
		s.logger.WithError(err).WithField("count", len(batchCopy)).Error("flush failed")
		return
	}
	s.logger.Debugf("flushed %d actions", len(batchCopy))
}

// sweep marks every table idle for longer than the inactivity window.
func (s *Service) sweep(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		tableID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.cfg.Inactivity {
			return true
		}
		if err := s.sink.MarkAbandoned(ctx, tableID); err != nil {
			s.logger.WithError(err).Warnf("failed to mark table %s abandoned", tableID)
			return true
		}
		s.lastActivity.Delete(tableID)
		s.logger.Infof("marked table %s abandoned after inactivity", tableID)
		return true
	})
}
