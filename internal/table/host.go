// internal/table/host.go
package table

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/duo/internal/game"
	"github.com/jason-s-yu/duo/internal/models"
	"github.com/jason-s-yu/duo/internal/protocol"
	"github.com/sirupsen/logrus"
)

// HostConfig configures a new host table.
type HostConfig struct {
	Name     string       // host player's display name
	Options  game.Options // zero value means game.DefaultOptions
	Seed     uint64       // seeds deals; 0 picks a random seed
	Logger   *logrus.Logger
	Recorder Recorder // optional action log
}

// Host owns the authoritative session of one table. Every entry point takes Mu,
// so guest messages, local intents and restarts are applied in arrival order.
type Host struct {
	ID uuid.UUID
	Mu sync.Mutex

	// OnChange is called with a copy of the session after every committed
	// transition and when the link closes. It runs with Mu held and must not call
	// back into the Host.
	OnChange func(s game.Session, closeErr error)

	session     game.Session
	opts        game.Options
	rng         *rand.Rand
	link        Link
	introduced  bool // the guest's PLAYER_INFO has been applied
	closeErr    error
	actionIndex int
	recorder    Recorder
	logger      *logrus.Entry
	createdAt   time.Time
}

// NewHost creates a table waiting for its guest.
func NewHost(cfg HostConfig) *Host {
	opts := cfg.Options
	if opts.HandSize == 0 {
		opts = game.DefaultOptions()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	name := cfg.Name
	if name == "" {
		name = "Player 1"
	}

	id := uuid.New()
	return &Host{
		ID: id,
		session: game.NewSession(
			models.Player{ID: "player1", Name: name},
			models.Player{ID: "player2", Name: "Player 2"},
		),
		opts:      opts,
		rng:       rand.New(rand.NewPCG(seed, 0)),
		recorder:  cfg.Recorder,
		logger:    logger.WithField("table", id),
		createdAt: time.Now(),
	}
}

// Session returns a copy of the authoritative state.
func (h *Host) Session() game.Session {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return h.session.Clone()
}

// View returns the host seat's rendering snapshot.
func (h *Host) View() game.View {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return game.ViewFor(h.session, HostSeat)
}

// Connected reports whether a guest link is attached and open.
func (h *Host) Connected() bool {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return h.link != nil && h.closeErr == nil
}

// Err returns the terminal error once the link has closed.
func (h *Host) Err() error {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return h.closeErr
}

// OnOpen seats the guest and deals the first game. A table takes exactly one
// guest for its lifetime.
func (h *Host) OnOpen(ctx context.Context, link Link) error {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	if h.closeErr != nil {
		return h.closeErr
	}
	if h.link != nil {
		return ErrSeatTaken
	}
	h.link = link
	h.logger.Info("guest connected")
	return h.dealLocked(ctx)
}

// NewGame redeals from any phase and sends START_GAME to the guest.
func (h *Host) NewGame(ctx context.Context) error {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	if h.closeErr != nil {
		return h.closeErr
	}
	if h.link == nil {
		return ErrNotConnected
	}
	return h.dealLocked(ctx)
}

// SetOptions changes the settings used by the next deal.
func (h *Host) SetOptions(opts game.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	h.Mu.Lock()
	defer h.Mu.Unlock()
	h.opts = opts
	return nil
}

// Act applies an intent from the local host player. A rejected intent changes
// nothing, sends nothing and returns the reducer's error.
func (h *Host) Act(ctx context.Context, action game.Action) error {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	if h.closeErr != nil {
		return h.closeErr
	}
	if err := h.applyLocked(action, HostSeat); err != nil {
		return err
	}
	return h.broadcastLocked(ctx)
}

// OnData handles one message from the guest. Every guest intent is answered
// with GAME_STATE_UPDATE, also when the reducer rejects it.
func (h *Host) OnData(ctx context.Context, m protocol.Message) {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	if h.closeErr != nil || h.link == nil {
		return
	}
	log := h.logger.WithField("type", m.Kind())

	if info, ok := m.(protocol.PlayerInfo); ok {
		if h.introduced {
			log.Debug("ignoring repeated player info")
			return
		}
		h.introduced = true
		next := h.session.Clone()
		next.Players[GuestSeat].Name = info.Name
		next.Version++
		h.commitLocked(next)
		log.WithField("name", info.Name).Info("guest introduced")
		if err := h.link.Send(ctx, protocol.PlayerInfo{Name: h.session.Players[HostSeat].Name}); err != nil {
			log.Warnf("failed to send player info: %v", err)
			return
		}
		if err := h.broadcastLocked(ctx); err != nil {
			log.Warnf("failed to send state: %v", err)
		}
		return
	}

	action, ok := protocol.IntentFor(m)
	if !ok {
		log.Debug("ignoring message not meant for the host")
		return
	}
	if err := h.applyLocked(action, GuestSeat); err != nil {
		log.Debugf("rejected guest intent: %v", err)
	}
	if err := h.broadcastLocked(ctx); err != nil {
		log.Warnf("failed to send state: %v", err)
	}
}

// OnClose puts the table into its terminal state. There is no reconnection.
func (h *Host) OnClose(err error) {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	if h.closeErr != nil {
		return
	}
	if err == nil {
		err = ErrLinkClosed
	}
	h.closeErr = err
	h.logger.WithError(err).Info("guest link closed")
	h.logAction(GuestSeat, models.ActionAbandoned, map[string]interface{}{"reason": err.Error()})
	if h.OnChange != nil {
		h.OnChange(h.session.Clone(), err)
	}
}

// Close shuts the guest link, if any.
func (h *Host) Close() error {
	h.Mu.Lock()
	link := h.link
	h.Mu.Unlock()
	if link == nil {
		return nil
	}
	return link.Close()
}

// dealLocked assumes Mu is held.
func (h *Host) dealLocked(ctx context.Context) error {
	next, err := game.Deal(h.session, h.opts, h.rng.Uint64())
	if err != nil {
		return err
	}
	h.commitLocked(next)
	h.logAction(HostSeat, models.ActionGameStart, map[string]interface{}{
		"seed":     next.Seed,
		"handSize": h.opts.HandSize,
	})
	if err := h.link.Send(ctx, protocol.StartGame{InitialState: next.Clone(), PlayerIndex: GuestSeat}); err != nil {
		return fmt.Errorf("send start game: %w", err)
	}
	return nil
}

// applyLocked runs the reducer and commits on success. Assumes Mu is held.
func (h *Host) applyLocked(action game.Action, seat int) error {
	next, err := game.Apply(h.session, action, seat)
	if err != nil {
		return err
	}
	h.commitLocked(next)

	payload := map[string]interface{}{"version": next.Version}
	switch a := action.(type) {
	case game.PlayCard:
		payload["cardId"] = a.Card.ID
	case game.ChooseColor:
		payload["color"] = a.Color
	}
	h.logAction(seat, action.Type(), payload)
	if next.Phase == game.PhaseFinished {
		h.logAction(seat, models.ActionGameEnd, map[string]interface{}{"winner": next.Winner})
	}
	return nil
}

func (h *Host) commitLocked(next game.Session) {
	h.session = next
	if h.OnChange != nil {
		h.OnChange(next.Clone(), nil)
	}
}

func (h *Host) broadcastLocked(ctx context.Context) error {
	if h.link == nil {
		return ErrNotConnected
	}
	if err := h.link.Send(ctx, protocol.GameStateUpdate{GameState: h.session.Clone()}); err != nil {
		return fmt.Errorf("send state update: %w", err)
	}
	return nil
}

// logAction hands the record to the recorder without blocking the table.
// Assumes Mu is held.
func (h *Host) logAction(seat int, actionType string, payload map[string]interface{}) {
	if h.recorder == nil {
		return
	}
	h.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := models.ActionRecord{
		TableID:     h.ID,
		ActionIndex: h.actionIndex,
		Seat:        seat,
		ActorID:     h.session.Players[seat].ID,
		ActionType:  actionType,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}
	go func(rec models.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.recorder.Record(ctx, rec); err != nil {
			h.logger.Warnf("failed to record action %d: %v", rec.ActionIndex, err)
		}
	}(rec)
}
