// internal/table/guest.go
package table

import (
	"context"
	"sync"

	"github.com/jason-s-yu/duo/internal/game"
	"github.com/jason-s-yu/duo/internal/models"
	"github.com/jason-s-yu/duo/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Guest is the non-authoritative peer. It never simulates: intents go to the
// host and the local mirror is replaced by whatever the host sends back.
type Guest struct {
	// OnChange is called after every mirror replacement and when the link closes.
	// It runs with the guest's lock held and must not call back into the Guest.
	OnChange func(s game.Session, closeErr error)

	mu       sync.Mutex
	name     string
	seat     int
	started  bool
	session  game.Session
	link     Link
	closeErr error
	logger   *logrus.Entry
}

// NewGuest returns a guest that will introduce itself as name.
func NewGuest(name string, logger *logrus.Logger) *Guest {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Guest{
		name: name,
		seat: GuestSeat,
		session: game.NewSession(
			models.Player{ID: "player1", Name: "Player 1"},
			models.Player{ID: "player2", Name: name},
		),
		logger: logger.WithField("role", "guest"),
	}
}

// OnOpen records the link and sends PLAYER_INFO.
func (g *Guest) OnOpen(ctx context.Context, link Link) error {
	g.mu.Lock()
	if g.closeErr != nil {
		g.mu.Unlock()
		return g.closeErr
	}
	g.link = link
	g.mu.Unlock()

	return link.Send(ctx, protocol.PlayerInfo{Name: g.name})
}

// OnData applies one host message to the mirror.
func (g *Guest) OnData(_ context.Context, m protocol.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closeErr != nil {
		return
	}
	switch msg := m.(type) {
	case protocol.StartGame:
		if msg.PlayerIndex != HostSeat && msg.PlayerIndex != GuestSeat {
			g.logger.WithField("seat", msg.PlayerIndex).Debug("ignoring START_GAME with an unknown seat")
			return
		}
		g.seat = msg.PlayerIndex
		g.started = true
		g.replaceLocked(msg.InitialState)
	case protocol.GameStateUpdate:
		g.replaceLocked(msg.GameState)
	case protocol.PlayerInfo:
		next := g.session.Clone()
		next.Players[1-g.seat].Name = msg.Name
		g.replaceLocked(next)
	default:
		g.logger.WithField("type", m.Kind()).Debug("ignoring message not meant for the guest")
	}
}

// OnClose moves the guest into its terminal state.
func (g *Guest) OnClose(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closeErr != nil {
		return
	}
	if err == nil {
		err = ErrLinkClosed
	}
	g.closeErr = err
	g.logger.WithError(err).Info("host link closed")
	if g.OnChange != nil {
		g.OnChange(g.session.Clone(), err)
	}
}

// Act sends an intent to the host. The mirror only changes when the host answers.
func (g *Guest) Act(ctx context.Context, action game.Action) error {
	m, ok := protocol.MessageFor(action)
	if !ok {
		return game.ErrUnknownAction
	}
	g.mu.Lock()
	link, closeErr := g.link, g.closeErr
	g.mu.Unlock()

	if closeErr != nil {
		return closeErr
	}
	if link == nil {
		return ErrNotConnected
	}
	return link.Send(ctx, m)
}

// Session returns a copy of the mirror.
func (g *Guest) Session() game.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.Clone()
}

// View returns the guest seat's rendering snapshot.
func (g *Guest) View() game.View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return game.ViewFor(g.session, g.seat)
}

// Seat returns the seat assigned by START_GAME.
func (g *Guest) Seat() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seat
}

// Started reports whether START_GAME has arrived.
func (g *Guest) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// Err returns the terminal error once the link has closed.
func (g *Guest) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closeErr
}

// Close shuts the host link, if any.
func (g *Guest) Close() error {
	g.mu.Lock()
	link := g.link
	g.mu.Unlock()
	if link == nil {
		return nil
	}
	return link.Close()
}

func (g *Guest) replaceLocked(s game.Session) {
	g.session = s
	if g.OnChange != nil {
		g.OnChange(s.Clone(), nil)
	}
}
