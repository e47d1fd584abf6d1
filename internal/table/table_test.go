package table

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jason-s-yu/duo/internal/game"
	"github.com/jason-s-yu/duo/internal/models"
	"github.com/jason-s-yu/duo/internal/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// pipeLink delivers every message synchronously to the remote peer after a
// round trip through the wire codec.
type pipeLink struct {
	t      *testing.T
	remote Peer

	mu     sync.Mutex
	sent   []protocol.Message
	closed bool
}

func (l *pipeLink) Send(ctx context.Context, m protocol.Message) error {
	data, err := protocol.Encode(m)
	require.NoError(l.t, err)
	decoded, err := protocol.Decode(data)
	require.NoError(l.t, err)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLinkClosed
	}
	l.sent = append(l.sent, decoded)
	l.mu.Unlock()

	l.remote.OnData(ctx, decoded)
	return nil
}

func (l *pipeLink) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

func (l *pipeLink) messages() []protocol.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]protocol.Message(nil), l.sent...)
}

type mockLink struct {
	mock.Mock
}

func (m *mockLink) Send(ctx context.Context, msg protocol.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockLink) Close() error {
	return m.Called().Error(0)
}

type memRecorder struct {
	mu      sync.Mutex
	records []models.ActionRecord
}

func (r *memRecorder) Record(_ context.Context, rec models.ActionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.ActionType)
	}
	return out
}

func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 1))
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

// connect wires host and guest together the way the websocket layer does.
func connect(t *testing.T, h *Host, g *Guest) (toGuest, toHost *pipeLink) {
	t.Helper()
	ctx := context.Background()
	toGuest = &pipeLink{t: t, remote: g}
	toHost = &pipeLink{t: t, remote: h}
	require.NoError(t, h.OnOpen(ctx, toGuest))
	require.NoError(t, g.OnOpen(ctx, toHost))
	return toGuest, toHost
}

func TestHandshakeAndDeal(t *testing.T) {
	h := NewHost(HostConfig{Name: "Ana", Seed: 42, Logger: quietLogger()})
	g := NewGuest("Ben", quietLogger())
	toGuest, _ := connect(t, h, g)

	require.True(t, g.Started())
	assert.Equal(t, GuestSeat, g.Seat())

	hs, gs := h.Session(), g.Session()
	assert.Equal(t, game.PhaseInProgress, hs.Phase)
	assert.Equal(t, "Ben", hs.Players[GuestSeat].Name)
	assert.Equal(t, "Ana", gs.Players[HostSeat].Name)
	assert.Empty(t, cmp.Diff(hs, gs), "mirror must equal the host state after the handshake")

	msgs := toGuest.messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, protocol.KindStartGame, msgs[0].Kind())
	assert.Equal(t, protocol.KindPlayerInfo, msgs[1].Kind())
	assert.Equal(t, protocol.KindGameStateUpdate, msgs[2].Kind())
}

func TestHostIgnoresRepeatedPlayerInfo(t *testing.T) {
	h := NewHost(HostConfig{Name: "Ana", Seed: 42, Logger: quietLogger()})
	g := NewGuest("Ben", quietLogger())
	toGuest, _ := connect(t, h, g)
	before := h.Session()

	h.OnData(context.Background(), protocol.PlayerInfo{Name: "Mallory"})
	assert.Equal(t, "Ben", h.Session().Players[GuestSeat].Name)
	assert.Equal(t, before.Version, h.Session().Version)
	assert.Len(t, toGuest.messages(), 3)
}

func TestFullGameKeepsMirrorInSync(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		h := NewHost(HostConfig{Name: "Ana", Seed: seed, Logger: quietLogger()})
		g := NewGuest("Ben", quietLogger())
		connect(t, h, g)

		ctx := context.Background()
		r := newTestRand(seed)
		for step := 0; step < 3000; step++ {
			hs := h.Session()
			if hs.Phase != game.PhaseInProgress {
				break
			}
			seat := hs.CurrentPlayerIndex

			var err error
			if seat == HostSeat {
				action, ok := game.NextBotAction(hs, seat, r)
				require.True(t, ok)
				err = h.Act(ctx, action)
			} else {
				// The guest decides from its mirror only.
				action, ok := game.NextBotAction(g.Session(), seat, r)
				require.True(t, ok)
				err = g.Act(ctx, action)
			}
			if errors.Is(err, game.ErrDeckExhausted) {
				break
			}
			require.NoError(t, err)

			hs, gs := h.Session(), g.Session()
			require.Empty(t, cmp.Diff(hs, gs), "seed %d step %d", seed, step)
			require.Equal(t, game.DeckSize, hs.CardCount())
		}
	}
}

func TestRejectedGuestIntentStillGetsState(t *testing.T) {
	h := NewHost(HostConfig{Name: "Ana", Seed: 7, Logger: quietLogger()})
	g := NewGuest("Ben", quietLogger())
	toGuest, _ := connect(t, h, g)
	before := h.Session()
	sent := len(toGuest.messages())

	// Seat 0 moves first, so the guest is out of turn.
	require.NoError(t, g.Act(context.Background(), game.DrawCard{}))

	msgs := toGuest.messages()
	require.Len(t, msgs, sent+1)
	update, ok := msgs[len(msgs)-1].(protocol.GameStateUpdate)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(before, update.GameState))
	assert.Empty(t, cmp.Diff(before, h.Session()))
}

func TestRejectedHostIntentSendsNothing(t *testing.T) {
	h := NewHost(HostConfig{Name: "Ana", Seed: 7, Logger: quietLogger()})
	g := NewGuest("Ben", quietLogger())
	toGuest, _ := connect(t, h, g)
	sent := len(toGuest.messages())

	err := h.Act(context.Background(), game.ChooseColor{Color: models.ColorBlue})
	assert.ErrorIs(t, err, game.ErrNotAwaitingColor)
	assert.Len(t, toGuest.messages(), sent)
}

func TestNewGameRedeals(t *testing.T) {
	rec := &memRecorder{}
	h := NewHost(HostConfig{Name: "Ana", Seed: 3, Logger: quietLogger(), Recorder: rec})
	g := NewGuest("Ben", quietLogger())
	toGuest, _ := connect(t, h, g)

	first := h.Session()
	require.NoError(t, h.SetOptions(game.Options{HandSize: 5}))
	require.NoError(t, h.NewGame(context.Background()))

	second := h.Session()
	assert.NotEqual(t, first.Seed, second.Seed)
	assert.Len(t, second.Players[HostSeat].Hand, 5)
	assert.Equal(t, "Ben", second.Players[GuestSeat].Name, "names survive a redeal")
	assert.Empty(t, cmp.Diff(second, g.Session()))

	msgs := toGuest.messages()
	start, ok := msgs[len(msgs)-1].(protocol.StartGame)
	require.True(t, ok)
	assert.Equal(t, GuestSeat, start.PlayerIndex)

	assert.Error(t, h.SetOptions(game.Options{HandSize: 0}))

	assert.Eventually(t, func() bool {
		n := 0
		for _, typ := range rec.types() {
			if typ == models.ActionGameStart {
				n++
			}
		}
		return n == 2
	}, time.Second, 10*time.Millisecond)
}

func TestHostMessageHandling(t *testing.T) {
	ctx := context.Background()
	h := NewHost(HostConfig{Name: "Ana", Seed: 9, Logger: quietLogger()})

	link := &mockLink{}
	link.On("Send", mock.Anything, mock.AnythingOfType("protocol.StartGame")).Return(nil).Once()
	require.NoError(t, h.OnOpen(ctx, link))

	// Only one guest per table.
	assert.ErrorIs(t, h.OnOpen(ctx, &mockLink{}), ErrSeatTaken)

	// Host-bound state messages from the guest are ignored.
	h.OnData(ctx, protocol.GameStateUpdate{})
	h.OnData(ctx, protocol.StartGame{PlayerIndex: 0})
	link.AssertNumberOfCalls(t, "Send", 1)

	link.On("Send", mock.Anything, mock.AnythingOfType("protocol.GameStateUpdate")).Return(nil).Once()
	h.OnData(ctx, protocol.CallUno{})
	link.AssertExpectations(t)
	assert.True(t, h.Session().HasCalledUno("player2"))

	var closed error
	h.OnChange = func(_ game.Session, err error) { closed = err }
	h.OnClose(errors.New("peer reset"))
	assert.EqualError(t, closed, "peer reset")
	assert.EqualError(t, h.Err(), "peer reset")
	assert.False(t, h.Connected())

	assert.EqualError(t, h.Act(ctx, game.DrawCard{}), "peer reset")
	assert.EqualError(t, h.NewGame(ctx), "peer reset")
	h.OnData(ctx, protocol.DrawCard{})
	link.AssertNumberOfCalls(t, "Send", 2)
}

func TestNewGameNeedsGuest(t *testing.T) {
	h := NewHost(HostConfig{Logger: quietLogger()})
	assert.ErrorIs(t, h.NewGame(context.Background()), ErrNotConnected)
	assert.ErrorIs(t, h.Act(context.Background(), game.DrawCard{}), game.ErrNotStarted)
	assert.Equal(t, "Player 1", h.Session().Players[HostSeat].Name)
}

func TestGuestClose(t *testing.T) {
	g := NewGuest("Ben", quietLogger())
	assert.ErrorIs(t, g.Act(context.Background(), game.DrawCard{}), ErrNotConnected)

	var notified error
	g.OnChange = func(_ game.Session, err error) { notified = err }
	g.OnClose(nil)
	assert.ErrorIs(t, notified, ErrLinkClosed)
	assert.ErrorIs(t, g.Act(context.Background(), game.DrawCard{}), ErrLinkClosed)

	// Terminal: later messages are dropped.
	g.OnData(context.Background(), protocol.StartGame{PlayerIndex: 1})
	assert.False(t, g.Started())
}

func TestGuestIgnoresStartGameForUnknownSeat(t *testing.T) {
	g := NewGuest("Ben", quietLogger())
	ctx := context.Background()
	for _, seat := range []int{-1, 2, 7} {
		g.OnData(ctx, protocol.StartGame{PlayerIndex: seat})
	}
	assert.False(t, g.Started())
	assert.Equal(t, GuestSeat, g.Seat())
	assert.NotPanics(t, func() { g.View() })

	s := game.NewSession(models.Player{ID: "player1", Name: "Ana"}, models.Player{ID: "player2", Name: "Ben"})
	s, err := game.Deal(s, game.DefaultOptions(), 1)
	require.NoError(t, err)
	g.OnData(ctx, protocol.StartGame{InitialState: s, PlayerIndex: GuestSeat})
	assert.True(t, g.Started())
	assert.Len(t, g.View().Hand, 7)
}

func TestGuestPlayerInfoNamesOpponent(t *testing.T) {
	g := NewGuest("Ben", quietLogger())
	g.OnData(context.Background(), protocol.PlayerInfo{Name: "Ana"})
	assert.Equal(t, "Ana", g.Session().Players[HostSeat].Name)
	assert.Equal(t, "Ana", g.View().Opponent.Name)
}

func TestStorePrune(t *testing.T) {
	s := NewStore()
	idle := NewHost(HostConfig{Logger: quietLogger()})
	closed := NewHost(HostConfig{Logger: quietLogger()})
	live := NewHost(HostConfig{Logger: quietLogger()})
	for _, h := range []*Host{idle, closed, live} {
		s.Add(h)
	}
	closed.OnClose(nil)

	link := &mockLink{}
	link.On("Send", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, live.OnOpen(context.Background(), link))

	assert.Equal(t, 1, s.Prune(time.Now(), time.Hour), "only the closed table goes")
	assert.Equal(t, 1, s.Prune(time.Now().Add(2*time.Hour), time.Hour), "the idle table expires")
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get(live.ID)
	require.True(t, ok)
	assert.Same(t, live, got)
	s.Delete(live.ID)
	assert.Zero(t, s.Len())
}
