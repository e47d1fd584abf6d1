package protocol

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jason-s-yu/duo/internal/game"
	"github.com/jason-s-yu/duo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeShape(t *testing.T) {
	data, err := Encode(ChooseColor{Color: models.ColorGreen})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"CHOOSE_COLOR","payload":{"color":"GREEN"}}`, string(data))

	data, err = Encode(PlayCard{Card: models.Card{ID: 12, Color: models.ColorRed, Rank: models.RankSkip}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PLAY_CARD","payload":{"card":{"id":12,"color":"RED","value":"SKIP"}}}`, string(data))
}

func TestStartGameCarriesFullState(t *testing.T) {
	s := game.NewSession(models.Player{ID: "player1", Name: "Host"}, models.Player{ID: "player2", Name: "Guest"})
	s, err := game.Deal(s, game.DefaultOptions(), 8)
	require.NoError(t, err)

	data, err := Encode(StartGame{InitialState: s, PlayerIndex: 1})
	require.NoError(t, err)

	m, err := Decode(data)
	require.NoError(t, err)
	start, ok := m.(StartGame)
	require.True(t, ok)
	assert.Equal(t, 1, start.PlayerIndex)
	assert.Empty(t, cmp.Diff(s, start.InitialState))
}

func TestDecodeBodylessKinds(t *testing.T) {
	m, err := Decode([]byte(`{"type":"DRAW_CARD"}`))
	require.NoError(t, err)
	assert.Equal(t, DrawCard{}, m)

	m, err = Decode([]byte(`{"type":"CALL_UNO","payload":{}}`))
	require.NoError(t, err)
	assert.Equal(t, CallUno{}, m)
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode([]byte(`{"type":"SHUFFLE_EVERYTHING","payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownKind)

	for _, frame := range []string{`{"type":"START_GAME"}`, `{"type":"GAME_STATE_UPDATE","payload":null}`} {
		_, err = Decode([]byte(frame))
		assert.ErrorIs(t, err, ErrMissingPayload, frame)
	}

	_, err = Decode([]byte(`{"type":"PLAYER_INFO","payload":{"name":7}}`))
	var typeErr *json.UnmarshalTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestIntentMapping(t *testing.T) {
	c := models.Card{ID: 3, Color: models.ColorBlue, Rank: models.NumberRank(4)}
	for _, m := range []Message{PlayCard{Card: c}, DrawCard{}, ChooseColor{Color: models.ColorRed}, CallUno{}} {
		a, ok := IntentFor(m)
		require.True(t, ok, m.Kind())
		back, ok := MessageFor(a)
		require.True(t, ok)
		assert.Equal(t, m, back)
	}

	_, ok := IntentFor(PlayerInfo{Name: "x"})
	assert.False(t, ok)
	_, ok = IntentFor(GameStateUpdate{})
	assert.False(t, ok)
}
