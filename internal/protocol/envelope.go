package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by Decode for a well-formed envelope whose type is
// not one of the seven kinds. Both peers drop such frames.
var ErrUnknownKind = errors.New("unknown message type")

// ErrMissingPayload is returned for a state-carrying frame without a payload.
var ErrMissingPayload = errors.New("missing payload")

// Envelope is the JSON frame every message travels in.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps m in an envelope and marshals it.
func Encode(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", m.Kind(), err)
	}
	return json.Marshal(Envelope{Type: m.Kind(), Payload: payload})
}

// Decode parses one frame. Malformed JSON yields a wrapped json error; an
// unrecognized type yields ErrUnknownKind.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var m Message
	var err error
	switch env.Type {
	case KindStartGame, KindGameStateUpdate:
		if len(env.Payload) == 0 || string(env.Payload) == "null" {
			return nil, fmt.Errorf("decode %s: %w", env.Type, ErrMissingPayload)
		}
	}
	switch env.Type {
	case KindStartGame:
		m, err = decodePayload[StartGame](env.Payload)
	case KindGameStateUpdate:
		m, err = decodePayload[GameStateUpdate](env.Payload)
	case KindPlayCard:
		m, err = decodePayload[PlayCard](env.Payload)
	case KindDrawCard:
		m = DrawCard{}
	case KindChooseColor:
		m, err = decodePayload[ChooseColor](env.Payload)
	case KindCallUno:
		m = CallUno{}
	case KindPlayerInfo:
		m, err = decodePayload[PlayerInfo](env.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return m, nil
}

func decodePayload[T Message](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}
