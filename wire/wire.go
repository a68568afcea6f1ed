// Package wire defines the JSON text frames exchanged with the arena server.
package wire

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Inbound message types.
const (
	TypePlayerList = "PLAYER_LIST"
	TypeMap        = "MAP"
)

// Kind tags an outbound event.
type Kind string

const (
	KindNewPlayer Kind = "NEW_PLAYER"
	KindMove      Kind = "MOVE"
	KindShoot     Kind = "SHOOT"
)

// ErrUnknownType is returned (wrapped) for frames whose type is not handled.
var ErrUnknownType = errors.New("unknown message type")

// Position is a map-space point as it appears on the wire.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Event is an outbound message.
type Event interface {
	Kind() Kind
}

// NewPlayer announces the client; it is always the first event sent.
type NewPlayer struct {
	PlayerID string
}

// Move reports the local player's map position and facing, once per frame.
type Move struct {
	PlayerID      string
	Position      Position
	LookDirection float64
}

// Shoot fires an arrow from Position at Angle radians.
type Shoot struct {
	PlayerID string
	Position Position
	Angle    float64
}

func (NewPlayer) Kind() Kind { return KindNewPlayer }
func (Move) Kind() Kind      { return KindMove }
func (Shoot) Kind() Kind     { return KindShoot }

type newPlayerFrame struct {
	PlayerID string `json:"playerId"`
	Event    Kind   `json:"event"`
}

type moveFrame struct {
	PlayerID      string   `json:"playerId"`
	Event         Kind     `json:"event"`
	Position      Position `json:"position"`
	LookDirection float64  `json:"lookDirection"`
}

type shootFrame struct {
	PlayerID string   `json:"playerId"`
	Event    Kind     `json:"event"`
	Position Position `json:"position"`
	Angle    float64  `json:"angle"`
}

// Encode serializes an outbound event into its text frame.
func Encode(ev Event) ([]byte, error) {
	var frame any
	switch e := ev.(type) {
	case NewPlayer:
		frame = newPlayerFrame{PlayerID: e.PlayerID, Event: KindNewPlayer}
	case Move:
		frame = moveFrame{PlayerID: e.PlayerID, Event: KindMove, Position: e.Position, LookDirection: e.LookDirection}
	case Shoot:
		frame = shootFrame{PlayerID: e.PlayerID, Event: KindShoot, Position: e.Position, Angle: e.Angle}
	case nil:
		return nil, errors.New("encode: nil event")
	default:
		return nil, errors.Errorf("encode: unsupported event %T", ev)
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", ev.Kind())
	}
	return b, nil
}
