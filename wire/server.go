package wire

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ServerMessage is one decoded inbound frame. Only the fields for Type are
// populated.
type ServerMessage struct {
	Type    string
	Players []PlayerState
	Trees   []Tree
}

// PlayerState is one entry of a PLAYER_LIST snapshot. Entries missing a
// required field decode without failing the whole frame; Err describes the
// problem and only PlayerID may be trusted. BulletsErr is set when the
// bullets value is not a list; Bullets is then nil and means "unknown", not
// "none".
type PlayerState struct {
	PlayerID      string
	X             float64
	Y             float64
	LookDirection float64
	Bullets       []Bullet
	Err           error
	BulletsErr    error
}

// Bullet is one projectile in its owner's list. Err is set when a field is
// missing.
type Bullet struct {
	X     float64
	Y     float64
	Angle float64
	Err   error
}

// Tree is one MAP entry.
type Tree struct {
	X   float64
	Y   float64
	Err error
}

type envelope struct {
	Type    string          `json:"type"`
	Players json.RawMessage `json:"players"`
	Trees   json.RawMessage `json:"trees"`
}

// DecodeServer parses a server text frame. Frames that are not JSON objects
// fail; unknown types return the message with its Type set and an error
// wrapping ErrUnknownType.
func DecodeServer(data []byte) (ServerMessage, error) {
	if len(data) == 0 {
		return ServerMessage{}, errors.New("decode server message: empty frame")
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ServerMessage{}, errors.Wrap(err, "decode server message")
	}
	msg := ServerMessage{Type: env.Type}
	switch env.Type {
	case TypePlayerList:
		if err := decodeList(env.Players, &msg.Players); err != nil {
			return msg, errors.Wrap(err, "decode players")
		}
	case TypeMap:
		if err := decodeList(env.Trees, &msg.Trees); err != nil {
			return msg, errors.Wrap(err, "decode trees")
		}
	default:
		return msg, errors.Wrapf(ErrUnknownType, "type %q", env.Type)
	}
	return msg, nil
}

// decodeList accepts a missing or null list as empty.
func decodeList(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

type rawPlayer struct {
	PlayerID      *string         `json:"playerId"`
	X             *float64        `json:"x"`
	Y             *float64        `json:"y"`
	LookDirection *float64        `json:"lookDirection"`
	Bullets       json.RawMessage `json:"bullets"`
}

// UnmarshalJSON never fails; problems are recorded in Err.
func (p *PlayerState) UnmarshalJSON(b []byte) error {
	*p = PlayerState{}
	var raw rawPlayer
	err := json.Unmarshal(b, &raw)
	// A type error still fills the other fields, so the id survives it.
	if raw.PlayerID != nil {
		p.PlayerID = *raw.PlayerID
	}
	if err != nil {
		p.Err = errors.Wrap(err, "player entry")
		return nil
	}
	switch {
	case raw.PlayerID == nil || *raw.PlayerID == "":
		p.Err = missing("playerId")
	case raw.X == nil:
		p.Err = missing("x")
	case raw.Y == nil:
		p.Err = missing("y")
	case raw.LookDirection == nil:
		p.Err = missing("lookDirection")
	}
	if p.Err != nil {
		return nil
	}
	p.X, p.Y, p.LookDirection = *raw.X, *raw.Y, *raw.LookDirection
	if err := decodeList(raw.Bullets, &p.Bullets); err != nil {
		p.Bullets = nil
		p.BulletsErr = errors.Wrap(err, "bullets")
	}
	return nil
}

type rawBullet struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Angle *float64 `json:"angle"`
}

// UnmarshalJSON never fails; problems are recorded in Err.
func (bl *Bullet) UnmarshalJSON(b []byte) error {
	*bl = Bullet{}
	var raw rawBullet
	if err := json.Unmarshal(b, &raw); err != nil {
		bl.Err = errors.Wrap(err, "bullet entry")
		return nil
	}
	switch {
	case raw.X == nil:
		bl.Err = missing("x")
	case raw.Y == nil:
		bl.Err = missing("y")
	case raw.Angle == nil:
		bl.Err = missing("angle")
	default:
		bl.X, bl.Y, bl.Angle = *raw.X, *raw.Y, *raw.Angle
	}
	return nil
}

type rawTree struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// UnmarshalJSON never fails; problems are recorded in Err.
func (t *Tree) UnmarshalJSON(b []byte) error {
	*t = Tree{}
	var raw rawTree
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Err = errors.Wrap(err, "tree entry")
		return nil
	}
	switch {
	case raw.X == nil:
		t.Err = missing("x")
	case raw.Y == nil:
		t.Err = missing("y")
	default:
		t.X, t.Y = *raw.X, *raw.Y
	}
	return nil
}

func missing(field string) error {
	return errors.Errorf("missing field %q", field)
}

// EncodePlayerList builds a PLAYER_LIST frame. The client never sends one;
// the fake feed and tests do.
func EncodePlayerList(players []PlayerState) ([]byte, error) {
	type bullet struct {
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		Angle float64 `json:"angle"`
	}
	type player struct {
		PlayerID      string   `json:"playerId"`
		X             float64  `json:"x"`
		Y             float64  `json:"y"`
		LookDirection float64  `json:"lookDirection"`
		Bullets       []bullet `json:"bullets,omitempty"`
	}
	out := struct {
		Type    string   `json:"type"`
		Players []player `json:"players"`
	}{Type: TypePlayerList, Players: make([]player, 0, len(players))}
	for _, p := range players {
		pl := player{PlayerID: p.PlayerID, X: p.X, Y: p.Y, LookDirection: p.LookDirection}
		for _, b := range p.Bullets {
			pl.Bullets = append(pl.Bullets, bullet{X: b.X, Y: b.Y, Angle: b.Angle})
		}
		out.Players = append(out.Players, pl)
	}
	b, err := json.Marshal(out)
	return b, errors.Wrap(err, "encode player list")
}

// EncodeMap builds a MAP frame from tree positions.
func EncodeMap(trees []Tree) ([]byte, error) {
	out := struct {
		Type  string     `json:"type"`
		Trees []Position `json:"trees"`
	}{Type: TypeMap, Trees: make([]Position, 0, len(trees))}
	for _, t := range trees {
		out.Trees = append(out.Trees, Position{X: t.X, Y: t.Y})
	}
	b, err := json.Marshal(out)
	return b, errors.Wrap(err, "encode map")
}
