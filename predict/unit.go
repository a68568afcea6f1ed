// Package predict moves the local player immediately on input, gated by the
// obstacle set and the world border, without waiting for the server.
//
// The player sprite stays at a fixed screen anchor and the map scrolls under
// it: moving changes the map offset, and the player's map position is the
// sprite position minus that offset.
package predict

import (
	"math"
	"time"

	"arrowfall/collide"
	"arrowfall/wire"
	"arrowfall/world"
)

// DrawState is the bow state.
type DrawState int

const (
	Idle DrawState = iota
	Drawing
)

func (s DrawState) String() string {
	if s == Drawing {
		return "drawing"
	}
	return "idle"
}

// Keys are the movement keys held this frame.
type Keys struct {
	Up, Down, Left, Right bool
}

// Held reports whether any movement key is down.
func (k Keys) Held() bool { return k.Up || k.Down || k.Left || k.Right }

// Config sets the unit's geometry. Zero fields take the defaults below.
type Config struct {
	Anchor     collide.Vec // screen position of the sprite
	Speed      float64     // pixels per step on each axis
	BobAmount  float64     // bob amplitude in pixels
	BobSpeed   float64     // bob frequency in radians per millisecond
	PlayerSize collide.Vec // collision box
	Extent     float64
}

const (
	DefaultSpeed     = 5
	DefaultBobAmount = 1.5
	DefaultBobSpeed  = 0.04
	DefaultExtent    = collide.Extent
)

var DefaultPlayerSize = collide.Vec{X: 40, Y: 52}

func (c *Config) setDefaults() {
	if c.Speed == 0 {
		c.Speed = DefaultSpeed
	}
	if c.BobAmount == 0 {
		c.BobAmount = DefaultBobAmount
	}
	if c.BobSpeed == 0 {
		c.BobSpeed = DefaultBobSpeed
	}
	if c.PlayerSize == (collide.Vec{}) {
		c.PlayerSize = DefaultPlayerSize
	}
	if c.Extent == 0 {
		c.Extent = DefaultExtent
	}
}

// StepResult reports one movement step. Moved is set when a step with keys
// held was committed (even if opposite keys cancelled out), Blocked when the
// candidate move was rejected.
type StepResult struct {
	Offset  collide.Vec
	Moved   bool
	Blocked bool
}

// Unit is the local player. It is driven from the game loop only.
type Unit struct {
	cfg    Config
	offset collide.Vec
	sprite collide.Vec // screen position, Y includes the bob
	look   float64
	draw   DrawState
}

func New(cfg Config) *Unit {
	cfg.setDefaults()
	return &Unit{cfg: cfg, sprite: cfg.Anchor}
}

// Step applies one frame of held keys. The whole move is dropped if the
// player's box at the new position would overlap an obstacle or if its
// top-left would leave the world; nothing changes in that case.
func (u *Unit) Step(keys Keys, obstacles collide.Obstacles, now time.Duration) StepResult {
	var d collide.Vec
	if keys.Up {
		d.Y += u.cfg.Speed
	}
	if keys.Down {
		d.Y -= u.cfg.Speed
	}
	if keys.Left {
		d.X += u.cfg.Speed
	}
	if keys.Right {
		d.X -= u.cfg.Speed
	}

	cand := u.offset.Add(d)
	pos := u.sprite.Sub(cand)
	if collide.Outside(pos, u.cfg.Extent) ||
		(obstacles != nil && obstacles.Hits(collide.RectAt(pos, u.cfg.PlayerSize))) {
		return StepResult{Offset: u.offset, Blocked: true}
	}

	u.offset = cand
	moved := keys.Held()
	if moved {
		ms := float64(now) / float64(time.Millisecond)
		u.sprite.Y = u.cfg.Anchor.Y + math.Sin(ms*u.cfg.BobSpeed)*u.cfg.BobAmount
	} else {
		u.sprite.Y = u.cfg.Anchor.Y
	}
	return StepResult{Offset: u.offset, Moved: moved}
}

// Aim points the bow at a screen position.
func (u *Unit) Aim(pointer collide.Vec) {
	u.look = math.Atan2(pointer.Y-u.sprite.Y, pointer.X-u.sprite.X)
}

func (u *Unit) PointerDown() { u.draw = Drawing }

// PointerUp releases the bow. ok is false when the bow was not drawn, in
// which case nothing is fired.
func (u *Unit) PointerUp(playerID string) (shot wire.Shoot, ok bool) {
	if u.draw != Drawing {
		return wire.Shoot{}, false
	}
	u.draw = Idle
	p := u.Position()
	return wire.Shoot{PlayerID: playerID, Position: wire.Position{X: p.X, Y: p.Y}, Angle: u.look}, true
}

// SetAnchor moves the sprite to a new screen anchor, e.g. after a window
// resize. The offset moves with it so the map position is kept.
func (u *Unit) SetAnchor(a collide.Vec) {
	delta := a.Sub(u.cfg.Anchor)
	u.cfg.Anchor = a
	u.sprite = u.sprite.Add(delta)
	u.offset = u.offset.Add(delta)
}

// Move builds this frame's MOVE event.
func (u *Unit) Move(playerID string) wire.Move {
	p := u.Position()
	return wire.Move{PlayerID: playerID, Position: wire.Position{X: p.X, Y: p.Y}, LookDirection: u.look}
}

// Position is the player's map-space position.
func (u *Unit) Position() collide.Vec { return u.sprite.Sub(u.offset) }

// Bounds is the player's collision box in map space.
func (u *Unit) Bounds() collide.Rect { return collide.RectAt(u.Position(), u.cfg.PlayerSize) }

func (u *Unit) Offset() collide.Vec     { return u.offset }
func (u *Unit) Sprite() collide.Vec     { return u.sprite }
func (u *Unit) Anchor() collide.Vec     { return u.cfg.Anchor }
func (u *Unit) Look() float64           { return u.look }
func (u *Unit) DrawState() DrawState    { return u.draw }
func (u *Unit) Pose() world.Pose        { return world.PoseFor(u.look) }
func (u *Unit) PlayerSize() collide.Vec { return u.cfg.PlayerSize }
