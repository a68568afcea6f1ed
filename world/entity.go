// Package world reconciles server snapshots into the set of remote players,
// projectiles and trees the client draws.
package world

import (
	"fmt"
	"math"
	"time"

	"arrowfall/collide"
)

const (
	// BowRadius is the distance from a player's origin to the bow anchor.
	BowRadius = 10
	// BodyScale is the magnitude of the body sprite's scale; its sign follows
	// the facing.
	BodyScale = 1.3
	// ProjectileSize is the side of the square used to cull projectiles.
	ProjectileSize = 10
	// ShadowOffsetY drops a tree's shadow below the tree's centre.
	ShadowOffsetY = 45
	ShadowAlpha   = 0.5

	DefaultInterpolation = 150 * time.Millisecond
)

// DefaultTreeSize is the tree sprite size used when the renderer does not
// report one.
var DefaultTreeSize = collide.Vec{X: 64, Y: 64}

// Facing returns +1 when look points rightward (strictly between -π/2 and
// π/2) and -1 otherwise.
func Facing(look float64) float64 {
	if look < math.Pi/2 && look > -math.Pi/2 {
		return 1
	}
	return -1
}

// Pose is the sprite layout of a player for a look direction. Offsets are
// relative to the player's origin.
type Pose struct {
	BodyScaleX    float64
	Bow           collide.Vec
	BowRotation   float64
	Arrow         collide.Vec
	ArrowRotation float64
}

// PoseFor lays out the bow and nocked arrow around the body.
func PoseFor(look float64) Pose {
	c, s := math.Cos(look), math.Sin(look)
	bow := collide.Vec{X: c * BowRadius, Y: s * BowRadius}
	return Pose{
		BodyScaleX:    BodyScale * Facing(look),
		Bow:           bow,
		BowRotation:   look,
		Arrow:         collide.Vec{X: bow.X + c, Y: bow.Y + s},
		ArrowRotation: look,
	}
}

// RemotePlayer is another player as last reported by the server. Position
// is the interpolated draw position; Target is the broadcast one.
type RemotePlayer struct {
	ID       string
	Position collide.Vec
	Target   collide.Vec
	Look     float64

	from    collide.Vec
	elapsed time.Duration
}

func (p *RemotePlayer) Pose() Pose { return PoseFor(p.Look) }

// ProjectileID names a projectile for its whole visible life. Seq is handed
// out in first-sight order, so it stays put when other projectiles of the
// same owner disappear.
type ProjectileID struct {
	Owner string
	Seq   uint64
}

func (id ProjectileID) String() string { return fmt.Sprintf("%s#%d", id.Owner, id.Seq) }

// Projectile is one live arrow. Slot is its index in the owner's latest
// broadcast list.
type Projectile struct {
	ID       ProjectileID
	Slot     int
	Position collide.Vec
	Angle    float64
}

// Bounds is the box used for border and obstacle culling.
func (p *Projectile) Bounds() collide.Rect {
	return projectileBounds(p.Position)
}

func projectileBounds(pos collide.Vec) collide.Rect {
	return collide.Rect{X: pos.X, Y: pos.Y, W: ProjectileSize, H: ProjectileSize}
}

// Tree is a static map decoration. Position is the sprite's top-left and
// Size its rendered (scaled) size; the collision rectangle is derived from
// both. Shadow is the centre of the shadow sprite.
type Tree struct {
	Position    collide.Vec
	Size        collide.Vec
	Shadow      collide.Vec
	ShadowAlpha float64
}

func (t Tree) Bounds() collide.Rect { return collide.RectAt(t.Position, t.Size) }

func newTree(pos, size collide.Vec) Tree {
	return Tree{
		Position:    pos,
		Size:        size,
		Shadow:      collide.Vec{X: pos.X + size.X/2, Y: pos.Y + size.Y/2 + ShadowOffsetY},
		ShadowAlpha: ShadowAlpha,
	}
}

// Scene is the presentation side of the reconciler. It is told when visual
// entities appear and disappear; positions are read back from the
// reconciler when drawing.
type Scene interface {
	AddPlayer(id string)
	RemovePlayer(id string)
	AddProjectile(id ProjectileID)
	RemoveProjectile(id ProjectileID)
	SetTrees(trees []Tree)
}

// NopScene ignores every notification.
type NopScene struct{}

func (NopScene) AddPlayer(string)              {}
func (NopScene) RemovePlayer(string)           {}
func (NopScene) AddProjectile(ProjectileID)    {}
func (NopScene) RemoveProjectile(ProjectileID) {}
func (NopScene) SetTrees([]Tree)               {}
