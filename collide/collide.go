// Package collide holds the axis-aligned rectangle and world-border predicates
// shared by local movement and projectile culling.
package collide

// Extent is the side length of the square world. Valid positions lie in
// [0,Extent] on both axes.
const Extent = 2000

// Vec is a point or size in map space.
type Vec struct {
	X float64
	Y float64
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Lerp returns the point t of the way from v to o. t is not clamped.
func (v Vec) Lerp(o Vec, t float64) Vec {
	return Vec{v.X + t*(o.X-v.X), v.Y + t*(o.Y-v.Y)}
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// RectAt builds a rectangle of the given size whose top-left is p.
func RectAt(p, size Vec) Rect {
	return Rect{X: p.X, Y: p.Y, W: size.X, H: size.Y}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Vec { return Vec{r.X + r.W, r.Y + r.H} }

// Intersects reports whether a and b overlap. The projections must overlap
// strictly on both axes, so rectangles that only share an edge do not
// intersect.
func Intersects(a, b Rect) bool {
	return a.X < b.X+b.W &&
		a.X+a.W > b.X &&
		a.Y < b.Y+b.H &&
		a.Y+a.H > b.Y
}

// BorderCollision reports whether p lies outside [0,Extent]x[0,Extent].
// Points exactly on the border are inside.
func BorderCollision(p Vec) bool {
	return Outside(p, Extent)
}

// Outside is BorderCollision for a world of the given extent.
func Outside(p Vec, extent float64) bool {
	return p.X < 0 || p.X > extent || p.Y < 0 || p.Y > extent
}

// Obstacles answers whether a rectangle overlaps any static obstacle.
type Obstacles interface {
	Hits(r Rect) bool
}

// List is the plain insertion-ordered obstacle set.
type List []Rect

// Hits implements Obstacles with a linear scan.
func (l List) Hits(r Rect) bool {
	for _, o := range l {
		if Intersects(r, o) {
			return true
		}
	}
	return false
}
