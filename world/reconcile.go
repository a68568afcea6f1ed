package world

import (
	"log"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"arrowfall/collide"
	"arrowfall/wire"
)

// Report counts what one snapshot changed.
type Report struct {
	Created            int
	Updated            int
	Removed            int
	ProjectilesCreated int
	ProjectilesRemoved int
	Culled             int
	Skipped            int
	Trees              int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithInterpolation sets how long a remote player takes to glide to a new
// broadcast position. Zero snaps immediately.
func WithInterpolation(d time.Duration) Option {
	return func(r *Reconciler) { r.window = d }
}

// WithTreeSize sets the tree texture size and the scale it is drawn at.
func WithTreeSize(size collide.Vec, scale float64) Option {
	return func(r *Reconciler) {
		r.treeSize = collide.Vec{X: size.X * scale, Y: size.Y * scale}
	}
}

// WithWarnf routes malformed-entry warnings. They are rate limited.
func WithWarnf(fn func(format string, args ...any)) Option {
	return func(r *Reconciler) { r.warnf = fn }
}

type ownerSlots struct {
	slots []*Projectile // nil where the broadcast entry is not drawn
}

// Reconciler owns the remote entity tables for one session. It is not safe
// for concurrent use; the game loop drives it from a single goroutine.
type Reconciler struct {
	localID string
	scene   Scene

	players map[string]*RemotePlayer
	owners  map[string]*ownerSlots
	nextSeq uint64

	trees     []Tree
	obstacles *collide.Index

	window   time.Duration
	treeSize collide.Vec

	warnf      func(format string, args ...any)
	warnLimit  *rate.Limiter
	suppressed int
}

// NewReconciler creates a reconciler for the session whose own player is
// localID. A nil scene is replaced by NopScene.
func NewReconciler(localID string, scene Scene, opts ...Option) *Reconciler {
	if scene == nil {
		scene = NopScene{}
	}
	r := &Reconciler{
		localID:   localID,
		scene:     scene,
		players:   make(map[string]*RemotePlayer),
		owners:    make(map[string]*ownerSlots),
		obstacles: collide.NewIndex(nil),
		window:    DefaultInterpolation,
		treeSize:  DefaultTreeSize,
		warnf:     log.Printf,
		warnLimit: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Apply dispatches a decoded server message.
func (r *Reconciler) Apply(msg wire.ServerMessage) Report {
	switch msg.Type {
	case wire.TypePlayerList:
		return r.ApplyPlayerList(msg.Players)
	case wire.TypeMap:
		r.ApplyMap(msg.Trees)
		return Report{Trees: len(r.trees)}
	}
	return Report{}
}

// ApplyPlayerList reconciles a full PLAYER_LIST snapshot. Afterwards the
// remote players are exactly the snapshot's players other than the local
// one, and each owner's live projectiles are the broadcast entries that are
// inside the world and clear of obstacles.
//
// A malformed entry is skipped. If it still names a known player, that
// player and its projectiles are left as they were. An entry whose bullets
// value is not a list updates the player but leaves its projectiles alone.
func (r *Reconciler) ApplyPlayerList(players []wire.PlayerState) Report {
	var rep Report
	present := make(map[string]struct{}, len(players))

	for i := range players {
		ps := &players[i]
		if ps.Err != nil {
			rep.Skipped++
			r.warn("skip player entry %d (%q): %v", i, ps.PlayerID, ps.Err)
			if ps.PlayerID != "" {
				present[ps.PlayerID] = struct{}{}
			}
			continue
		}
		present[ps.PlayerID] = struct{}{}

		if ps.PlayerID != r.localID {
			r.upsertPlayer(ps, &rep)
		}
		if ps.BulletsErr != nil {
			// Unreadable list: keep the owner's arrows as they were.
			rep.Skipped++
			r.warn("skip bullets of %q: %v", ps.PlayerID, ps.BulletsErr)
			continue
		}
		r.reconcileProjectiles(ps.PlayerID, ps.Bullets, &rep)
	}

	for id := range r.players {
		if _, ok := present[id]; !ok {
			r.removePlayer(id)
			rep.Removed++
		}
	}
	for owner := range r.owners {
		if _, ok := present[owner]; !ok {
			rep.ProjectilesRemoved += r.dropOwner(owner)
		}
	}
	return rep
}

func (r *Reconciler) upsertPlayer(ps *wire.PlayerState, rep *Report) {
	target := collide.Vec{X: ps.X, Y: ps.Y}
	p, ok := r.players[ps.PlayerID]
	if !ok {
		p = &RemotePlayer{ID: ps.PlayerID, Position: target, Target: target, from: target, Look: ps.LookDirection}
		p.elapsed = r.window
		r.players[ps.PlayerID] = p
		r.scene.AddPlayer(ps.PlayerID)
		rep.Created++
		return
	}
	p.from = p.Position
	p.Target = target
	p.Look = ps.LookDirection
	p.elapsed = 0
	if r.window <= 0 {
		p.Position = target
	}
	rep.Updated++
}

func (r *Reconciler) removePlayer(id string) {
	delete(r.players, id)
	r.scene.RemovePlayer(id)
}

// reconcileProjectiles walks the owner's broadcast list once. Slot i of the
// local table tracks broadcast entry i; entries that fail the bounds or
// obstacle test hold no projectile, and no other slot moves when one is
// emptied.
func (r *Reconciler) reconcileProjectiles(owner string, bullets []wire.Bullet, rep *Report) {
	if len(bullets) == 0 {
		rep.ProjectilesRemoved += r.dropOwner(owner)
		return
	}
	owned, ok := r.owners[owner]
	if !ok {
		owned = &ownerSlots{}
		r.owners[owner] = owned
	}

	for i := len(bullets); i < len(owned.slots); i++ {
		if p := owned.slots[i]; p != nil {
			r.scene.RemoveProjectile(p.ID)
			rep.ProjectilesRemoved++
		}
	}
	if len(owned.slots) > len(bullets) {
		owned.slots = owned.slots[:len(bullets)]
	}
	for len(owned.slots) < len(bullets) {
		owned.slots = append(owned.slots, nil)
	}

	for i, b := range bullets {
		cur := owned.slots[i]
		pos := collide.Vec{X: b.X, Y: b.Y}
		if b.Err != nil || r.culled(pos) {
			if b.Err != nil {
				rep.Skipped++
				r.warn("skip bullet %d of %q: %v", i, owner, b.Err)
			} else {
				rep.Culled++
			}
			if cur != nil {
				r.scene.RemoveProjectile(cur.ID)
				rep.ProjectilesRemoved++
				owned.slots[i] = nil
			}
			continue
		}
		if cur == nil {
			r.nextSeq++
			cur = &Projectile{ID: ProjectileID{Owner: owner, Seq: r.nextSeq}}
			owned.slots[i] = cur
			r.scene.AddProjectile(cur.ID)
			rep.ProjectilesCreated++
		}
		cur.Slot = i
		cur.Position = pos
		cur.Angle = b.Angle
	}
}

func (r *Reconciler) culled(pos collide.Vec) bool {
	return collide.BorderCollision(pos) || r.obstacles.Hits(projectileBounds(pos))
}

// dropOwner removes every projectile of owner and returns how many there
// were.
func (r *Reconciler) dropOwner(owner string) int {
	owned, ok := r.owners[owner]
	if !ok {
		return 0
	}
	n := 0
	for _, p := range owned.slots {
		if p != nil {
			r.scene.RemoveProjectile(p.ID)
			n++
		}
	}
	delete(r.owners, owner)
	return n
}

// ApplyMap replaces the static map. Each tree's obstacle is its rendered
// bounds. The returned rectangles are in input order, malformed entries
// left out.
func (r *Reconciler) ApplyMap(trees []wire.Tree) []collide.Rect {
	r.trees = make([]Tree, 0, len(trees))
	rects := make([]collide.Rect, 0, len(trees))
	for i, t := range trees {
		if t.Err != nil {
			r.warn("skip tree %d: %v", i, t.Err)
			continue
		}
		tr := newTree(collide.Vec{X: t.X, Y: t.Y}, r.treeSize)
		r.trees = append(r.trees, tr)
		rects = append(rects, tr.Bounds())
	}
	r.obstacles = collide.NewIndex(rects)
	r.scene.SetTrees(append([]Tree(nil), r.trees...))
	return rects
}

// Advance moves every remote player along its interpolation path.
func (r *Reconciler) Advance(dt time.Duration) {
	for _, p := range r.players {
		if r.window <= 0 {
			p.Position = p.Target
			continue
		}
		p.elapsed += dt
		t := float64(p.elapsed) / float64(r.window)
		if t >= 1 {
			p.elapsed = r.window
			p.Position = p.Target
			continue
		}
		p.Position = p.from.Lerp(p.Target, t)
	}
}

// Reset forgets every remote player and projectile. The map is kept.
func (r *Reconciler) Reset() {
	for id := range r.players {
		r.removePlayer(id)
	}
	for owner := range r.owners {
		r.dropOwner(owner)
	}
}

// Players returns the remote players ordered by id.
func (r *Reconciler) Players() []*RemotePlayer {
	out := make([]*RemotePlayer, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Player looks up one remote player.
func (r *Reconciler) Player(id string) (*RemotePlayer, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *Reconciler) PlayerCount() int { return len(r.players) }

// Projectiles returns live projectiles ordered by owner, then slot.
func (r *Reconciler) Projectiles() []*Projectile {
	var out []*Projectile
	for _, owned := range r.owners {
		for _, p := range owned.slots {
			if p != nil {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID.Owner != out[j].ID.Owner {
			return out[i].ID.Owner < out[j].ID.Owner
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}

func (r *Reconciler) ProjectileCount() int {
	n := 0
	for _, owned := range r.owners {
		for _, p := range owned.slots {
			if p != nil {
				n++
			}
		}
	}
	return n
}

func (r *Reconciler) Trees() []Tree { return r.trees }

// Obstacles returns the obstacle rectangles of the current map.
func (r *Reconciler) Obstacles() []collide.Rect { return r.obstacles.Rects() }

// ObstacleIndex is the collision set built by the last ApplyMap.
func (r *Reconciler) ObstacleIndex() *collide.Index { return r.obstacles }

func (r *Reconciler) warn(format string, args ...any) {
	if r.warnf == nil {
		return
	}
	if !r.warnLimit.Allow() {
		r.suppressed++
		return
	}
	if r.suppressed > 0 {
		r.warnf("%d similar warnings suppressed", r.suppressed)
		r.suppressed = 0
	}
	r.warnf(format, args...)
}
