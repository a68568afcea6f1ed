package main

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"arrowfall/collide"
	"arrowfall/netlink"
	"arrowfall/wire"
)

// fakeServer simulates the arena in-process so the client can run without
// a server (-fake). It owns a few wandering bots that shoot, mirrors the
// local player from its MOVE events and broadcasts snapshots like the real
// server would.
type fakeServer struct {
	cfg fakeConfig

	inbox  chan wire.Event
	events chan netlink.Event

	trees    []wire.Tree
	treeIdx  *collide.Index
	players  map[string]*fakePlayer
	botOrder []string
	elapsed  time.Duration

	sent, dropped atomic.Int64
	bytesIn       atomic.Int64
}

type fakeConfig struct {
	Seed      int64
	Bots      int
	Trees     int
	TreeSize  collide.Vec
	Tick      time.Duration
	ArrowStep float64 // pixels per tick
	ArrowLife time.Duration
	ShootGap  time.Duration
}

func (c *fakeConfig) setDefaults() {
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Bots == 0 {
		c.Bots = 3
	}
	if c.Trees == 0 {
		c.Trees = 40
	}
	if c.TreeSize == (collide.Vec{}) {
		c.TreeSize = collide.Vec{X: 64, Y: 64}
	}
	if c.Tick == 0 {
		c.Tick = 50 * time.Millisecond
	}
	if c.ArrowStep == 0 {
		c.ArrowStep = 18
	}
	if c.ArrowLife == 0 {
		c.ArrowLife = 2 * time.Second
	}
	if c.ShootGap == 0 {
		c.ShootGap = 1500 * time.Millisecond
	}
}

type fakeArrow struct {
	pos   collide.Vec
	angle float64
	age   time.Duration
}

type fakePlayer struct {
	id     string
	pos    collide.Vec
	look   float64
	arrows []fakeArrow

	// bots only
	center    collide.Vec
	radius    float64
	phase     float64
	sinceShot time.Duration
}

func newFakeServer(cfg fakeConfig) *fakeServer {
	cfg.setDefaults()
	f := &fakeServer{
		cfg:     cfg,
		inbox:   make(chan wire.Event, 256),
		events:  make(chan netlink.Event, 64),
		players: make(map[string]*fakePlayer),
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	var rects []collide.Rect
	for i := 0; i < cfg.Trees; i++ {
		t := wire.Tree{X: math.Round(rng.Float64() * (collide.Extent - cfg.TreeSize.X)), Y: math.Round(rng.Float64() * (collide.Extent - cfg.TreeSize.Y))}
		f.trees = append(f.trees, t)
		rects = append(rects, collide.RectAt(collide.Vec{X: t.X, Y: t.Y}, cfg.TreeSize))
	}
	f.treeIdx = collide.NewIndex(rects)
	for i := 0; i < cfg.Bots; i++ {
		id := "bot-" + string(rune('a'+i))
		b := &fakePlayer{
			id:     id,
			center: collide.Vec{X: 300 + rng.Float64()*1400, Y: 300 + rng.Float64()*1400},
			radius: 80 + rng.Float64()*120,
			phase:  rng.Float64() * 2 * math.Pi,
		}
		b.sinceShot = time.Duration(rng.Int63n(int64(cfg.ShootGap)))
		f.players[id] = b
		f.botOrder = append(f.botOrder, id)
	}
	return f
}

func (f *fakeServer) Events() <-chan netlink.Event { return f.events }

func (f *fakeServer) SendEvent(ev wire.Event) error {
	select {
	case f.inbox <- ev:
		f.sent.Add(1)
		return nil
	default:
		f.dropped.Add(1)
		return errors.Errorf("fake server: inbox full, dropped %s", ev.Kind())
	}
}

func (f *fakeServer) Stats() netlink.Stats {
	return netlink.Stats{Sent: f.sent.Load(), Dropped: f.dropped.Load(), BytesIn: f.bytesIn.Load()}
}

// Run connects, sends the map and then a snapshot every tick until ctx
// ends.
func (f *fakeServer) Run(ctx context.Context) error {
	defer close(f.events)
	if !f.emit(ctx, netlink.Event{Type: netlink.EventState, State: netlink.StateConnected}) {
		return ctx.Err()
	}
	if data, err := wire.EncodeMap(f.trees); err == nil {
		f.emit(ctx, netlink.Event{Type: netlink.EventServerMessage, Data: data})
	}
	ticker := time.NewTicker(f.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-f.inbox:
			f.receive(ev)
		case <-ticker.C:
			f.step(f.cfg.Tick)
			data, err := f.snapshot()
			if err != nil {
				logError("fake server: %v", err)
				continue
			}
			if !f.emit(ctx, netlink.Event{Type: netlink.EventServerMessage, Data: data}) {
				return ctx.Err()
			}
		}
	}
}

func (f *fakeServer) emit(ctx context.Context, ev netlink.Event) bool {
	select {
	case f.events <- ev:
		f.bytesIn.Add(int64(len(ev.Data)))
		return true
	case <-ctx.Done():
		return false
	}
}

// receive applies one client event the way the server would.
func (f *fakeServer) receive(ev wire.Event) {
	switch e := ev.(type) {
	case wire.NewPlayer:
		f.player(e.PlayerID)
	case wire.Move:
		p := f.player(e.PlayerID)
		p.pos = collide.Vec{X: e.Position.X, Y: e.Position.Y}
		p.look = e.LookDirection
	case wire.Shoot:
		p := f.player(e.PlayerID)
		p.arrows = append(p.arrows, fakeArrow{pos: collide.Vec{X: e.Position.X, Y: e.Position.Y}, angle: e.Angle})
	}
}

func (f *fakeServer) player(id string) *fakePlayer {
	p, ok := f.players[id]
	if !ok {
		p = &fakePlayer{id: id}
		f.players[id] = p
	}
	return p
}

// step moves bots and arrows forward by dt. Arrows die when they leave the
// world, hit a tree or grow old.
func (f *fakeServer) step(dt time.Duration) {
	f.elapsed += dt
	secs := f.elapsed.Seconds()
	for _, id := range f.botOrder {
		b := f.players[id]
		a := b.phase + secs*0.8
		b.pos = collide.Vec{X: b.center.X + math.Cos(a)*b.radius, Y: b.center.Y + math.Sin(a)*b.radius}
		b.look = a + math.Pi/2
		b.sinceShot += dt
		if b.sinceShot >= f.cfg.ShootGap {
			b.sinceShot = 0
			b.arrows = append(b.arrows, fakeArrow{pos: b.pos, angle: b.look})
		}
	}
	for _, p := range f.players {
		kept := p.arrows[:0]
		for _, ar := range p.arrows {
			ar.age += dt
			ar.pos = ar.pos.Add(collide.Vec{X: math.Cos(ar.angle) * f.cfg.ArrowStep, Y: math.Sin(ar.angle) * f.cfg.ArrowStep})
			if ar.age > f.cfg.ArrowLife || collide.BorderCollision(ar.pos) ||
				f.treeIdx.Hits(collide.Rect{X: ar.pos.X, Y: ar.pos.Y, W: 10, H: 10}) {
				continue
			}
			kept = append(kept, ar)
		}
		p.arrows = kept
	}
}

func (f *fakeServer) snapshot() ([]byte, error) {
	ids := make([]string, 0, len(f.players))
	for id := range f.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	list := make([]wire.PlayerState, 0, len(ids))
	for _, id := range ids {
		p := f.players[id]
		ps := wire.PlayerState{PlayerID: id, X: p.pos.X, Y: p.pos.Y, LookDirection: p.look}
		for _, ar := range p.arrows {
			ps.Bullets = append(ps.Bullets, wire.Bullet{X: ar.pos.X, Y: ar.pos.Y, Angle: ar.angle})
		}
		list = append(list, ps)
	}
	return wire.EncodePlayerList(list)
}
