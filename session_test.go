package main

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"arrowfall/collide"
	"arrowfall/netlink"
	"arrowfall/predict"
	"arrowfall/wire"
	"arrowfall/world"
)

type fakeTransport struct {
	t       *testing.T
	events  chan netlink.Event
	sent    []wire.Event
	sendErr error
}

func newFakeTransport(t *testing.T) *fakeTransport {
	return &fakeTransport{t: t, events: make(chan netlink.Event, 128)}
}

func (f *fakeTransport) Events() <-chan netlink.Event { return f.events }

func (f *fakeTransport) SendEvent(ev wire.Event) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakeTransport) Stats() netlink.Stats {
	return netlink.Stats{Sent: int64(len(f.sent))}
}

// frame queues an encoded server frame; it takes the encoder's results
// directly.
func (f *fakeTransport) frame(data []byte, err error) {
	f.t.Helper()
	if err != nil {
		f.t.Fatalf("encode: %v", err)
	}
	f.events <- netlink.Event{Type: netlink.EventServerMessage, Data: data}
}

func (f *fakeTransport) state(st netlink.State, reconnect bool) {
	f.events <- netlink.Event{Type: netlink.EventState, State: st, Reconnect: reconnect}
}

func newTestSession(t *testing.T) (*session, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport(t)
	s := newSession(sessionConfig{
		ID:            "me",
		Anchor:        collide.Vec{X: 400, Y: 300},
		Interpolation: time.Nanosecond,
	}, tr, nil)
	return s, tr
}

func TestSessionAppliesSnapshots(t *testing.T) {
	s, tr := newTestSession(t)
	tr.state(netlink.StateConnected, false)
	tr.frame(wire.EncodeMap([]wire.Tree{{X: 100, Y: 100}}))
	tr.frame(wire.EncodePlayerList([]wire.PlayerState{
		{PlayerID: "A", X: 10, Y: 10, Bullets: []wire.Bullet{{X: 500, Y: 500}}},
		{PlayerID: "me", X: 400, Y: 300},
	}))

	if n := s.pump(maxEventsPerFrame); n != 3 {
		t.Fatalf("pump = %d, want 3", n)
	}
	if s.conn != netlink.StateConnected {
		t.Fatalf("state = %v", s.conn)
	}
	if got := s.world.PlayerCount(); got != 1 {
		t.Fatalf("players = %d, want 1 (local excluded)", got)
	}
	if p, ok := s.world.Player("A"); !ok || p.Target != (collide.Vec{X: 10, Y: 10}) {
		t.Fatalf("player A = %+v, %v", p, ok)
	}
	if got := s.world.ProjectileCount(); got != 1 {
		t.Fatalf("projectiles = %d", got)
	}
	if got := len(s.world.Trees()); got != 1 {
		t.Fatalf("trees = %d", got)
	}
	if s.frames != 2 {
		t.Fatalf("frames = %d", s.frames)
	}
}

func TestSessionPumpIsBounded(t *testing.T) {
	s, tr := newTestSession(t)
	for i := 0; i < 10; i++ {
		tr.frame(wire.EncodePlayerList(nil))
	}
	if n := s.pump(4); n != 4 {
		t.Fatalf("first pump = %d", n)
	}
	if n := s.pump(100); n != 6 {
		t.Fatalf("second pump = %d", n)
	}
	if n := s.pump(100); n != 0 {
		t.Fatalf("empty pump = %d", n)
	}
}

func TestSessionPumpClosedChannel(t *testing.T) {
	s, tr := newTestSession(t)
	close(tr.events)
	if n := s.pump(10); n != 0 {
		t.Fatalf("pump on closed channel = %d", n)
	}
}

func TestSessionBadFrames(t *testing.T) {
	s, tr := newTestSession(t)
	tr.events <- netlink.Event{Type: netlink.EventServerMessage, Data: []byte("{not json")}
	tr.events <- netlink.Event{Type: netlink.EventServerMessage, Data: []byte(`{"type":"CHAT","text":"hi"}`)}
	tr.frame(wire.EncodePlayerList([]wire.PlayerState{{PlayerID: "A", X: 1, Y: 1}}))
	s.pump(maxEventsPerFrame)

	if s.decodeErrors != 1 {
		t.Fatalf("decodeErrors = %d, want 1", s.decodeErrors)
	}
	if s.world.PlayerCount() != 1 {
		t.Fatalf("good frame after bad ones was not applied")
	}
}

func TestSessionReconnectResyncs(t *testing.T) {
	s, tr := newTestSession(t)
	tr.state(netlink.StateConnected, false)
	tr.frame(wire.EncodeMap([]wire.Tree{{X: 100, Y: 100}}))
	tr.frame(wire.EncodePlayerList([]wire.PlayerState{{PlayerID: "A", X: 1, Y: 1}}))
	s.pump(maxEventsPerFrame)

	tr.events <- netlink.Event{Type: netlink.EventState, State: netlink.StateDisconnected, Err: errors.New("eof")}
	tr.state(netlink.StateConnected, true)
	s.pump(maxEventsPerFrame)

	if s.world.PlayerCount() != 0 {
		t.Fatalf("players survived a reconnect")
	}
	if len(s.world.Trees()) != 1 {
		t.Fatalf("map was dropped on reconnect")
	}
	if s.lastErr != nil {
		t.Fatalf("lastErr = %v after reconnect", s.lastErr)
	}
}

func TestSessionNotifiesOnLostConnection(t *testing.T) {
	s, tr := newTestSession(t)
	t.Setenv("DISPLAY", ":0")
	oldLimiter, oldNotify := notifyLimiter, desktopNotify
	notifyLimiter = rate.NewLimiter(rate.Inf, 1)
	var calls int
	desktopNotify = func(title, body string) error { calls++; return nil }
	t.Cleanup(func() { notifyLimiter, desktopNotify = oldLimiter, oldNotify })

	// A failure before the first connection is not worth a notification.
	tr.events <- netlink.Event{Type: netlink.EventState, State: netlink.StateDisconnected, Err: errors.New("refused")}
	s.pump(maxEventsPerFrame)
	if calls != 0 {
		t.Fatalf("notified before ever connecting")
	}

	tr.state(netlink.StateConnected, false)
	tr.events <- netlink.Event{Type: netlink.EventState, State: netlink.StateDisconnected, Err: errors.New("eof")}
	s.pump(maxEventsPerFrame)
	if calls != 1 {
		t.Fatalf("notifications = %d, want 1", calls)
	}
}

func TestSessionTickSendsMoveEveryFrame(t *testing.T) {
	s, tr := newTestSession(t)
	s.tick(frameInput{}, 16*time.Millisecond, 0)
	s.tick(frameInput{keys: predict.Keys{Left: true}}, 16*time.Millisecond, 16*time.Millisecond)

	if len(tr.sent) != 2 {
		t.Fatalf("sent %d events, want 2", len(tr.sent))
	}
	first, ok := tr.sent[0].(wire.Move)
	if !ok || first.PlayerID != "me" || first.Position != (wire.Position{X: 400, Y: 300}) {
		t.Fatalf("first = %+v", tr.sent[0])
	}
	// Left scrolls the map right, so the player moves left on the map.
	second := tr.sent[1].(wire.Move)
	if second.Position.X != 395 {
		t.Fatalf("second.X = %v, want 395", second.Position.X)
	}
	if !s.lastStep.Moved {
		t.Fatalf("step not reported as moved")
	}
}

func TestSessionTickShoots(t *testing.T) {
	s, tr := newTestSession(t)
	s.tick(frameInput{pointer: collide.Vec{X: 500, Y: 300}, pointerMoved: true, pressed: true}, 0, 0)
	if s.unit.DrawState() != predict.Drawing {
		t.Fatalf("bow not drawn after press")
	}
	s.tick(frameInput{released: true}, 0, 0)

	var shots []wire.Shoot
	for _, ev := range tr.sent {
		if sh, ok := ev.(wire.Shoot); ok {
			shots = append(shots, sh)
		}
	}
	if len(shots) != 1 {
		t.Fatalf("shots = %d, want 1", len(shots))
	}
	if shots[0].Angle != 0 || shots[0].Position != (wire.Position{X: 400, Y: 300}) {
		t.Fatalf("shot = %+v", shots[0])
	}
	// The SHOOT goes out before that frame's MOVE.
	if _, ok := tr.sent[len(tr.sent)-1].(wire.Move); !ok {
		t.Fatalf("last event = %T, want Move", tr.sent[len(tr.sent)-1])
	}

	// Releasing again without a press does nothing.
	n := len(tr.sent)
	s.tick(frameInput{released: true}, 0, 0)
	if len(tr.sent) != n+1 {
		t.Fatalf("release without press sent %d events", len(tr.sent)-n)
	}
}

func TestSessionTickBlockedByTree(t *testing.T) {
	s, tr := newTestSession(t)
	// Local player at (400,300) with a 40x52 box; a 64x64 tree ends at y=300.
	tr.frame(wire.EncodeMap([]wire.Tree{{X: 400, Y: 236}}))
	s.pump(maxEventsPerFrame)

	s.tick(frameInput{keys: predict.Keys{Up: true}}, 0, 0)
	if !s.lastStep.Blocked {
		t.Fatalf("step into a tree was not blocked")
	}
	if got := s.unit.Position(); got != (collide.Vec{X: 400, Y: 300}) {
		t.Fatalf("position = %+v", got)
	}
}

func TestSessionSendErrorsCounted(t *testing.T) {
	s, tr := newTestSession(t)
	tr.sendErr = errors.New("mailbox full")
	s.tick(frameInput{}, 0, 0)
	if s.sendErrors != 1 {
		t.Fatalf("sendErrors = %d", s.sendErrors)
	}
}

func TestSessionInterpolatesRemotes(t *testing.T) {
	tr := newFakeTransport(t)
	s := newSession(sessionConfig{ID: "me", Interpolation: 100 * time.Millisecond}, tr, world.NopScene{})
	tr.frame(wire.EncodePlayerList([]wire.PlayerState{{PlayerID: "A", X: 0, Y: 0}}))
	tr.frame(wire.EncodePlayerList([]wire.PlayerState{{PlayerID: "A", X: 100, Y: 0}}))
	s.pump(maxEventsPerFrame)

	s.tick(frameInput{}, 50*time.Millisecond, 0)
	p, _ := s.world.Player("A")
	if p.Position.X != 50 {
		t.Fatalf("halfway X = %v, want 50", p.Position.X)
	}
}

// panicOnceScene panics on its first AddPlayer and is quiet afterwards.
type panicOnceScene struct {
	world.NopScene
	panicked bool
}

func (s *panicOnceScene) AddPlayer(id string) {
	if !s.panicked {
		s.panicked = true
		panic("scene blew up adding " + id)
	}
}

func TestSessionPanicDefersRestOfQueue(t *testing.T) {
	tr := newFakeTransport(t)
	s := newSession(sessionConfig{ID: "me", Interpolation: time.Nanosecond}, tr, &panicOnceScene{})
	tr.frame(wire.EncodePlayerList([]wire.PlayerState{{PlayerID: "A", X: 1, Y: 1}}))
	tr.frame(wire.EncodePlayerList([]wire.PlayerState{{PlayerID: "B", X: 2, Y: 2}}))
	tr.frame(wire.EncodeMap([]wire.Tree{{X: 100, Y: 100}}))

	if n := s.pump(maxEventsPerFrame); n != 1 {
		t.Fatalf("pump after panic = %d, want 1", n)
	}
	if got := len(tr.events); got != 2 {
		t.Fatalf("queued events = %d, want 2 left for the next frame", got)
	}
	if _, ok := s.world.Player("B"); ok {
		t.Fatalf("frame after the panic was applied in the same pass")
	}

	if n := s.pump(maxEventsPerFrame); n != 2 {
		t.Fatalf("second pump = %d, want 2", n)
	}
	if _, ok := s.world.Player("B"); !ok {
		t.Fatalf("player B not applied on the next frame")
	}
	if got := len(s.world.Trees()); got != 1 {
		t.Fatalf("trees = %d", got)
	}
}
