package main

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"arrowfall/collide"
	"arrowfall/netlink"
	"arrowfall/predict"
	"arrowfall/wire"
	"arrowfall/world"
)

// transport is the network side as the game loop sees it. netlink.Link and
// the fake server both satisfy it.
type transport interface {
	Events() <-chan netlink.Event
	SendEvent(ev wire.Event) error
	Stats() netlink.Stats
}

// maxEventsPerFrame bounds how much inbound traffic one Update applies.
const maxEventsPerFrame = 64

var errApplyPanic = errors.New("panic while applying frame")

// frameInput is one frame of player input, already read from the devices.
type frameInput struct {
	keys         predict.Keys
	pointer      collide.Vec
	pointerMoved bool
	pressed      bool
	released     bool
}

// session is the single owner of game state. Every method runs on the game
// loop goroutine.
type session struct {
	id    string
	tr    transport
	world *world.Reconciler
	unit  *predict.Unit

	conn      netlink.State
	connSince time.Time
	lastErr   error
	connected bool // seen at least one StateConnected

	frames       int
	decodeErrors int
	sendErrors   int
	lastReport   world.Report
	lastStep     predict.StepResult
	started      time.Time

	now func() time.Time
}

type sessionConfig struct {
	ID            string
	Anchor        collide.Vec
	PlayerSize    collide.Vec
	TreeSize      collide.Vec
	TreeScale     float64
	Interpolation time.Duration
}

func newSession(cfg sessionConfig, tr transport, scene world.Scene) *session {
	if cfg.TreeScale <= 0 {
		cfg.TreeScale = 1
	}
	if cfg.TreeSize == (collide.Vec{}) {
		cfg.TreeSize = world.DefaultTreeSize
	}
	s := &session{
		id: cfg.ID,
		tr: tr,
		world: world.NewReconciler(cfg.ID, scene,
			world.WithInterpolation(cfg.Interpolation),
			world.WithTreeSize(cfg.TreeSize, cfg.TreeScale),
			world.WithWarnf(logWarn),
		),
		unit:    predict.New(predict.Config{Anchor: cfg.Anchor, PlayerSize: cfg.PlayerSize}),
		conn:    netlink.StateDisconnected,
		started: time.Now(),
		now:     time.Now,
	}
	s.connSince = s.started
	return s
}

// pump applies pending inbound events without blocking. A panic while
// applying a frame ends the pass; the remaining events wait for the next
// frame.
func (s *session) pump(max int) int {
	n := 0
	for n < max {
		select {
		case ev, ok := <-s.tr.Events():
			if !ok {
				return n
			}
			n++
			if err := s.handle(ev); errors.Is(err, errApplyPanic) {
				return n
			}
		default:
			return n
		}
	}
	return n
}

func (s *session) handle(ev netlink.Event) error {
	switch ev.Type {
	case netlink.EventState:
		s.setState(ev)
		return nil
	case netlink.EventServerMessage:
		return s.applyFrame(ev.Data)
	}
	return nil
}

func (s *session) setState(ev netlink.Event) {
	s.conn = ev.State
	s.connSince = s.now()
	switch ev.State {
	case netlink.StateConnected:
		s.lastErr = nil
		if ev.Reconnect {
			// Drop what we knew; the next snapshot is a full re-sync.
			s.world.Reset()
			statReconnect()
			logInfo("reconnected to server")
		} else {
			logInfo("connected to server")
		}
		s.connected = true
	case netlink.StateDisconnected:
		s.lastErr = ev.Err
		logWarn("disconnected: %v", ev.Err)
		if s.connected {
			notifyDesktop("arrowfall", "Connection to the server was lost. Reconnecting...")
		}
	}
}

// applyFrame decodes one server frame and reconciles it into the world.
func (s *session) applyFrame(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(r)
			err = errors.Wrapf(errApplyPanic, "%v", r)
		}
	}()
	msg, err := wire.DecodeServer(data)
	if err != nil {
		if errors.Cause(err) == wire.ErrUnknownType {
			logDebug("ignoring message type %q", msg.Type)
			return nil
		}
		s.decodeErrors++
		logWarn("drop frame: %v", err)
		return err
	}
	s.lastReport = s.world.Apply(msg)
	s.frames++
	if msg.Type == wire.TypeMap {
		logDebug("map: %d trees", s.lastReport.Trees)
	}
	return nil
}

// tick advances one frame: interpolation, aim, movement, bow, then the MOVE
// for this frame.
func (s *session) tick(in frameInput, dt, clock time.Duration) {
	s.world.Advance(dt)
	if in.pointerMoved {
		s.unit.Aim(in.pointer)
	}
	before := s.unit.Offset()
	s.lastStep = s.unit.Step(in.keys, s.world.ObstacleIndex(), clock)
	statMoved(math.Hypot(s.lastStep.Offset.X-before.X, s.lastStep.Offset.Y-before.Y), dt)
	if in.pressed {
		s.unit.PointerDown()
	}
	if in.released {
		if shot, ok := s.unit.PointerUp(s.id); ok {
			s.send(shot)
			statArrowShot()
		}
	}
	s.send(s.unit.Move(s.id))
}

func (s *session) send(ev wire.Event) {
	if err := s.tr.SendEvent(ev); err != nil {
		s.sendErrors++
		logDebug("send %s: %v", ev.Kind(), err)
	}
}
