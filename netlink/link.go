package netlink

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"arrowfall/wire"
)

// State is the connection state reported to the game loop.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// EventType distinguishes inbound events.
type EventType int

const (
	EventServerMessage EventType = iota
	EventState
)

// Event is posted by the link to the game loop. Data is set for
// EventServerMessage; State, Reconnect and Err for EventState.
type Event struct {
	Type      EventType
	Data      []byte
	State     State
	Reconnect bool
	Err       error
}

// Config sets up a Link. Zero durations and sizes take the defaults below.
type Config struct {
	URL      string
	PlayerID string // greeting identity; empty sends no greeting

	Queue QueueConfig

	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	ReadLimit    int64

	RetryInitial time.Duration
	RetryMax     time.Duration

	Mailbox     int // control messages buffered from the game loop
	EventBuffer int

	Dialer *websocket.Dialer
	Logf   func(format string, args ...any)
}

const (
	DefaultPingInterval = 25 * time.Second
	DefaultPongWait     = 60 * time.Second
	DefaultWriteWait    = 10 * time.Second
	DefaultReadLimit    = 1 << 20
	DefaultRetryInitial = 250 * time.Millisecond
	DefaultRetryMax     = 10 * time.Second
	DefaultMailbox      = 1024
	DefaultEventBuffer  = 256
)

func (c *Config) setDefaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PongWait <= 0 {
		c.PongWait = DefaultPongWait
	}
	if c.WriteWait <= 0 {
		c.WriteWait = DefaultWriteWait
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = DefaultReadLimit
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = DefaultRetryInitial
	}
	if c.RetryMax <= 0 {
		c.RetryMax = DefaultRetryMax
	}
	if c.Mailbox <= 0 {
		c.Mailbox = DefaultMailbox
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	if c.Dialer == nil {
		c.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
}

// Stats is a snapshot of the link's counters.
type Stats struct {
	Sent       int64
	Received   int64
	BytesOut   int64
	BytesIn    int64
	Dropped    int64
	Reconnects int64
	Queued     int64
}

type stats struct {
	sent, received, bytesOut, bytesIn, dropped, reconnects, queued atomic.Int64
}

type ctrlOp int

const (
	opInit ctrlOp = iota
	opSend
)

type ctrl struct {
	op  ctrlOp
	url string
	out Outgoing
}

// Link is the transport worker. Run owns the socket and the pending queue;
// the game loop talks to it only through Init, Send and Events.
type Link struct {
	cfg    Config
	ctrl   chan ctrl
	events chan Event
	queue  *Queue
	url    string
	stats  stats
}

func New(cfg Config) *Link {
	cfg.setDefaults()
	return &Link{
		cfg:    cfg,
		ctrl:   make(chan ctrl, cfg.Mailbox),
		events: make(chan Event, cfg.EventBuffer),
		queue:  NewQueue(cfg.Queue),
		url:    cfg.URL,
	}
}

// Init tells the worker which server to dial. Only the first call counts.
func (l *Link) Init(url string) bool {
	return l.post(ctrl{op: opInit, url: url})
}

// Send submits a frame. It never blocks; if the mailbox is full the frame is
// dropped and counted.
func (l *Link) Send(o Outgoing) bool {
	if o.At.IsZero() {
		o.At = time.Now()
	}
	return l.post(ctrl{op: opSend, out: o})
}

// SendEvent encodes ev and submits it.
func (l *Link) SendEvent(ev wire.Event) error {
	b, err := wire.Encode(ev)
	if err != nil {
		return err
	}
	if !l.Send(Outgoing{Kind: ev.Kind(), Data: b}) {
		return errors.Errorf("send %s: mailbox full", ev.Kind())
	}
	return nil
}

func (l *Link) post(c ctrl) bool {
	select {
	case l.ctrl <- c:
		return true
	default:
		l.stats.dropped.Add(1)
		return false
	}
}

// Events delivers inbound frames and state changes in arrival order. It is
// closed when Run returns.
func (l *Link) Events() <-chan Event { return l.events }

func (l *Link) Stats() Stats {
	return Stats{
		Sent:       l.stats.sent.Load(),
		Received:   l.stats.received.Load(),
		BytesOut:   l.stats.bytesOut.Load(),
		BytesIn:    l.stats.bytesIn.Load(),
		Dropped:    l.stats.dropped.Load(),
		Reconnects: l.stats.reconnects.Load(),
		Queued:     l.stats.queued.Load(),
	}
}

// Run waits for a URL, then keeps a connection open until ctx ends,
// redialling with exponential backoff after every failure. It returns
// ctx's error.
func (l *Link) Run(ctx context.Context) error {
	defer close(l.events)

	for l.url == "" {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-l.ctrl:
			l.handle(c)
		}
	}

	for attempt := 0; ; attempt++ {
		conn, err := l.connect(ctx)
		if err != nil {
			return err
		}
		if attempt > 0 {
			l.stats.reconnects.Add(1)
		}
		if !l.emit(ctx, Event{Type: EventState, State: StateConnected, Reconnect: attempt > 0}) {
			conn.Close()
			return ctx.Err()
		}

		err = l.serve(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.cfg.Logf("link: connection lost: %v", err)
		if !l.emit(ctx, Event{Type: EventState, State: StateDisconnected, Err: err}) {
			return ctx.Err()
		}
	}
}

// handle applies a control message outside a live connection.
func (l *Link) handle(c ctrl) {
	switch c.op {
	case opInit:
		if l.url == "" {
			l.url = c.url
		}
	case opSend:
		l.enqueue(c.out)
	}
}

func (l *Link) enqueue(o Outgoing) {
	if l.queue.Push(o) {
		l.stats.dropped.Add(1)
	}
	l.stats.queued.Store(int64(l.queue.Len()))
}

type dialResult struct {
	conn *websocket.Conn
	err  error
}

// connect dials in the background so sends submitted meanwhile keep landing
// in the queue.
func (l *Link) connect(ctx context.Context) (*websocket.Conn, error) {
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan dialResult, 1)
	go func() {
		conn, err := l.dialRetry(dctx)
		done <- dialResult{conn, err}
	}()
	for {
		select {
		case r := <-done:
			if r.err != nil && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return r.conn, r.err
		case c := <-l.ctrl:
			l.handle(c)
		}
	}
}

func (l *Link) dialRetry(ctx context.Context) (*websocket.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.cfg.RetryInitial
	b.MaxInterval = l.cfg.RetryMax
	b.MaxElapsedTime = 0

	var conn *websocket.Conn
	op := func() error {
		c, _, err := l.cfg.Dialer.DialContext(ctx, l.url, nil)
		if err != nil {
			return errors.Wrapf(err, "dial %s", l.url)
		}
		conn = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		l.cfg.Logf("link: %v; retrying in %s", err, wait)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return conn, nil
}

// serve runs one connection: greeting, queued frames, then live sends and
// keepalive pings until a read or write fails or ctx ends.
func (l *Link) serve(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(l.cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(l.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(l.cfg.PongWait))
	})

	done := make(chan struct{})
	readErr := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		readErr <- l.readLoop(ctx, conn, done)
	}()
	defer func() {
		close(done)
		conn.Close()
		wg.Wait()
	}()

	if err := l.greet(conn); err != nil {
		return err
	}
	if err := l.flush(conn); err != nil {
		return err
	}

	ping := time.NewTicker(l.cfg.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(l.cfg.WriteWait))
			return ctx.Err()
		case err := <-readErr:
			return err
		case c := <-l.ctrl:
			if c.op != opSend {
				continue
			}
			l.enqueue(c.out)
			if err := l.flush(conn); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(l.cfg.WriteWait)); err != nil {
				return errors.Wrap(err, "ping")
			}
		}
	}
}

func (l *Link) greet(conn *websocket.Conn) error {
	if l.cfg.PlayerID == "" {
		return nil
	}
	b, err := wire.Encode(wire.NewPlayer{PlayerID: l.cfg.PlayerID})
	if err != nil {
		return err
	}
	return l.write(conn, b)
}

// flush drains the queue onto conn. Frames that could not be written stay
// queued for the next connection.
func (l *Link) flush(conn *websocket.Conn) error {
	before := l.queue.Expired()
	_, err := l.queue.Flush(func(b []byte) error { return l.write(conn, b) })
	l.stats.dropped.Add(int64(l.queue.Expired() - before))
	l.stats.queued.Store(int64(l.queue.Len()))
	return err
}

func (l *Link) write(conn *websocket.Conn, b []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(l.cfg.WriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return errors.Wrap(err, "write")
	}
	l.stats.sent.Add(1)
	l.stats.bytesOut.Add(int64(len(b)))
	return nil
}

func (l *Link) readLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) error {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read")
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		l.stats.received.Add(1)
		l.stats.bytesIn.Add(int64(len(data)))
		select {
		case l.events <- Event{Type: EventServerMessage, Data: data}:
		case <-done:
			return errors.New("read: connection closed")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// emit posts a state event, giving up only if ctx ends.
func (l *Link) emit(ctx context.Context, ev Event) bool {
	select {
	case l.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
