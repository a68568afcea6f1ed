// Package netlink carries outbound events to the arena server over a
// websocket and hands inbound frames back to the game loop.
package netlink

import (
	"time"

	"arrowfall/wire"
)

// Outgoing is one encoded outbound frame.
type Outgoing struct {
	Kind wire.Kind
	Data []byte
	At   time.Time
}

// QueueConfig bounds the pending-send queue.
type QueueConfig struct {
	// Capacity is the most frames held; the oldest is evicted to make room.
	Capacity int
	// MaxAge drops frames older than this at flush time. Zero keeps all.
	MaxAge time.Duration
	// CoalesceMoves keeps only the newest MOVE: queuing one discards the
	// MOVEs already waiting.
	CoalesceMoves bool
}

const DefaultQueueCapacity = 4096

// Queue holds frames submitted while the socket is not open. It preserves
// submission order. It is not safe for concurrent use.
type Queue struct {
	cfg     QueueConfig
	items   []Outgoing
	evicted int
	expired int

	now func() time.Time
}

func NewQueue(cfg QueueConfig) *Queue {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultQueueCapacity
	}
	return &Queue{cfg: cfg, now: time.Now}
}

// Push appends o, stamping At if unset. It reports whether an older frame
// was evicted to make room.
func (q *Queue) Push(o Outgoing) (evicted bool) {
	if o.At.IsZero() {
		o.At = q.now()
	}
	if q.cfg.CoalesceMoves && o.Kind == wire.KindMove {
		kept := q.items[:0]
		for _, it := range q.items {
			if it.Kind != wire.KindMove {
				kept = append(kept, it)
			}
		}
		clear(q.items[len(kept):])
		q.items = kept
	}
	if len(q.items) >= q.cfg.Capacity {
		n := len(q.items) - q.cfg.Capacity + 1
		q.items = append(q.items[:0], q.items[n:]...)
		q.evicted += n
		evicted = true
	}
	q.items = append(q.items, o)
	return evicted
}

// Flush writes queued frames in order. It stops at the first write error
// and keeps that frame and everything after it. Frames past MaxAge are
// dropped without being written. It returns how many frames were written.
func (q *Queue) Flush(write func([]byte) error) (int, error) {
	now := q.now()
	n := 0
	for i, it := range q.items {
		if q.cfg.MaxAge > 0 && now.Sub(it.At) > q.cfg.MaxAge {
			q.expired++
			continue
		}
		if err := write(it.Data); err != nil {
			q.items = append(q.items[:0], q.items[i:]...)
			return n, err
		}
		n++
	}
	q.Clear()
	return n, nil
}

func (q *Queue) Clear() {
	clear(q.items)
	q.items = q.items[:0]
}

func (q *Queue) Len() int { return len(q.items) }

// Evicted is the number of frames pushed out by the capacity bound.
func (q *Queue) Evicted() int { return q.evicted }

// Expired is the number of frames dropped for exceeding MaxAge.
func (q *Queue) Expired() int { return q.expired }
