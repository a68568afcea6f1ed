package netlink

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"arrowfall/wire"
)

func out(kind wire.Kind, data string) Outgoing {
	return Outgoing{Kind: kind, Data: []byte(data)}
}

func flushAll(t *testing.T, q *Queue) []string {
	t.Helper()
	var got []string
	if _, err := q.Flush(func(b []byte) error {
		got = append(got, string(b))
		return nil
	}); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return got
}

func TestQueueOrder(t *testing.T) {
	q := NewQueue(QueueConfig{})
	q.Push(out(wire.KindMove, "A"))
	q.Push(out(wire.KindShoot, "B"))
	q.Push(out(wire.KindMove, "C"))
	if got := flushAll(t, q); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Fatalf("flushed %v", got)
	}
	if q.Len() != 0 {
		t.Fatalf("queue not cleared: %d", q.Len())
	}
	if got := flushAll(t, q); len(got) != 0 {
		t.Fatalf("second flush wrote %v", got)
	}
}

func TestQueueEvictsOldest(t *testing.T) {
	q := NewQueue(QueueConfig{Capacity: 3})
	for _, s := range []string{"1", "2", "3"} {
		if q.Push(out(wire.KindMove, s)) {
			t.Fatalf("evicted before full")
		}
	}
	if !q.Push(out(wire.KindMove, "4")) {
		t.Fatalf("no eviction at capacity")
	}
	q.Push(out(wire.KindMove, "5"))
	if q.Evicted() != 2 {
		t.Fatalf("Evicted = %d", q.Evicted())
	}
	if got := flushAll(t, q); !reflect.DeepEqual(got, []string{"3", "4", "5"}) {
		t.Fatalf("flushed %v", got)
	}
}

func TestQueueFlushKeepsTailOnError(t *testing.T) {
	q := NewQueue(QueueConfig{})
	for _, s := range []string{"A", "B", "C", "D"} {
		q.Push(out(wire.KindMove, s))
	}
	boom := errors.New("boom")
	var wrote []string
	n, err := q.Flush(func(b []byte) error {
		if string(b) == "C" {
			return boom
		}
		wrote = append(wrote, string(b))
		return nil
	})
	if err != boom || n != 2 {
		t.Fatalf("Flush = %d, %v", n, err)
	}
	if got := flushAll(t, q); !reflect.DeepEqual(got, []string{"C", "D"}) {
		t.Fatalf("tail = %v", got)
	}
}

func TestQueueMaxAge(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := NewQueue(QueueConfig{MaxAge: time.Second})
	q.now = func() time.Time { return base }
	q.Push(Outgoing{Kind: wire.KindMove, Data: []byte("old"), At: base.Add(-2 * time.Second)})
	q.Push(Outgoing{Kind: wire.KindMove, Data: []byte("edge"), At: base.Add(-time.Second)})
	q.Push(out(wire.KindShoot, "new"))
	if got := flushAll(t, q); !reflect.DeepEqual(got, []string{"edge", "new"}) {
		t.Fatalf("flushed %v", got)
	}
	if q.Expired() != 1 {
		t.Fatalf("Expired = %d", q.Expired())
	}
}

func TestQueueCoalesceMoves(t *testing.T) {
	q := NewQueue(QueueConfig{CoalesceMoves: true})
	q.Push(out(wire.KindMove, "m1"))
	q.Push(out(wire.KindShoot, "s1"))
	q.Push(out(wire.KindMove, "m2"))
	q.Push(out(wire.KindNewPlayer, "n"))
	q.Push(out(wire.KindMove, "m3"))
	if got := flushAll(t, q); !reflect.DeepEqual(got, []string{"s1", "n", "m3"}) {
		t.Fatalf("flushed %v", got)
	}
}
