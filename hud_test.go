package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"arrowfall/collide"
	"arrowfall/netlink"
	"arrowfall/wire"
)

func TestHUDLines(t *testing.T) {
	lines := hudLines(hudStats{
		ID:          "abc",
		State:       netlink.StateConnected,
		StateFor:    90 * time.Second,
		Players:     3,
		Projectiles: 7,
		Trees:       40,
		Position:    collide.Vec{X: 640.4, Y: 359.6},
		Bow:         "drawing",
		Net:         netlink.Stats{Sent: 12345, BytesOut: 2048, Received: 10, BytesIn: 3 << 20, Queued: 2},
		Frames:      1500,
	})
	joined := strings.Join(lines, "\n")
	for _, want := range []string{
		"Connected for 1 m",
		"Player: abc",
		"Position: 640, 360  Bow: Drawing",
		"Players: 3  Arrows: 7  Trees: 40",
		"Sent: 12,345 msgs (2.0 kB)",
		"Recv: 10 msgs (3.1 MB)",
		"Queued: 2",
		"Frames: 1,500",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("HUD missing %q:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "Last Error") {
		t.Errorf("error line shown while connected")
	}
}

func TestHUDShowsLastError(t *testing.T) {
	lines := hudLines(hudStats{State: netlink.StateDisconnected, LastErr: errors.New("connection refused")})
	if !strings.HasPrefix(lines[0], "Disconnected for") {
		t.Fatalf("first line = %q", lines[0])
	}
	if lines[1] != "Last Error: connection refused" {
		t.Fatalf("second line = %q", lines[1])
	}
}

func TestSessionHUDStats(t *testing.T) {
	s, tr := newTestSession(t)
	start := time.Unix(1000, 0)
	s.now = func() time.Time { return start.Add(5 * time.Second) }
	s.connSince = start
	tr.frame(wire.EncodePlayerList([]wire.PlayerState{{PlayerID: "A", X: 1, Y: 1}}))
	s.pump(maxEventsPerFrame)

	st := s.hudStats(60)
	if st.ID != "me" || st.Players != 1 || st.StateFor != 5*time.Second || st.FPS != 60 {
		t.Fatalf("stats = %+v", st)
	}
	if st.Bow != "idle" {
		t.Fatalf("bow = %q", st.Bow)
	}
}

func TestHUDLifetimeLine(t *testing.T) {
	lines := hudLines(hudStats{Lifetime: playStats{Sessions: 3, ArrowsShot: 1200, Distance: 5000, PlaySeconds: 3725.4, Reconnects: 4}})
	joined := strings.Join(lines, "\n")
	for _, want := range []string{
		"Lifetime: 1,200 arrows, 5,000 px walked over 3 sessions",
		"Played: 1 h 2 m  Reconnects: 4",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("HUD missing %q:\n%s", want, joined)
		}
	}
}
