package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"arrowfall/predict"
)

func TestStatsPersist(t *testing.T) {
	dir := withDataDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loadStats(ctx)
	statArrowShot()
	statArrowShot()
	statMoved(12.5, 2*time.Second)
	statReconnect()
	saveStats()

	if _, err := os.Stat(filepath.Join(dir, statsFile)); err != nil {
		t.Fatalf("stats not written: %v", err)
	}

	loadStats(ctx)
	got := currentStats()
	want := playStats{Sessions: 2, ArrowsShot: 2, Distance: 12.5, PlaySeconds: 2, Reconnects: 1}
	if got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}
}

func TestStatsCorruptFile(t *testing.T) {
	dir := withDataDir(t)
	if err := os.WriteFile(filepath.Join(dir, statsFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loadStats(ctx)
	if got := currentStats(); got != (playStats{Sessions: 1}) {
		t.Fatalf("stats = %+v", got)
	}
}

func TestSessionCountsShotsAndDistance(t *testing.T) {
	withDataDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loadStats(ctx)

	s, _ := newTestSession(t)
	s.tick(frameInput{keys: predict.Keys{Right: true}}, 10*time.Millisecond, 0)
	s.tick(frameInput{pressed: true}, 0, 0)
	s.tick(frameInput{released: true}, 0, 0)

	st := currentStats()
	if st.ArrowsShot != 1 || st.Distance != 5 {
		t.Fatalf("stats = %+v", st)
	}
}
