package main

import (
	"testing"

	"arrowfall/world"
)

func TestPlayerTintStable(t *testing.T) {
	a, b := playerTint("alice"), playerTint("alice")
	if a != b {
		t.Fatalf("tint changed: %v vs %v", a, b)
	}
	if a.A != 0xff || a.R < 160 || a.G < 160 || a.B < 160 {
		t.Fatalf("tint %v is not a light opaque colour", a)
	}
	if playerTint("alice") == playerTint("bob") {
		t.Logf("alice and bob share a tint")
	}
}

func TestSpriteSceneTracksEntities(t *testing.T) {
	s := newSpriteScene()
	s.AddPlayer("A")
	s.AddPlayer("B")
	s.RemovePlayer("A")
	if len(s.tints) != 1 || s.added != 2 || s.removed != 1 {
		t.Fatalf("tints=%d added=%d removed=%d", len(s.tints), s.added, s.removed)
	}
	if s.tint("B") != playerTint("B") {
		t.Fatalf("tint for B not cached")
	}

	s.SetTrees([]world.Tree{{}, {}})
	if len(s.trees) != 2 {
		t.Fatalf("trees = %d", len(s.trees))
	}
}

func TestArrowFadeIn(t *testing.T) {
	s := newSpriteScene()
	id := world.ProjectileID{Owner: "A", Seq: 1}
	s.AddProjectile(id)
	first := s.arrowAlpha(id)
	if first <= 0 || first >= 1 {
		t.Fatalf("new arrow alpha = %v", first)
	}
	prev := first
	for i := 0; i < 4; i++ {
		s.nextFrame()
		a := s.arrowAlpha(id)
		if a < prev {
			t.Fatalf("alpha went down: %v -> %v", prev, a)
		}
		prev = a
	}
	if prev != 1 {
		t.Fatalf("alpha after fade = %v", prev)
	}
	s.RemoveProjectile(id)
	if s.arrowAlpha(id) != 1 {
		t.Fatalf("unknown arrow should be opaque")
	}
}
