package main

import (
	"hash/fnv"
	"image/color"

	"arrowfall/world"
)

// spriteScene keeps the per-entity draw state the reconciler does not own:
// a tint per player and the frame each arrow was first seen on. Positions
// are always read back from the reconciler.
type spriteScene struct {
	tints     map[string]color.RGBA
	arrowBorn map[world.ProjectileID]int
	trees     []world.Tree

	frame   int
	added   int
	removed int
}

func newSpriteScene() *spriteScene {
	return &spriteScene{
		tints:     make(map[string]color.RGBA),
		arrowBorn: make(map[world.ProjectileID]int),
	}
}

func (s *spriteScene) AddPlayer(id string) {
	s.tints[id] = playerTint(id)
	s.added++
}

func (s *spriteScene) RemovePlayer(id string) {
	delete(s.tints, id)
	s.removed++
}

func (s *spriteScene) AddProjectile(id world.ProjectileID) {
	s.arrowBorn[id] = s.frame
}

func (s *spriteScene) RemoveProjectile(id world.ProjectileID) {
	delete(s.arrowBorn, id)
}

func (s *spriteScene) SetTrees(trees []world.Tree) {
	s.trees = trees
}

// nextFrame advances the frame counter used for arrow fade-in.
func (s *spriteScene) nextFrame() { s.frame++ }

// arrowAlpha fades a new arrow in over its first few frames.
func (s *spriteScene) arrowAlpha(id world.ProjectileID) float32 {
	born, ok := s.arrowBorn[id]
	if !ok {
		return 1
	}
	const fadeFrames = 4
	age := s.frame - born
	if age >= fadeFrames {
		return 1
	}
	return float32(age+1) / (fadeFrames + 1)
}

func (s *spriteScene) tint(id string) color.RGBA {
	if c, ok := s.tints[id]; ok {
		return c
	}
	return playerTint(id)
}

// playerTint derives a stable, light colour from a player id so the same
// player looks the same across sessions.
func playerTint(id string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(id))
	v := h.Sum32()
	return color.RGBA{
		R: 160 + uint8(v&0x5f),
		G: 160 + uint8((v>>8)&0x5f),
		B: 160 + uint8((v>>16)&0x5f),
		A: 0xff,
	}
}
