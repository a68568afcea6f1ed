package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"arrowfall/collide"
	"arrowfall/predict"
	"arrowfall/world"
)

const (
	bowScale        = 0.9
	projectileScale = 0.7
)

var (
	darkBG    = color.RGBA{0x1f, 0x2a, 0x1c, 0xff}
	lightBG   = color.RGBA{0x8f, 0xbf, 0x6a, 0xff}
	outsideBG = color.RGBA{0x10, 0x10, 0x10, 0xff}
)

// renderer draws the world in screen space. Map coordinates become screen
// coordinates by adding the local player's offset.
type renderer struct {
	sp    *sprites
	scene *spriteScene
	dark  bool
}

func (r *renderer) draw(screen *ebiten.Image, s *session) {
	off := s.unit.Offset()
	screen.Fill(outsideBG)
	r.drawGround(screen, off)

	for _, t := range s.world.Trees() {
		r.drawTreeShadow(screen, t, off)
	}
	for _, t := range s.world.Trees() {
		r.drawTree(screen, t, off)
	}
	for _, p := range s.world.Projectiles() {
		r.drawProjectile(screen, p, off)
	}
	for _, p := range s.world.Players() {
		r.drawPlayer(screen, p.Position.Add(off), p.Pose(), r.sp.bow, r.scene.tint(p.ID))
	}
	bow := r.sp.bow
	if s.unit.DrawState() == predict.Drawing {
		bow = r.sp.bowAlt
	}
	r.drawPlayer(screen, s.unit.Sprite(), s.unit.Pose(), bow, color.RGBA{0xff, 0xff, 0xff, 0xff})
}

func (r *renderer) drawGround(screen *ebiten.Image, off collide.Vec) {
	bg := lightBG
	if r.dark {
		bg = darkBG
	}
	x, y := float32(off.X), float32(off.Y)
	vector.DrawFilledRect(screen, x, y, collide.Extent, collide.Extent, bg, false)
	vector.StrokeRect(screen, x, y, collide.Extent, collide.Extent, 3, color.RGBA{0x5d, 0x40, 0x37, 0xff}, false)
}

func (r *renderer) drawTreeShadow(screen *ebiten.Image, t world.Tree, off collide.Vec) {
	sz := imageSize(r.sp.shadow)
	treeW := imageSize(r.sp.tree).X
	scale := 1.0
	if treeW > 0 {
		scale = t.Size.X / treeW
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-sz.X/2, -sz.Y/2)
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(t.Shadow.X+off.X, t.Shadow.Y+off.Y)
	op.ColorScale.ScaleAlpha(float32(t.ShadowAlpha))
	screen.DrawImage(r.sp.shadow, op)
}

func (r *renderer) drawTree(screen *ebiten.Image, t world.Tree, off collide.Vec) {
	sz := imageSize(r.sp.tree)
	op := &ebiten.DrawImageOptions{}
	if sz.X > 0 && sz.Y > 0 {
		op.GeoM.Scale(t.Size.X/sz.X, t.Size.Y/sz.Y)
	}
	op.GeoM.Translate(t.Position.X+off.X, t.Position.Y+off.Y)
	screen.DrawImage(r.sp.tree, op)
}

func (r *renderer) drawProjectile(screen *ebiten.Image, p *world.Projectile, off collide.Vec) {
	sz := imageSize(r.sp.arrow)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-sz.X/2, -sz.Y/2)
	op.GeoM.Scale(projectileScale, projectileScale)
	op.GeoM.Rotate(p.Angle)
	op.GeoM.Translate(p.Position.X+off.X, p.Position.Y+off.Y)
	op.ColorScale.ScaleAlpha(r.scene.arrowAlpha(p.ID))
	screen.DrawImage(r.sp.arrow, op)
}

// drawPlayer draws the shadow, body, bow and nocked arrow of one player
// centred at origin (screen space).
func (r *renderer) drawPlayer(screen *ebiten.Image, origin collide.Vec, pose world.Pose, bow *ebiten.Image, tint color.RGBA) {
	body := imageSize(r.sp.player)

	shadow := imageSize(r.sp.shadow)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-shadow.X/2, -shadow.Y/2)
	op.GeoM.Translate(origin.X, origin.Y+body.Y*world.BodyScale/2)
	op.ColorScale.ScaleAlpha(world.ShadowAlpha)
	screen.DrawImage(r.sp.shadow, op)

	op = &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-body.X/2, -body.Y/2)
	op.GeoM.Scale(pose.BodyScaleX, world.BodyScale)
	op.GeoM.Translate(origin.X, origin.Y)
	op.ColorScale.ScaleWithColor(tint)
	screen.DrawImage(r.sp.player, op)

	bowSz := imageSize(bow)
	op = &ebiten.DrawImageOptions{}
	op.GeoM.Translate(0, -bowSz.Y/2)
	op.GeoM.Scale(bowScale, bowScale)
	op.GeoM.Rotate(pose.BowRotation)
	op.GeoM.Translate(origin.X+pose.Bow.X, origin.Y+pose.Bow.Y)
	screen.DrawImage(bow, op)

	arrow := imageSize(r.sp.arrow)
	op = &ebiten.DrawImageOptions{}
	op.GeoM.Translate(0, -arrow.Y)
	op.GeoM.Scale(bowScale, bowScale)
	op.GeoM.Rotate(pose.ArrowRotation)
	op.GeoM.Translate(origin.X+pose.Arrow.X, origin.Y+pose.Arrow.Y)
	screen.DrawImage(r.sp.arrow, op)
}
