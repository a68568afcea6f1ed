package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"arrowfall/collide"
)

// maxFrameStep caps dt after a stall so interpolation does not jump.
const maxFrameStep = 250 * time.Millisecond

// Game implements ebiten.Game on top of a session.
type Game struct {
	ctx   context.Context
	s     *session
	r     *renderer
	scene *spriteScene
	in    inputReader

	lastUpdate time.Time
	screenW    int
	screenH    int
}

func newGame(ctx context.Context, s *session, r *renderer, scene *spriteScene) *Game {
	return &Game{ctx: ctx, s: s, r: r, scene: scene}
}

func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}
	for _, h := range justPressedHotkeys() {
		if err := runHotkey(h, g.s.id); err != nil {
			return err
		}
	}

	now := g.s.now()
	dt := time.Duration(0)
	if !g.lastUpdate.IsZero() {
		dt = min(now.Sub(g.lastUpdate), maxFrameStep)
	}
	g.lastUpdate = now

	g.scene.nextFrame()
	g.s.pump(maxEventsPerFrame)
	g.s.tick(g.in.read(), dt, now.Sub(g.s.started))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.r.draw(screen, g.s)
	if screenshotRequested {
		screenshotRequested = false
		if fn, err := takeScreenshot(screen, g.s.id); err != nil {
			logError("screenshot: %v", err)
		} else {
			logInfo("snapshot taken: %s", filepath.Base(fn))
		}
	}
	if gs.ShowHUD {
		drawHUD(screen, hudLines(g.s.hudStats(ebiten.ActualFPS())), g.r.dark)
	}
}

// Layout keeps the local player centred on screen and remembers the window
// size for the next run.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.screenW || outsideHeight != g.screenH {
		g.screenW, g.screenH = outsideWidth, outsideHeight
		g.s.unit.SetAnchor(collide.Vec{X: float64(outsideWidth) / 2, Y: float64(outsideHeight) / 2})
		if outsideWidth >= 320 && outsideHeight >= 240 {
			gs.WindowWidth, gs.WindowHeight = outsideWidth, outsideHeight
		}
	}
	return outsideWidth, outsideHeight
}

func runGame(g *Game) {
	ebiten.SetWindowTitle("Arrowfall")
	ebiten.SetWindowSize(gs.WindowWidth, gs.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(g); err != nil {
		logError("ebiten: %v", err)
	}
	saveSettings()
	saveStats()
}
