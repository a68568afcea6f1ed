package main

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hajimehoshi/ebiten/v2"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/hako/durafmt"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"arrowfall/collide"
	"arrowfall/netlink"
)

var (
	hudUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")
	titleCaser  = cases.Title(language.AmericanEnglish)

	hudFace text.Face
)

const hudLineHeight = 16

// hudStats is everything the overlay shows, gathered once per frame.
type hudStats struct {
	ID          string
	State       netlink.State
	StateFor    time.Duration
	LastErr     error
	Players     int
	Projectiles int
	Trees       int
	Position    collide.Vec
	Bow         string
	Net         netlink.Stats
	Frames      int
	DecodeErrs  int
	FPS         float64
	Lifetime    playStats
}

func (s *session) hudStats(fps float64) hudStats {
	return hudStats{
		ID:          s.id,
		State:       s.conn,
		StateFor:    s.now().Sub(s.connSince),
		LastErr:     s.lastErr,
		Players:     s.world.PlayerCount(),
		Projectiles: s.world.ProjectileCount(),
		Trees:       len(s.world.Trees()),
		Position:    s.unit.Position(),
		Bow:         s.unit.DrawState().String(),
		Net:         s.tr.Stats(),
		Frames:      s.frames,
		DecodeErrs:  s.decodeErrors,
		FPS:         fps,
		Lifetime:    currentStats(),
	}
}

func hudLines(st hudStats) []string {
	state := titleCaser.String(st.State.String())
	lines := []string{
		fmt.Sprintf("%s for %s", state, durafmt.Parse(st.StateFor.Truncate(time.Second)).LimitFirstN(2).Format(hudUnits)),
	}
	if st.LastErr != nil && st.State != netlink.StateConnected {
		lines = append(lines, fmt.Sprintf("Last Error: %v", st.LastErr))
	}
	lines = append(lines,
		fmt.Sprintf("Player: %s", st.ID),
		fmt.Sprintf("Position: %.0f, %.0f  Bow: %s", st.Position.X, st.Position.Y, titleCaser.String(st.Bow)),
		fmt.Sprintf("Players: %d  Arrows: %d  Trees: %d", st.Players, st.Projectiles, st.Trees),
		fmt.Sprintf("Sent: %s msgs (%s)  Recv: %s msgs (%s)",
			humanize.Comma(st.Net.Sent), humanize.Bytes(uint64(st.Net.BytesOut)),
			humanize.Comma(st.Net.Received), humanize.Bytes(uint64(st.Net.BytesIn))),
		fmt.Sprintf("Queued: %d  Dropped: %d  Reconnects: %d", st.Net.Queued, st.Net.Dropped, st.Net.Reconnects),
		fmt.Sprintf("Frames: %s  Bad: %d  FPS: %.0f", humanize.Comma(int64(st.Frames)), st.DecodeErrs, st.FPS),
		fmt.Sprintf("Lifetime: %s arrows, %s px walked over %d sessions",
			humanize.Comma(int64(st.Lifetime.ArrowsShot)), humanize.Comma(int64(st.Lifetime.Distance)), st.Lifetime.Sessions),
		fmt.Sprintf("Played: %s  Reconnects: %d", formatPlayTime(st.Lifetime.PlaySeconds), st.Lifetime.Reconnects),
	)
	return lines
}

func formatPlayTime(secs float64) string {
	d := time.Duration(secs * float64(time.Second)).Truncate(time.Second)
	return durafmt.Parse(d).LimitFirstN(2).Format(hudUnits)
}

func initHUDFont() {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		logError("hud font: %v", err)
		return
	}
	hudFace = &text.GoTextFace{Source: src, Size: 13}
}

func drawHUD(screen *ebiten.Image, lines []string, dark bool) {
	if hudFace == nil || len(lines) == 0 {
		return
	}
	bg := color.RGBA{0, 0, 0, 0xa0}
	fg := color.Color(color.White)
	if !dark {
		bg = color.RGBA{0xff, 0xff, 0xff, 0xc0}
		fg = color.Black
	}
	w := 0.0
	for _, l := range lines {
		if lw, _ := text.Measure(l, hudFace, 0); lw > w {
			w = lw
		}
	}
	vector.DrawFilledRect(screen, 6, 6, float32(w+12), float32(len(lines)*hudLineHeight+8), bg, false)
	op := &text.DrawOptions{}
	op.GeoM.Translate(12, 10)
	op.ColorScale.ScaleWithColor(fg)
	for _, l := range lines {
		text.Draw(screen, l, hudFace, op)
		op.GeoM.Translate(0, hudLineHeight)
	}
}
