package main

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"arrowfall/predict"
)

func TestMovementKeys(t *testing.T) {
	tests := []struct {
		name string
		held []ebiten.Key
		want predict.Keys
	}{
		{"none", nil, predict.Keys{}},
		{"w", []ebiten.Key{ebiten.KeyW}, predict.Keys{Up: true}},
		{"sd", []ebiten.Key{ebiten.KeyS, ebiten.KeyD}, predict.Keys{Down: true, Right: true}},
		{"all", []ebiten.Key{ebiten.KeyA, ebiten.KeyW, ebiten.KeyS, ebiten.KeyD}, predict.Keys{Up: true, Down: true, Left: true, Right: true}},
		{"arrows ignored", []ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyArrowLeft}, predict.Keys{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := movementKeys(tt.held); got != tt.want {
				t.Fatalf("movementKeys = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHotkeyFor(t *testing.T) {
	cases := map[ebiten.Key]hotkey{
		ebiten.KeyF1:     hotkeyToggleHUD,
		ebiten.KeyF2:     hotkeyCopyID,
		ebiten.KeyF3:     hotkeyOpenData,
		ebiten.KeyF12:    hotkeyScreenshot,
		ebiten.KeyEscape: hotkeyQuit,
		ebiten.KeyW:      hotkeyNone,
	}
	for k, want := range cases {
		if got := hotkeyFor(k); got != want {
			t.Errorf("hotkeyFor(%v) = %v, want %v", k, got, want)
		}
	}
}

func TestRunHotkey(t *testing.T) {
	old := gs
	t.Cleanup(func() { gs = old })

	gs.ShowHUD = false
	if err := runHotkey(hotkeyToggleHUD, "me"); err != nil || !gs.ShowHUD {
		t.Fatalf("toggle: err=%v hud=%v", err, gs.ShowHUD)
	}
	if err := runHotkey(hotkeyToggleHUD, "me"); err != nil || gs.ShowHUD {
		t.Fatalf("second toggle: err=%v hud=%v", err, gs.ShowHUD)
	}
	if err := runHotkey(hotkeyQuit, "me"); err != ebiten.Termination {
		t.Fatalf("quit returned %v", err)
	}
	screenshotRequested = false
	if err := runHotkey(hotkeyScreenshot, "me"); err != nil || !screenshotRequested {
		t.Fatalf("screenshot: err=%v requested=%v", err, screenshotRequested)
	}
	screenshotRequested = false
	// Without clipboard.Init the copy is skipped.
	if err := runHotkey(hotkeyCopyID, "me"); err != nil {
		t.Fatalf("copy: %v", err)
	}
}
