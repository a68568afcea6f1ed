package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/skratchdot/open-golang/open"
	clipboard "golang.design/x/clipboard"

	"arrowfall/collide"
	"arrowfall/predict"
)

// clipboardReady is set once clipboard.Init succeeds.
var clipboardReady bool

type hotkey int

const (
	hotkeyNone hotkey = iota
	hotkeyToggleHUD
	hotkeyCopyID
	hotkeyOpenData
	hotkeyScreenshot
	hotkeyQuit
)

// screenshotRequested is picked up by the next Draw.
var screenshotRequested bool

var hotkeyNames = map[hotkey]string{
	hotkeyToggleHUD:  "toggle hud",
	hotkeyCopyID:     "copy player id",
	hotkeyOpenData:   "open data folder",
	hotkeyScreenshot: "screenshot",
	hotkeyQuit:       "quit",
}

func (h hotkey) String() string {
	if n, ok := hotkeyNames[h]; ok {
		return n
	}
	return "none"
}

func hotkeyFor(k ebiten.Key) hotkey {
	switch k {
	case ebiten.KeyF1:
		return hotkeyToggleHUD
	case ebiten.KeyF2:
		return hotkeyCopyID
	case ebiten.KeyF3:
		return hotkeyOpenData
	case ebiten.KeyF12:
		return hotkeyScreenshot
	case ebiten.KeyEscape:
		return hotkeyQuit
	}
	return hotkeyNone
}

// movementKeys maps the held keys to movement. Only WASD moves.
func movementKeys(held []ebiten.Key) predict.Keys {
	var k predict.Keys
	for _, key := range held {
		switch key {
		case ebiten.KeyW:
			k.Up = true
		case ebiten.KeyS:
			k.Down = true
		case ebiten.KeyA:
			k.Left = true
		case ebiten.KeyD:
			k.Right = true
		}
	}
	return k
}

// inputReader turns device state into a frameInput once per Update.
type inputReader struct {
	held        []ebiten.Key
	lastPointer collide.Vec
	havePointer bool
}

func (r *inputReader) read() frameInput {
	r.held = inpututil.AppendPressedKeys(r.held[:0])
	mx, my := ebiten.CursorPosition()
	p := collide.Vec{X: float64(mx), Y: float64(my)}
	in := frameInput{
		keys:     movementKeys(r.held),
		pointer:  p,
		pressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		released: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
	}
	in.pointerMoved = !r.havePointer || p != r.lastPointer
	r.lastPointer, r.havePointer = p, true
	readGamepads(&in)
	return in
}

// justPressedHotkeys returns the actions whose key went down this frame.
func justPressedHotkeys() []hotkey {
	var out []hotkey
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if h := hotkeyFor(k); h != hotkeyNone {
			out = append(out, h)
		}
	}
	return out
}

// runHotkey performs h. It returns ebiten.Termination for quit.
func runHotkey(h hotkey, playerID string) error {
	logDebug("hotkey: %s", h)
	switch h {
	case hotkeyToggleHUD:
		gs.ShowHUD = !gs.ShowHUD
	case hotkeyCopyID:
		if !clipboardReady {
			logWarn("clipboard unavailable")
			return nil
		}
		clipboard.Write(clipboard.FmtText, []byte(playerID))
		logInfo("player id copied")
	case hotkeyOpenData:
		if err := open.Run(dataDirPath); err != nil {
			logWarn("open %s: %v", dataDirPath, err)
		}
	case hotkeyScreenshot:
		screenshotRequested = true
	case hotkeyQuit:
		return ebiten.Termination
	}
	return nil
}
