package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"arrowfall/predict"
)

// stickDeadZone ignores small stick drift.
const stickDeadZone = 0.35

var gamepadIDs []ebiten.GamepadID

// stickKeys turns a stick deflection into movement keys. Up on the stick is
// negative y.
func stickKeys(x, y, dead float64) predict.Keys {
	return predict.Keys{
		Up:    y < -dead,
		Down:  y > dead,
		Left:  x < -dead,
		Right: x > dead,
	}
}

func mergeKeys(a, b predict.Keys) predict.Keys {
	return predict.Keys{
		Up:    a.Up || b.Up,
		Down:  a.Down || b.Down,
		Left:  a.Left || b.Left,
		Right: a.Right || b.Right,
	}
}

// readGamepads folds standard-layout gamepads into in: the left stick or
// d-pad moves and the bottom face button draws and releases the bow.
func readGamepads(in *frameInput) {
	gamepadIDs = ebiten.AppendGamepadIDs(gamepadIDs[:0])
	for _, id := range gamepadIDs {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		k := stickKeys(
			ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal),
			ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical),
			stickDeadZone,
		)
		k = mergeKeys(k, predict.Keys{
			Up:    ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftTop),
			Down:  ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftBottom),
			Left:  ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftLeft),
			Right: ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftRight),
		})
		in.keys = mergeKeys(in.keys, k)
		if inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonRightBottom) {
			in.pressed = true
		}
		if inpututil.IsStandardGamepadButtonJustReleased(id, ebiten.StandardGamepadButtonRightBottom) {
			in.released = true
		}
	}
}
