package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// takeScreenshot writes img to data/Screenshots and returns the file path.
func takeScreenshot(img image.Image, playerID string) (string, error) {
	dir := filepath.Join(dataDirPath, "Screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %v", dir)
	}
	name := "arrowfall"
	if len(playerID) >= 8 {
		name += "-" + playerID[:8]
	}
	ts := time.Now().Format("2006-01-02-15-04-05")
	fn := filepath.Join(dir, fmt.Sprintf("%s__%s.png", name, ts))
	f, err := os.Create(fn)
	if err != nil {
		return "", errors.Wrapf(err, "create %v", fn)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", errors.Wrapf(err, "encode %v", fn)
	}
	return fn, nil
}
