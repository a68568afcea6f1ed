package main

import (
	"os"
	"runtime"
	"time"

	"github.com/gen2brain/beeep"
	"golang.org/x/time/rate"
)

// notifyLimiter keeps a flapping connection from spamming the desktop.
var notifyLimiter = rate.NewLimiter(rate.Every(30*time.Second), 1)

// desktopNotify is swapped out by tests.
var desktopNotify = func(title, body string) error {
	return beeep.Notify(title, body, "")
}

// notifyDesktop shows a desktop notification, best-effort and non-fatal.
func notifyDesktop(title, body string) bool {
	if !gs.Notifications || body == "" {
		return false
	}
	// Skip on headless Linux without DISPLAY; beeep would error.
	if runtime.GOOS == "linux" && (os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "") {
		return false
	}
	if !notifyLimiter.Allow() {
		return false
	}
	if err := desktopNotify(title, body); err != nil {
		logDebug("notify: %v", err)
		return false
	}
	return true
}
