package main

import (
	"errors"
	"testing"

	"golang.org/x/time/rate"
)

func stubNotify(t *testing.T, err error) *int {
	t.Helper()
	oldLimiter, oldNotify, oldGS := notifyLimiter, desktopNotify, gs
	var calls int
	notifyLimiter = rate.NewLimiter(rate.Inf, 1)
	desktopNotify = func(title, body string) error { calls++; return err }
	t.Cleanup(func() { notifyLimiter, desktopNotify, gs = oldLimiter, oldNotify, oldGS })
	t.Setenv("DISPLAY", ":0")
	gs.Notifications = true
	return &calls
}

func TestNotifyDesktop(t *testing.T) {
	calls := stubNotify(t, nil)
	if !notifyDesktop("arrowfall", "hello") {
		t.Fatalf("notification not shown")
	}
	if notifyDesktop("arrowfall", "") {
		t.Fatalf("empty body was shown")
	}
	gs.Notifications = false
	if notifyDesktop("arrowfall", "hello") {
		t.Fatalf("shown with notifications off")
	}
	if *calls != 1 {
		t.Fatalf("calls = %d", *calls)
	}
}

func TestNotifyDesktopRateLimited(t *testing.T) {
	calls := stubNotify(t, nil)
	notifyLimiter = rate.NewLimiter(rate.Limit(0), 1)
	notifyDesktop("arrowfall", "one")
	notifyDesktop("arrowfall", "two")
	if *calls != 1 {
		t.Fatalf("calls = %d, want 1", *calls)
	}
}

func TestNotifyDesktopError(t *testing.T) {
	stubNotify(t, errors.New("no dbus"))
	if notifyDesktop("arrowfall", "hello") {
		t.Fatalf("failed notification reported as shown")
	}
}
