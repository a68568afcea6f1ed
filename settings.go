package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	dark "github.com/thiagokokada/dark-mode-go"

	"arrowfall/netlink"
)

const SETTINGS_VERSION = 1

const (
	envServer    = "ARROWFALL_SERVER"
	settingsFile = "settings.json"
)

var gs settings = gsdef

// settingsLoaded reports whether settings were successfully loaded from disk.
var settingsLoaded bool

var gsdef settings = settings{
	Version: SETTINGS_VERSION,

	Server:        "ws://localhost:8080",
	WindowWidth:   1280,
	WindowHeight:  720,
	ShowHUD:       false,
	Notifications: true,
	Theme:         "",

	InterpolationMS: 150,
	TreeScale:       1,
	QueueCapacity:   netlink.DefaultQueueCapacity,
	QueueMaxAgeMS:   0,
	CoalesceMoves:   false,
}

type settings struct {
	Version int

	Server        string
	WindowWidth   int
	WindowHeight  int
	ShowHUD       bool
	Notifications bool
	// Theme is "dark", "light" or empty to follow the OS.
	Theme string

	InterpolationMS int
	TreeScale       float64
	QueueCapacity   int
	QueueMaxAgeMS   int
	CoalesceMoves   bool
}

// dataDirPath holds settings and optional sprite overrides. It sits next
// to the executable so the client finds its files regardless of the working
// directory.
var dataDirPath = func() string {
	if exe, err := os.Executable(); err == nil {
		if dir, err := filepath.Abs(filepath.Dir(exe)); err == nil {
			return filepath.Join(dir, "data")
		}
	}
	return "data"
}()

func loadSettings() bool {
	path := filepath.Join(dataDirPath, settingsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		gs = gsdef
		settingsLoaded = false
		return false
	}

	tmp := gsdef
	if err := json.Unmarshal(data, &tmp); err != nil || tmp.Version != SETTINGS_VERSION {
		gs = gsdef
		settingsLoaded = false
		return false
	}
	gs = tmp
	clampSettings()
	settingsLoaded = true
	return true
}

func clampSettings() {
	if gs.Server == "" {
		gs.Server = gsdef.Server
	}
	if gs.WindowWidth < 320 || gs.WindowHeight < 240 {
		gs.WindowWidth, gs.WindowHeight = gsdef.WindowWidth, gsdef.WindowHeight
	}
	if gs.InterpolationMS < 0 || gs.InterpolationMS > 2000 {
		gs.InterpolationMS = gsdef.InterpolationMS
	}
	if gs.TreeScale <= 0 || gs.TreeScale > 8 {
		gs.TreeScale = gsdef.TreeScale
	}
	if gs.QueueCapacity <= 0 {
		gs.QueueCapacity = gsdef.QueueCapacity
	}
	if gs.QueueMaxAgeMS < 0 {
		gs.QueueMaxAgeMS = 0
	}
}

func saveSettings() {
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		logError("save settings: %v", err)
		return
	}
	if err := os.MkdirAll(dataDirPath, 0755); err != nil {
		logError("save settings: %v", err)
		return
	}
	path := filepath.Join(dataDirPath, settingsFile)
	if err := os.WriteFile(path+".tmp", data, 0644); err != nil {
		logError("save settings: %v", err)
		return
	}
	if err := os.Rename(path+".tmp", path); err != nil {
		logError("save settings: %v", err)
	}
}

// loadEnv reads .env from the working directory and the data directory.
// Missing files are fine; existing environment variables win.
func loadEnv() {
	for _, p := range []string{".env", filepath.Join(dataDirPath, ".env")} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logWarn("load %s: %v", p, err)
		}
	}
}

// serverURL picks the server in priority order: flag, environment,
// settings.
func serverURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envServer); v != "" {
		return v
	}
	return gs.Server
}

func (s settings) interpolation() time.Duration {
	return time.Duration(s.InterpolationMS) * time.Millisecond
}

func (s settings) queueConfig() netlink.QueueConfig {
	return netlink.QueueConfig{
		Capacity:      s.QueueCapacity,
		MaxAge:        time.Duration(s.QueueMaxAgeMS) * time.Millisecond,
		CoalesceMoves: s.CoalesceMoves,
	}
}

// darkTheme resolves the Theme setting, asking the OS when it is unset.
func darkTheme() bool {
	switch gs.Theme {
	case "dark":
		return true
	case "light":
		return false
	}
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return true
	}
	isDark, err := dark.IsDarkMode()
	if err != nil {
		return true
	}
	return isDark
}
