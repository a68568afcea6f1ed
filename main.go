package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	uuid "github.com/satori/go.uuid"
	clipboard "golang.design/x/clipboard"

	"arrowfall/collide"
	"arrowfall/netlink"
	"arrowfall/wire"
)

var (
	serverFlag string
	doDebug    bool
	fake       bool
	noColor    bool
	dataFlag   string
)

func main() {
	flag.StringVar(&serverFlag, "server", "", "websocket URL of the arena server (overrides "+envServer+" and settings)")
	flag.BoolVar(&doDebug, "debug", false, "verbose/debug logging")
	flag.BoolVar(&fake, "fake", false, "play against an in-process arena without connecting")
	flag.BoolVar(&noColor, "nocolor", false, "disable coloured console output")
	flag.StringVar(&dataFlag, "data", "", "directory for settings and sprite overrides")
	flag.Parse()

	if dataFlag != "" {
		dataDirPath = dataFlag
	}
	colorConsole = !noColor
	setupLogging(doDebug)
	defer func() {
		if r := recover(); r != nil {
			logPanic(r)
		}
	}()

	loadEnv()
	if !loadSettings() {
		logDebug("using default settings")
	}
	if err := clipboard.Init(); err != nil {
		logWarn("clipboard init: %v", err)
	} else {
		clipboardReady = true
	}

	playerID := uuid.NewV4().String()
	logInfo("player %s", playerID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	loadStats(ctx)

	var tr transport
	if fake {
		f := newFakeServer(fakeConfig{})
		go func() {
			if err := f.Run(ctx); err != nil && ctx.Err() == nil {
				logError("fake server: %v", err)
			}
		}()
		tr = f
		if err := f.SendEvent(wire.NewPlayer{PlayerID: playerID}); err != nil {
			logWarn("fake server: %v", err)
		}
	} else {
		link := netlink.New(netlink.Config{
			PlayerID: playerID,
			Queue:    gs.queueConfig(),
			Logf:     logDebug,
		})
		url := serverURL(serverFlag)
		link.Init(url)
		logInfo("connecting to %s", url)
		go func() {
			if err := link.Run(ctx); err != nil && ctx.Err() == nil {
				logError("network: %v", err)
			}
		}()
		tr = link
	}

	sp := loadSprites()
	initHUDFont()
	scene := newSpriteScene()
	s := newSession(sessionConfig{
		ID:            playerID,
		Anchor:        collide.Vec{X: float64(gs.WindowWidth) / 2, Y: float64(gs.WindowHeight) / 2},
		PlayerSize:    sp.playerSize(),
		TreeSize:      imageSize(sp.tree),
		TreeScale:     gs.TreeScale,
		Interpolation: gs.interpolation(),
	}, tr, scene)
	r := &renderer{sp: sp, scene: scene, dark: darkTheme()}

	runGame(newGame(ctx, s, r, scene))
	cancel()
}
