package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// playStats are lifetime counters kept across runs in data/stats.json.
type playStats struct {
	Sessions    int     `json:"sessions"`
	ArrowsShot  int     `json:"arrowsShot"`
	Distance    float64 `json:"distance"`
	PlaySeconds float64 `json:"playSeconds"`
	Reconnects  int     `json:"reconnects"`
}

const statsFile = "stats.json"

var (
	stats      playStats
	statsMu    sync.Mutex
	statsDirty bool
)

// loadStats reads the counters and saves them once a minute until ctx ends.
func loadStats(ctx context.Context) {
	statsMu.Lock()
	stats = playStats{}
	path := filepath.Join(dataDirPath, statsFile)
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &stats); err != nil {
			logWarn("load stats: %v", err)
			stats = playStats{}
		}
	}
	stats.Sessions++
	statsDirty = true
	statsMu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				saveStats()
			}
		}
	}()
}

func saveStats() {
	statsMu.Lock()
	if !statsDirty {
		statsMu.Unlock()
		return
	}
	statsDirty = false
	data, err := json.MarshalIndent(stats, "", "  ")
	statsMu.Unlock()
	if err != nil {
		logError("save stats: %v", err)
		return
	}
	if err := os.MkdirAll(dataDirPath, 0755); err != nil {
		logError("save stats: %v", err)
		return
	}
	path := filepath.Join(dataDirPath, statsFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		logError("save stats: %v", err)
	}
}

func statArrowShot() {
	statsMu.Lock()
	stats.ArrowsShot++
	statsDirty = true
	statsMu.Unlock()
}

func statMoved(dist float64, dt time.Duration) {
	statsMu.Lock()
	stats.Distance += dist
	stats.PlaySeconds += dt.Seconds()
	statsDirty = true
	statsMu.Unlock()
}

func statReconnect() {
	statsMu.Lock()
	stats.Reconnects++
	statsDirty = true
	statsMu.Unlock()
}

func currentStats() playStats {
	statsMu.Lock()
	defer statsMu.Unlock()
	return stats
}
