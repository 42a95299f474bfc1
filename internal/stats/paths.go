// Package stats persists search statistics across process restarts so a
// long-lived engine, or a harness driving many searches back to back, can
// report trends a single run's in-memory counters cannot see on their own.
package stats

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "shogi-search-engine"

// dataDir returns the platform-specific data directory this module writes
// its statistics database under, following the same per-OS convention the
// teacher's storage package uses for its own application data.
func dataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultDBPath returns the default on-disk location for the statistics
// database, for callers that want cross-run persistence without picking
// their own Config.StatsDBPath.
func DefaultDBPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stats-db"), nil
}
