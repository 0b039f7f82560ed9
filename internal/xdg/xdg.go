// Package xdg provides XDG Base Directory paths for sessiongate.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "sessiongate"

// ConfigDir returns the XDG config directory for sessiongate.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path, or "" if no file
// exists there.
func ConfigFile() string {
	path := filepath.Join(ConfigDir(), "config.yaml")
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return ""
	}
	return path
}
