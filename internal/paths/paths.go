// Package paths resolves where pictoboard keeps its config file and its
// database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user platform directories.
const AppName = "pictoboard"

// ConfigFileName is read from the resolved config directory.
const ConfigFileName = "config.yaml"

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else is configured.
const DefaultDataDirName = ".pictoboard-db"

// Environment overrides.
const (
	EnvConfigDir = "PICTOBOARD_CONFIG_DIR"
	EnvDataDir   = "PICTOBOARD_DATA_DIR"
)

// lookups is swapped in tests to fake a platform.
var lookups = struct {
	goos          string
	getenv        func(string) string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	goos:          runtime.GOOS,
	getenv:        os.Getenv,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// platformDir returns $xdgVar/pictoboard or ~/<fallback...>/pictoboard on
// Linux, and the OS config dir elsewhere (~/Library/Application Support on
// macOS, %APPDATA% on Windows).
func platformDir(xdgVar string, fallback ...string) (string, error) {
	if lookups.goos != "linux" {
		dir, err := lookups.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := lookups.getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := lookups.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

// DefaultConfigDir is the platform config directory.
func DefaultConfigDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir is the platform data directory. The CLI prefers the
// CWD-relative DefaultDataDirName; this is offered by `init --global`.
func DefaultDataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir applies flag > PICTOBOARD_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstNonEmpty(flag, lookups.getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config file value > PICTOBOARD_DATA_DIR >
// $(CWD)/.pictoboard-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstNonEmpty(flag, configValue, lookups.getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := lookups.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the config file path inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
