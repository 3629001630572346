// Package paths centralizes file and directory names used across the project.
// All support directory file names are defined here as the single source of truth.
//
// The layout inside the support directory is a contract shared with the
// menu-bar app: the GUI writes data/config.json and polls status.txt, the
// agent does the reverse. Neither side locks; each file has exactly one writer.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Support directory file names.
const (
	// StatusFile is the one-line status file polled by the GUI menu.
	StatusFile = "status.txt"
	// ConfigDir is the subdirectory holding the GUI-managed settings file.
	ConfigDir = "data"
	// ConfigFile is the settings file name inside ConfigDir.
	ConfigFile = "config.json"
	// ProvidersFile is the optional user override for the enrichment
	// provider catalog.
	ProvidersFile = "providers.toml"
	// PIDFile guards against a second agent instance.
	PIDFile = "agent.pid"
	// LogFile is the rotating agent log.
	LogFile = "agent.log"
)

// SupportDirName is the support directory name under
// ~/Library/Application Support on macOS.
const SupportDirName = "VAM-RPC"

// dotDirName is the fallback support directory name (relative to $HOME) on
// platforms without an Application Support convention.
const dotDirName = ".vamrpc"

// ReleaseManifest is the remote-fetched release manifest path
// (relative to the repo root).
const ReleaseManifest = ".release-manifest.json"

// ///////////////////////////////////////////////
// Default Support Dir
// ///////////////////////////////////////////////

// DefaultSupportDir returns the platform default support directory:
// ~/Library/Application Support/VAM-RPC on macOS, ~/.vamrpc elsewhere.
// Falls back to ./.vamrpc if the home directory cannot be determined.
func DefaultSupportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", dotDirName)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", SupportDirName)
	}
	return filepath.Join(home, dotDirName)
}

// ///////////////////////////////////////////////
// SupportDir
// ///////////////////////////////////////////////

// SupportDir provides path construction methods rooted at the agent's
// support directory.
type SupportDir struct {
	Root string
}

// Status returns the full path to the status file.
func (d SupportDir) Status() string { return filepath.Join(d.Root, StatusFile) }

// ConfigDirPath returns the full path to the directory holding the settings file.
func (d SupportDir) ConfigDirPath() string { return filepath.Join(d.Root, ConfigDir) }

// Config returns the full path to the GUI-managed settings file.
func (d SupportDir) Config() string { return filepath.Join(d.Root, ConfigDir, ConfigFile) }

// Providers returns the full path to the optional provider catalog override.
func (d SupportDir) Providers() string { return filepath.Join(d.Root, ProvidersFile) }

// PID returns the full path to the PID file.
func (d SupportDir) PID() string { return filepath.Join(d.Root, PIDFile) }

// Log returns the full path to the log file.
func (d SupportDir) Log() string { return filepath.Join(d.Root, LogFile) }
