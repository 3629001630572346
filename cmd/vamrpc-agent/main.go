// Package main implements the VAM-RPC agent, which watches the macOS Music
// app and publishes what is playing as Discord Rich Presence.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	rootpkg "github.com/vamrpc/vamrpc"
	"github.com/vamrpc/vamrpc/internal/config"
	"github.com/vamrpc/vamrpc/internal/discord"
	"github.com/vamrpc/vamrpc/internal/enrich"
	"github.com/vamrpc/vamrpc/internal/logger"
	"github.com/vamrpc/vamrpc/internal/paths"
	"github.com/vamrpc/vamrpc/internal/player"
	"github.com/vamrpc/vamrpc/internal/status"
	"github.com/vamrpc/vamrpc/internal/update"
)

// discordAppID identifies the agent's Discord application, which supplies
// the "Apple Music" activity header and the registered asset namespace.
const discordAppID = "773825528921849856"

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags:
//   - goreleaser: -X main.version={{.Version}}  -> "0.1.0"
//   - make build: -X main.version=$(VERSION)    -> "0.0.0-dev+05ffee5"
//
// When ldflags are not set (bare go build), resolveVersion reads the VCS info
// that Go embeds automatically, so dev builds get a useful version string
// without needing git at runtime.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags at build time it is returned as-is; otherwise VCS revision and dirty
// state embedded by the Go toolchain are used to construct a "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// PID Management
// ///////////////////////////////////////////////

// pidToken generates a random 16-character hex token used to prove ownership
// of the PID file, so [removePID] only deletes the file if this instance wrote it.
func pidToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// writePID creates or opens the PID file at [SupportPaths.PID], acquires an
// advisory file lock, and writes "PID:TOKEN" content. The returned file handle
// must be kept open for the lifetime of the agent to hold the lock; pass it to
// [removePID] on shutdown.
func writePID(sp SupportPaths, token string) (*os.File, error) {
	f, err := os.OpenFile(sp.PID(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open PID file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock PID file: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("truncate PID file: %w", err)
	}
	content := fmt.Sprintf("%d:%s", os.Getpid(), token)
	if _, err := f.WriteString(content); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("write PID file: %w", err)
	}
	return f, nil
}

// removePID releases the advisory lock, closes the file handle, and removes the
// PID file only if the stored token matches, preventing accidental removal of a
// file owned by a different agent instance.
func removePID(sp SupportPaths, token string, f *os.File) {
	if f != nil {
		_ = unlockFile(f)
		f.Close()
	}
	data, err := os.ReadFile(sp.PID())
	if err != nil {
		return
	}
	parts := strings.SplitN(string(data), ":", 2)
	if len(parts) == 2 && parts[1] == token {
		os.Remove(sp.PID())
	}
}

// checkStalePID checks whether another agent instance is running. It attempts
// to acquire the advisory lock on the PID file; if the lock fails, another
// instance holds it. If the lock succeeds, any previous instance is dead and
// the stale file is cleaned up.
func checkStalePID(sp SupportPaths) (alive bool, pid int) {
	f, err := os.OpenFile(sp.PID(), os.O_RDWR, 0o600)
	if err != nil {
		return false, 0
	}

	if lockErr := lockFile(f); lockErr != nil {
		data, _ := os.ReadFile(sp.PID())
		f.Close()
		parts := strings.SplitN(string(data), ":", 2)
		if len(parts) >= 1 {
			if p, convErr := strconv.Atoi(parts[0]); convErr == nil {
				return true, p
			}
		}
		return true, 0
	}

	// Lock acquired -- previous instance is dead. Clean up stale file.
	_ = unlockFile(f)
	f.Close()
	os.Remove(sp.PID())
	return false, 0
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	supportDir := flag.String("support-dir", paths.DefaultSupportDir(), "Support directory for config, status, and logs")
	showVersion := flag.Bool("version", false, "Print the agent version and exit")
	tailLines := flag.Int("tail", 0, "Print the last N log lines and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(resolveVersion())
		return
	}

	sp := SupportPaths{Root: *supportDir}

	if *tailLines > 0 {
		out, err := logger.ReadTail(sp.Log(), *tailLines)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read log: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
		return
	}

	if err := os.MkdirAll(sp.Root, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: create support dir: %v\n", err)
		os.Exit(1)
	}

	if alive, pid := checkStalePID(sp); alive {
		fmt.Fprintf(os.Stderr, "agent already running (pid %d)\n", pid)
		os.Exit(1)
	}

	if err := config.Seed(sp.Config(), rootpkg.DefaultConfigJSON); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to seed default config: %v\n", err)
	}

	settings := config.Load(sp.Config())

	log, logHandler, logCloser := logger.NewLogger(sp.Log(), logger.ParseLevel(settings.LogLevel), settings.LogMaxSizeMB)
	defer logCloser.Close()
	slog.SetDefault(log)

	ver := resolveVersion()
	slog.Info("vamrpc agent starting", "version", ver, "support_dir", sp.Root)

	reporter := status.NewReporter(sp.Status())
	reporter.Starting()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("update check panic", "error", r)
			}
		}()
		update.Check(ver)
	}()

	token := pidToken()
	pidFile, err := writePID(sp, token)
	if err != nil {
		slog.Error("failed to write PID file", "error", err)
		os.Exit(1)
	}
	defer removePID(sp, token, pidFile)

	if !player.Available() {
		slog.Warn("osascript not found, playback will always read as stopped")
	}

	client := discord.NewClient(discordAppID)
	if err := client.Connect(); err != nil {
		// The supervisor (launchd) owns connection-level retry; a nonzero
		// exit hands the restart decision to it.
		slog.Error("failed to connect to Discord", "error", err)
		reporter.Errorf("cannot connect to Discord: %v", err)
		os.Exit(1)
	}
	defer client.Close()
	slog.Info("connected to Discord")

	watcher, err := config.NewWatcher(sp.Config())
	if err != nil {
		slog.Error("failed to create settings watcher", "error", err)
		os.Exit(1)
	}
	defer watcher.Close()

	if watcher.Polling() {
		slog.Info("using polling mode for settings watching")
	}

	a := &agent{
		paths:      sp,
		reader:     player.NewMusicAppReader(),
		engine:     enrich.NewEngine(enrich.LoadCatalog(sp.Providers())),
		publisher:  client,
		reporter:   reporter,
		logHandler: logHandler,
	}
	a.run(signalChannel(), watcher.Events())

	reporter.Idle()
}
