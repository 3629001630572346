package player

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"os/exec"
	"time"
)

// nowPlayingScript is the JXA source executed against the Music app.
//
//go:embed scripts/now_playing.js
var nowPlayingScript string

// scriptTimeout bounds a single osascript invocation. The bridge usually
// answers in well under a second; a hung Music app must not stall the tick
// loop indefinitely.
const scriptTimeout = 10 * time.Second

// ///////////////////////////////////////////////
// MusicAppReader
// ///////////////////////////////////////////////

// MusicAppReader reads playback state by running an embedded JXA script
// through osascript. It is the production [StateReader] on macOS.
type MusicAppReader struct{}

// NewMusicAppReader creates a reader backed by the osascript bridge.
func NewMusicAppReader() *MusicAppReader {
	return &MusicAppReader{}
}

// scriptResult mirrors the JSON object printed by now_playing.js.
type scriptResult struct {
	State string `json:"state"`
	Track *Track `json:"track"`
}

// ReadState runs the bridge script and classifies the result. Script
// failures (osascript missing, non-zero exit, timeout, malformed output)
// are logged at debug level and reported as stopped: the player being
// unreachable is an expected state of the world, not an agent error.
func (r *MusicAppReader) ReadState(ctx context.Context) PlaybackState {
	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/usr/bin/env", "osascript", "-l", "JavaScript", "-e", nowPlayingScript)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Debug("player bridge failed", "error", err, "stderr", stderr.String())
		return PlaybackState{State: StateStopped}
	}

	return classify(stdout.Bytes())
}

// classify parses raw script output into a PlaybackState. Malformed output
// maps to stopped; an active player without an addressable track maps to
// paused with a nil track so the caller clears presence rather than erroring.
func classify(out []byte) PlaybackState {
	var res scriptResult
	if err := json.Unmarshal(bytes.TrimSpace(out), &res); err != nil {
		slog.Debug("player bridge returned malformed JSON", "error", err)
		return PlaybackState{State: StateStopped}
	}

	switch res.State {
	case "playing":
		if res.Track == nil {
			return PlaybackState{State: StatePaused}
		}
		return PlaybackState{State: StatePlaying, Track: res.Track}
	case "paused":
		return PlaybackState{State: StatePaused, Track: res.Track}
	default:
		return PlaybackState{State: StateStopped}
	}
}

// Available reports whether the osascript binary can be found. Used at
// startup for a friendlier log line on non-macOS hosts; the reader itself
// degrades to stopped either way.
func Available() bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}
