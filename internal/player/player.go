// Package player reads playback state from the local Apple Music player.
//
// The package exposes [StateReader] as the single seam between the agent and
// the OS scripting bridge: [MusicAppReader] shells out to osascript, while
// tests substitute a canned reader. Every failure mode of the bridge maps to
// a benign [PlaybackState] — a player that is not running, mid-track-change,
// or unreachable is an expected condition, never an error.
package player

import "context"

// ///////////////////////////////////////////////
// Playback State
// ///////////////////////////////////////////////

// State classifies what the player is doing right now.
type State string

const (
	// StateStopped means the player is not running or has nothing loaded.
	StateStopped State = "stopped"
	// StatePaused means a track is loaded but not advancing.
	StatePaused State = "paused"
	// StatePlaying means a track is actively playing.
	StatePlaying State = "playing"
)

// Track is an ephemeral snapshot of the current track. Produced fresh each
// tick and never mutated after creation.
type Track struct {
	// Name is the track title.
	Name string `json:"name"`
	// Artist is the track artist.
	Artist string `json:"artist"`
	// Album is the album title.
	Album string `json:"album"`
	// Duration is the track length in seconds.
	Duration float64 `json:"duration"`
	// Position is the player position within the track, in seconds.
	Position float64 `json:"playerPosition"`
}

// PlaybackState is the authoritative result of one player query. Track is
// nil when State is [StateStopped], and may be nil for [StatePaused] when the
// player reports activity but no addressable current track (the gap between
// songs).
type PlaybackState struct {
	State State
	Track *Track
}

// ///////////////////////////////////////////////
// StateReader
// ///////////////////////////////////////////////

// StateReader queries the local media player once. Implementations must not
// fail: any bridge-level error is reported as a stopped state.
type StateReader interface {
	ReadState(ctx context.Context) PlaybackState
}
