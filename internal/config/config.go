// Package config provides settings loading and defaults for the VAM-RPC agent.
//
// Settings live in a JSON file owned by the menu-bar GUI; the agent only
// reads it (plus a one-time seed on first run so the GUI always finds a
// file to edit). The file is re-read at the top of every scheduler tick, so
// edits take effect without restarting the agent. A partial or malformed
// document never breaks a tick: loaded keys are decoded over compiled-in
// defaults, and a file that cannot be read or parsed at all yields the
// defaults wholesale.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vamrpc/vamrpc/internal/atomicfile"
)

// ///////////////////////////////////////////////
// Small Image Sources
// ///////////////////////////////////////////////

// Valid values for [Settings.SmallImageSource].
const (
	SmallImageOff            = "off"
	SmallImageAlbumArt       = "albumArt"
	SmallImageArtistArt      = "artistArt"
	SmallImagePlaybackStatus = "playbackStatus"
	SmallImageAppIcon        = "appIcon"
)

// validSmallImageSources is the set of accepted smallImageSource values.
var validSmallImageSources = map[string]bool{
	SmallImageOff:            true,
	SmallImageAlbumArt:       true,
	SmallImageArtistArt:      true,
	SmallImagePlaybackStatus: true,
	SmallImageAppIcon:        true,
}

// ///////////////////////////////////////////////
// Settings
// ///////////////////////////////////////////////

// Settings mirrors the schema of the GUI-written config.json. Keys are flat
// camelCase because that is what the settings editor serializes; renaming
// them here would orphan every existing install.
type Settings struct {
	// RefreshInterval is the scheduler tick interval in seconds, clamped to [1,15].
	RefreshInterval int `json:"refreshInterval"`
	// ActivityName is the template for the activity header line.
	ActivityName string `json:"activityName"`

	// Per-service presence buttons, in publish priority order:
	// Apple Music, Spotify, Songlink, YouTube Music.

	EnableAppleMusicButton bool   `json:"enableAppleMusicButton"`
	AppleMusicButtonLabel  string `json:"appleMusicButtonLabel"`
	EnableSpotifyButton    bool   `json:"enableSpotifyButton"`
	SpotifyButtonLabel     string `json:"spotifyButtonLabel"`
	EnableSonglinkButton   bool   `json:"enableSonglinkButton"`
	SonglinkButtonLabel    string `json:"songlinkButtonLabel"`
	EnableYoutubeButton    bool   `json:"enableYoutubeMusicButton"`
	YoutubeButtonLabel     string `json:"youtubeMusicButtonLabel"`

	// EnableAutoLaunch is written by the GUI when the user toggles the login
	// item. The agent carries it so a partial rewrite by the GUI never drops
	// it, but acting on it is the GUI's job.
	EnableAutoLaunch bool `json:"enableAutoLaunch"`

	// Format templates. Each may contain {name}, {artist}, and {album}
	// placeholders; unknown placeholders pass through unchanged.

	// DetailsString is the template for the activity details (top) line.
	DetailsString string `json:"detailsString"`
	// StateString is the template for the activity state (second) line.
	StateString string `json:"stateString"`
	// LargeImageText is the template for the large image hover text.
	LargeImageText string `json:"largeImageText"`
	// SmallImageText is the template for the small image hover text.
	SmallImageText string `json:"smallImageText"`

	// SmallImageSource selects what fills the small image slot: off,
	// albumArt, artistArt, playbackStatus, or appIcon. Unknown values
	// normalize to off; the legacy GUI value "default" maps to appIcon.
	SmallImageSource string `json:"smallImageSource"`

	// CustomArtApiUrl overrides the primary enrichment provider's base URL
	// when non-empty. Principally a hook for self-hosted proxies.
	CustomArtApiUrl string `json:"customArtApiUrl"`

	// PrivacyIgnore is a list of glob patterns matched against
	// "artist/album/name"; a match suppresses presence for that track.
	PrivacyIgnore []string `json:"privacyIgnore"`

	// LogLevel is the minimum log level (trace, debug, info, warn, error, fail).
	LogLevel string `json:"logLevel"`
	// LogMaxSizeMB is the maximum log file size in megabytes before rotation.
	LogMaxSizeMB int `json:"logMaxSizeMB"`
}

// ///////////////////////////////////////////////
// Defaults
// ///////////////////////////////////////////////

// Default returns the compiled-in settings, matching the defaults the GUI
// shows on a fresh install.
func Default() *Settings {
	return &Settings{
		RefreshInterval:        5,
		ActivityName:           "Apple Music",
		EnableAppleMusicButton: true,
		AppleMusicButtonLabel:  "Open on Apple Music",
		EnableSpotifyButton:    true,
		SpotifyButtonLabel:     "Find on Spotify",
		EnableSonglinkButton:   false,
		SonglinkButtonLabel:    "Find on Songlink",
		EnableYoutubeButton:    false,
		YoutubeButtonLabel:     "Find on YT Music",
		EnableAutoLaunch:       false,
		DetailsString:          "{name}",
		StateString:            "by {artist}",
		LargeImageText:         "{name} - {album}",
		SmallImageText:         "{artist}",
		SmallImageSource:       SmallImageAppIcon,
		CustomArtApiUrl:        "",
		PrivacyIgnore:          []string{},
		LogLevel:               "info",
		LogMaxSizeMB:           10,
	}
}

// ///////////////////////////////////////////////
// Loading
// ///////////////////////////////////////////////

// Load reads and parses the settings file at path. It never fails: a missing,
// unreadable, or unparseable file logs a warning and yields [Default].
// Parsed keys are decoded over a fresh default value, so documents written by
// older GUI versions (or hand-edited ones missing keys) stay valid.
func Load(path string) *Settings {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read settings, using defaults", "path", path, "error", err)
		}
		return s
	}

	if err := json.Unmarshal(data, s); err != nil {
		slog.Warn("could not parse settings, using defaults", "path", path, "error", err)
		return Default()
	}

	s.normalize()
	return s
}

// normalize coerces out-of-range and enum-like fields to safe values.
// Invalid input degrades; it never errors.
func (s *Settings) normalize() {
	switch {
	case s.RefreshInterval < 1:
		s.RefreshInterval = 1
	case s.RefreshInterval > 15:
		s.RefreshInterval = 15
	}

	// The original settings editor wrote "default" for the brand icon.
	if s.SmallImageSource == "default" {
		s.SmallImageSource = SmallImageAppIcon
	}
	if !validSmallImageSources[s.SmallImageSource] {
		s.SmallImageSource = SmallImageOff
	}

	switch strings.ToLower(s.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fail":
		s.LogLevel = strings.ToLower(s.LogLevel)
	default:
		s.LogLevel = "info"
	}

	if s.LogMaxSizeMB <= 0 {
		s.LogMaxSizeMB = 10
	}
}

// ///////////////////////////////////////////////
// First-Run Seeding
// ///////////////////////////////////////////////

// Seed writes defaultJSON to path if no settings file exists yet, creating
// parent directories as needed. The GUI expects the file to exist so it has
// something to edit. Existing files are never touched.
func Seed(path string, defaultJSON []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat settings file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := atomicfile.Write(path, defaultJSON, 0o644); err != nil {
		return fmt.Errorf("seed settings file: %w", err)
	}
	return nil
}

// ///////////////////////////////////////////////
// Privacy
// ///////////////////////////////////////////////

// IsIgnored reports whether the track identified by artist, album, and name
// matches any configured privacy pattern. Patterns are doublestar globs
// matched against "artist/album/name", so "Drake/**" hides an artist and
// "**/Demo *" hides matching track titles anywhere.
func (s *Settings) IsIgnored(artist, album, name string) bool {
	if len(s.PrivacyIgnore) == 0 {
		return false
	}
	subject := artist + "/" + album + "/" + name
	for _, pattern := range s.PrivacyIgnore {
		matched, err := doublestar.Match(pattern, subject)
		if err != nil {
			slog.Warn("invalid privacy glob pattern", "pattern", pattern, "error", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
