// Package presence assembles Discord Rich Presence activities from playback
// state, enriched metadata, and user settings.
//
// Build is a pure function of its inputs plus a caller-supplied clock, so
// every branch is unit-testable without a Discord connection. The package
// owns the protocol's string length rules: Discord rejects activity text
// shorter than 2 or longer than 128 characters (32 for button labels), so
// every outbound field passes through [EnsureValid].
package presence

import (
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/vamrpc/vamrpc/internal/config"
	"github.com/vamrpc/vamrpc/internal/discord"
	"github.com/vamrpc/vamrpc/internal/enrich"
	"github.com/vamrpc/vamrpc/internal/player"
)

// ///////////////////////////////////////////////
// Asset Constants
// ///////////////////////////////////////////////

// Icon URLs used when no enriched artwork is available for a slot.
const (
	// IconAppleMusic is the brand icon, used as the large image fallback and
	// the appIcon small image source.
	IconAppleMusic = "https://upload.wikimedia.org/wikipedia/commons/thumb/5/5f/Apple_Music_icon.svg/512px-Apple_Music_icon.svg.png"
	// IconPlay and IconPause back the playbackStatus small image source.
	IconPlay  = "https://i.imgur.com/6uuaC8A.png"
	IconPause = "https://i.imgur.com/8oAUykh.png"
)

// Text length bounds imposed by the presence protocol.
const (
	minTextLen  = 2
	maxTextLen  = 128
	maxLabelLen = 32
)

// ///////////////////////////////////////////////
// String Helpers
// ///////////////////////////////////////////////

// FormatTemplate replaces {name}, {artist}, and {album} placeholders in
// template with the track's fields. Unknown placeholders pass through
// unchanged; a nil track renders every placeholder as empty.
func FormatTemplate(template string, track *player.Track) string {
	var name, artist, album string
	if track != nil {
		name, artist, album = track.Name, track.Artist, track.Album
	}
	return strings.NewReplacer(
		"{name}", name,
		"{artist}", artist,
		"{album}", album,
	).Replace(template)
}

// EnsureValid clamps a text value to the [min, max] length window the
// protocol requires. Empty or too-short values are right-padded with spaces
// to min; too-long values are truncated to max-1 runes plus an ellipsis.
// Lengths are measured in runes so multibyte titles are never split.
func EnsureValid(value string, min, max int) string {
	runes := []rune(value)
	if len(runes) < min {
		return value + strings.Repeat(" ", min-len(runes))
	}
	if len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return value
}

// ensureText applies the standard activity text bounds.
func ensureText(s string) string {
	return EnsureValid(s, minTextLen, maxTextLen)
}

// ///////////////////////////////////////////////
// Builder
// ///////////////////////////////////////////////

// Build assembles the activity for one tick. It returns nil when nothing
// should be published: stopped playback, no current track, or a track the
// privacy patterns suppress. The caller clears presence on nil.
func Build(state player.PlaybackState, meta enrich.Metadata, settings *config.Settings, now time.Time) *discord.Activity {
	if state.State == player.StateStopped || state.Track == nil {
		return nil
	}
	track := state.Track
	if settings.IsIgnored(track.Artist, track.Album, track.Name) {
		return nil
	}

	act := &discord.Activity{
		Name:    ensureText(FormatTemplate(settings.ActivityName, track)),
		Type:    discord.TypeListening,
		Details: ensureText(FormatTemplate(settings.DetailsString, track)),
		State:   ensureText(FormatTemplate(settings.StateString, track)),
		Assets:  buildAssets(state, meta, settings, track),
		Buttons: buildButtons(settings, meta, track),
	}

	// A paused track must not show a countdown.
	if state.State == player.StatePlaying && track.Duration > 0 {
		start := now.UnixMilli() - int64(math.Round(track.Position*1000))
		act.Timestamps = &discord.Timestamps{
			Start: start,
			End:   start + int64(math.Round(track.Duration*1000)),
		}
	}

	return act
}

// buildAssets fills the large and small image slots. The large image always
// resolves to something; the small image depends on the configured source.
func buildAssets(state player.PlaybackState, meta enrich.Metadata, settings *config.Settings, track *player.Track) *discord.Assets {
	assets := &discord.Assets{
		LargeImage: IconAppleMusic,
		LargeText:  ensureText(FormatTemplate(settings.LargeImageText, track)),
	}
	if meta.AlbumArtURL != "" {
		assets.LargeImage = meta.AlbumArtURL
	}

	smallText := ensureText(FormatTemplate(settings.SmallImageText, track))
	switch settings.SmallImageSource {
	case config.SmallImageAlbumArt:
		assets.SmallImage = IconAppleMusic
		if meta.AlbumArtURL != "" {
			assets.SmallImage = meta.AlbumArtURL
		}
		assets.SmallText = smallText
	case config.SmallImageArtistArt:
		assets.SmallImage = IconAppleMusic
		if meta.ArtistArtURL != "" {
			assets.SmallImage = meta.ArtistArtURL
		}
		assets.SmallText = smallText
	case config.SmallImagePlaybackStatus:
		if state.State == player.StatePlaying {
			assets.SmallImage = IconPlay
			assets.SmallText = "Playing"
		} else {
			assets.SmallImage = IconPause
			assets.SmallText = "Paused"
		}
	case config.SmallImageAppIcon:
		assets.SmallImage = IconAppleMusic
		assets.SmallText = "Apple Music"
	}
	return assets
}

// buildButtons assembles the enabled buttons in priority order and caps the
// list at the protocol's limit of two.
func buildButtons(settings *config.Settings, meta enrich.Metadata, track *player.Track) []discord.Button {
	query := url.QueryEscape(track.Name + " " + track.Artist)

	var buttons []discord.Button
	add := func(enabled bool, label, link string) {
		if !enabled || len(buttons) == 2 {
			return
		}
		buttons = append(buttons, discord.Button{
			Label: EnsureValid(label, minTextLen, maxLabelLen),
			URL:   link,
		})
	}

	appleURL := meta.TrackViewURL
	if appleURL == "" {
		appleURL = "https://music.apple.com/us/search?term=" + query
	}
	add(settings.EnableAppleMusicButton, settings.AppleMusicButtonLabel, appleURL)
	add(settings.EnableSpotifyButton, settings.SpotifyButtonLabel, "https://open.spotify.com/search/"+query)
	add(settings.EnableSonglinkButton, settings.SonglinkButtonLabel, "https://song.link/s?q="+query)
	add(settings.EnableYoutubeButton, settings.YoutubeButtonLabel, "https://music.youtube.com/search?q="+query)
	return buttons
}
