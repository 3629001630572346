// Package enrich resolves best-effort artwork and listen-link metadata for a
// track by querying external catalog services.
//
// Providers are tried in the order declared by the catalog (see
// [LoadCatalog]): the first album-capable provider is the primary source of
// both artwork and the canonical listen URL; subsequent album providers are
// artwork-only fallbacks. An artist-image lookup runs independently when the
// caller asks for one. Every lookup is individually recovered — a provider
// timing out, returning non-2xx, or matching nothing yields an empty field,
// never an error, so one flaky service cannot block a tick.
package enrich

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/vamrpc/vamrpc/internal/player"
)

// ///////////////////////////////////////////////
// HTTP Client
// ///////////////////////////////////////////////

// httpClient is a lazily-initialized retryablehttp client shared across all
// provider lookups. Initialized once via httpClientOnce.
var (
	httpClient     *retryablehttp.Client
	httpClientOnce sync.Once
)

// getHTTPClient returns the shared retryable HTTP client, initializing it on
// first call.
func getHTTPClient() *retryablehttp.Client {
	httpClientOnce.Do(func() {
		httpClient = retryablehttp.NewClient()
		httpClient.RetryMax = 2
		httpClient.HTTPClient.Timeout = 10 * time.Second
		httpClient.Logger = nil // suppress retryablehttp's default logging
	})
	return httpClient
}

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Metadata holds the best-effort enrichment results for one track for one
// tick. Every field is independently optional; an empty string means the
// corresponding lookup found nothing.
type Metadata struct {
	// AlbumArtURL is a full-size album artwork URL.
	AlbumArtURL string
	// ArtistArtURL is an artist image URL, populated only when requested.
	ArtistArtURL string
	// TrackViewURL is the canonical listen link (Apple Music album page).
	TrackViewURL string
}

// Options tunes a single Enrich call.
type Options struct {
	// WantArtistArt requests the independent artist-image lookup. Skipped
	// otherwise, since only the artistArt small-image source consumes it.
	WantArtistArt bool
	// PrimaryBaseURL overrides the primary album provider's base URL when
	// non-empty (the customArtApiUrl setting).
	PrimaryBaseURL string
}

// Engine queries the configured providers. Safe for reuse across ticks.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an Engine over the given catalog.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// ///////////////////////////////////////////////
// Enrichment
// ///////////////////////////////////////////////

// parentheticalRe matches parenthetical suffixes like "(Remastered 2011)"
// that hurt search-provider match quality.
var parentheticalRe = regexp.MustCompile(`\([^)]*\)`)

// Sanitize strips parenthetical segments and surrounding whitespace from a
// search term.
func Sanitize(s string) string {
	return strings.TrimSpace(parentheticalRe.ReplaceAllString(s, ""))
}

// Enrich resolves metadata for track. It never fails; on total provider
// outage it returns an all-empty Metadata.
func (e *Engine) Enrich(ctx context.Context, track *player.Track, opts Options) Metadata {
	var meta Metadata
	if track == nil {
		return meta
	}

	artist := Sanitize(track.Artist)
	album := Sanitize(track.Album)

	primarySeen := false
	for _, p := range e.catalog.Providers {
		if !p.HasRole("album") {
			continue
		}
		if meta.AlbumArtURL != "" {
			break
		}
		spec := p
		if !primarySeen && opts.PrimaryBaseURL != "" {
			spec.BaseURL = opts.PrimaryBaseURL
		}
		primarySeen = true

		art, link := e.lookupAlbum(ctx, spec, artist, album)
		if meta.AlbumArtURL == "" {
			meta.AlbumArtURL = art
		}
		// Only a link-capable provider may supply the canonical URL; the
		// fallback providers' links are not compatible with the primary
		// service and stay unused.
		if meta.TrackViewURL == "" && spec.HasRole("link") {
			meta.TrackViewURL = link
		}
	}

	if opts.WantArtistArt {
		for _, p := range e.catalog.Providers {
			if !p.HasRole("artist") {
				continue
			}
			meta.ArtistArtURL = e.lookupArtist(ctx, p, artist)
			break
		}
	}

	return meta
}

// lookupAlbum dispatches an album search to the provider's wire format.
// Unknown formats are skipped. Returns empty strings for any failure.
func (e *Engine) lookupAlbum(ctx context.Context, p ProviderSpec, artist, album string) (artURL, linkURL string) {
	switch p.API {
	case "itunes":
		return itunesAlbum(ctx, p, artist, album)
	case "deezer":
		return deezerAlbum(ctx, p, artist, album)
	default:
		slog.Warn("unknown provider api, skipping", "provider", p.Name, "api", p.API)
		return "", ""
	}
}

// lookupArtist dispatches an artist-image search to the provider's wire format.
func (e *Engine) lookupArtist(ctx context.Context, p ProviderSpec, artist string) string {
	switch p.API {
	case "deezer":
		return deezerArtist(ctx, p, artist)
	default:
		slog.Warn("provider cannot answer artist lookups", "provider", p.Name, "api", p.API)
		return ""
	}
}
