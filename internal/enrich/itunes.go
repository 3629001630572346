package enrich

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
)

// maxResponseBytes caps provider response bodies. The search endpoints
// return a handful of results at most; anything larger is garbage.
const maxResponseBytes = 256 << 10

// itunesSearchResponse mirrors the iTunes Search API envelope, trimmed to
// the fields the agent reads.
type itunesSearchResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		ArtworkURL100     string `json:"artworkUrl100"`
		CollectionViewURL string `json:"collectionViewUrl"`
	} `json:"results"`
}

// itunesAlbum searches the iTunes catalog for an "artist album" match and
// returns the upscaled artwork URL plus the album's canonical view URL.
// Non-2xx responses and zero-result sets are "no match", not errors.
func itunesAlbum(ctx context.Context, p ProviderSpec, artist, album string) (artURL, linkURL string) {
	query := url.Values{
		"term":   {artist + " " + album},
		"entity": {"album"},
		"limit":  {"1"},
	}
	body := fetch(ctx, p, p.BaseURL+"/search?"+query.Encode())
	if body == nil {
		return "", ""
	}

	var resp itunesSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Debug("provider returned malformed JSON", "provider", p.Name, "error", err)
		return "", ""
	}
	if resp.ResultCount == 0 || len(resp.Results) == 0 {
		return "", ""
	}

	first := resp.Results[0]
	return p.upscale(first.ArtworkURL100), first.CollectionViewURL
}

// fetch performs a GET through the shared retryable client and returns the
// body, or nil for any transport failure or non-2xx status. Callers treat
// nil as "no data".
func fetch(ctx context.Context, p ProviderSpec, rawURL string) []byte {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		slog.Debug("building provider request failed", "provider", p.Name, "error", err)
		return nil
	}

	resp, err := getHTTPClient().Do(req)
	if err != nil {
		slog.Debug("provider request failed", "provider", p.Name, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("provider returned non-2xx", "provider", p.Name, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		slog.Debug("reading provider response failed", "provider", p.Name, "error", err)
		return nil
	}
	return body
}
