package enrich

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
)

// deezerAlbumResponse mirrors the Deezer album search envelope, trimmed to
// the cover fields.
type deezerAlbumResponse struct {
	Data []struct {
		CoverXL     string `json:"cover_xl"`
		CoverMedium string `json:"cover_medium"`
	} `json:"data"`
}

// deezerArtistResponse mirrors the Deezer artist search envelope, trimmed to
// the picture fields.
type deezerArtistResponse struct {
	Data []struct {
		PictureXL     string `json:"picture_xl"`
		PictureMedium string `json:"picture_medium"`
	} `json:"data"`
}

// deezerAlbum searches Deezer for album artwork. Deezer album pages are not
// compatible with the primary listen link, so only artwork is returned.
// Deezer exposes size variants as separate fields rather than URL tokens;
// preferring cover_xl over cover_medium is the upscale step here.
func deezerAlbum(ctx context.Context, p ProviderSpec, artist, album string) (artURL, linkURL string) {
	query := url.Values{
		"q":     {artist + " " + album},
		"limit": {"1"},
	}
	body := fetch(ctx, p, p.BaseURL+"/search/album?"+query.Encode())
	if body == nil {
		return "", ""
	}

	var resp deezerAlbumResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Debug("provider returned malformed JSON", "provider", p.Name, "error", err)
		return "", ""
	}
	if len(resp.Data) == 0 {
		return "", ""
	}

	first := resp.Data[0]
	if first.CoverXL != "" {
		return first.CoverXL, ""
	}
	return first.CoverMedium, ""
}

// deezerArtist searches Deezer for an artist profile image.
func deezerArtist(ctx context.Context, p ProviderSpec, artist string) string {
	query := url.Values{
		"q":     {artist},
		"limit": {"1"},
	}
	body := fetch(ctx, p, p.BaseURL+"/search/artist?"+query.Encode())
	if body == nil {
		return ""
	}

	var resp deezerArtistResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Debug("provider returned malformed JSON", "provider", p.Name, "error", err)
		return ""
	}
	if len(resp.Data) == 0 {
		return ""
	}

	first := resp.Data[0]
	if first.PictureXL != "" {
		return first.PictureXL
	}
	return first.PictureMedium
}
