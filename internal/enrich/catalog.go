package enrich

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// defaultCatalogTOML is the built-in provider catalog, embedded at build time.
//
//go:embed providers.toml
var defaultCatalogTOML []byte

// ///////////////////////////////////////////////
// Catalog Types
// ///////////////////////////////////////////////

// ProviderSpec describes one catalog service: which wire format it speaks,
// where it lives, and what it can answer.
type ProviderSpec struct {
	// Name identifies the provider in logs.
	Name string `toml:"name"`
	// API selects the wire format: "itunes" or "deezer".
	API string `toml:"api"`
	// BaseURL is the scheme-and-host prefix for search requests.
	BaseURL string `toml:"base_url"`
	// Roles lists what the provider can answer: "album", "link", "artist".
	Roles []string `toml:"roles"`
	// ArtSizeFrom/ArtSizeTo describe the deterministic URL substitution that
	// upgrades a thumbnail artwork URL to the largest variant the provider
	// exposes. Empty means the provider already returns full-size art.
	ArtSizeFrom string `toml:"art_size_from"`
	ArtSizeTo   string `toml:"art_size_to"`
}

// HasRole reports whether the provider declares the given role.
func (p ProviderSpec) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// upscale applies the provider's artwork size substitution to url.
// A provider without size tokens returns url unchanged.
func (p ProviderSpec) upscale(url string) string {
	if url == "" || p.ArtSizeFrom == "" || p.ArtSizeTo == "" {
		return url
	}
	return strings.Replace(url, p.ArtSizeFrom, p.ArtSizeTo, 1)
}

// Catalog is an ordered list of providers. Order is priority: the first
// album-capable provider is the primary source; the rest are fallbacks.
type Catalog struct {
	Providers []ProviderSpec `toml:"providers"`
}

// ///////////////////////////////////////////////
// Loading
// ///////////////////////////////////////////////

// LoadCatalog returns the provider catalog. If overridePath names a readable,
// parseable TOML file it replaces the embedded default wholesale; otherwise
// the default is used and any parse problem is logged, not raised — a broken
// override must not take enrichment down.
func LoadCatalog(overridePath string) *Catalog {
	if overridePath != "" {
		if data, err := os.ReadFile(overridePath); err == nil {
			c, parseErr := parseCatalog(data)
			if parseErr == nil {
				slog.Info("using provider catalog override", "path", overridePath)
				return c
			}
			slog.Warn("ignoring invalid provider catalog override", "path", overridePath, "error", parseErr)
		}
	}

	c, err := parseCatalog(defaultCatalogTOML)
	if err != nil {
		// The embedded catalog is validated by tests; this is unreachable
		// short of a corrupted build.
		slog.Error("embedded provider catalog invalid", "error", err)
		return &Catalog{}
	}
	return c
}

// parseCatalog decodes and validates catalog TOML.
func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse provider catalog: %w", err)
	}
	if len(c.Providers) == 0 {
		return nil, fmt.Errorf("provider catalog has no providers")
	}
	for i, p := range c.Providers {
		if p.Name == "" || p.API == "" || p.BaseURL == "" {
			return nil, fmt.Errorf("provider %d: name, api, and base_url are required", i)
		}
	}
	return &c, nil
}
