// Package remote centralizes GitHub raw content URLs for the project.
//
// Owner and repo default to the canonical project repository; release builds
// of forks can re-point them via ldflags.
package remote

import "sync"

// Set at build time via:
//
//	-X github.com/vamrpc/vamrpc/internal/remote.ldOwner=...
//	-X github.com/vamrpc/vamrpc/internal/remote.ldRepo=...
var (
	ldOwner string
	ldRepo  string
)

// Canonical project repository, used when no ldflags override is present.
const (
	defaultOwner = "vamrpc"
	defaultRepo  = "vamrpc"
)

var (
	initOnce sync.Once
	owner    string
	repo     string
)

// ensureInit resolves owner and repo on first call. Build-time ldflags are
// preferred; otherwise the compiled-in project repository is used.
func ensureInit() {
	initOnce.Do(func() {
		if ldOwner != "" && ldRepo != "" {
			owner = ldOwner
			repo = ldRepo
			return
		}
		owner = defaultOwner
		repo = defaultRepo
	})
}

// Owner returns the GitHub repository owner.
func Owner() string {
	ensureInit()
	return owner
}

// Repo returns the GitHub repository name.
func Repo() string {
	ensureInit()
	return repo
}

// RawURL returns the raw GitHub URL for a file on the main branch.
// Returns empty string if owner/repo could not be determined.
func RawURL(path string) string {
	ensureInit()
	if owner == "" || repo == "" {
		return ""
	}
	return "https://raw.githubusercontent.com/" + owner + "/" + repo + "/main/" + path
}
