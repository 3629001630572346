package update

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

// setManifestURL overrides the package-level manifest URL for a test.
// getManifestURL is triggered first so the sync.Once is consumed and cannot
// clobber the override. The original value is restored via t.Cleanup.
func setManifestURL(t *testing.T, url string) {
	t.Helper()
	getManifestURL()
	old := manifestURL
	manifestURL = url
	t.Cleanup(func() { manifestURL = old })

	// Shrink retry backoff so failure-path tests finish quickly.
	c := getHTTPClient()
	c.RetryWaitMin = time.Millisecond
	c.RetryWaitMax = 5 * time.Millisecond
}

// manifestServer serves a fixed JSON body.
func manifestServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// ///////////////////////////////////////////////
// parseSemver Tests
// ///////////////////////////////////////////////

func TestParseSemver(t *testing.T) {
	tests := []struct {
		input string
		want  []int
	}{
		{"1.2.3", []int{1, 2, 3}},
		{"v1.2.3", []int{1, 2, 3}},
		{"0.0.0", []int{0, 0, 0}},
		{"0.0.0-dev", []int{0, 0, 0}},
		{"1.0.0-beta+build123", []int{1, 0, 0}},
		{"v0.1.0", []int{0, 1, 0}},
		{"10.20.30", []int{10, 20, 30}},
		{"1.2.3-rc.1", []int{1, 2, 3}},
		{"1.2.3+metadata", []int{1, 2, 3}},

		// Invalid inputs should return nil.
		{"", nil},
		{"1.2", nil},
		{"1", nil},
		{"not.a.version", nil},
		{"v", nil},
		{"1.2.x", nil},
		{"a.b.c", nil},
		{"1.2.3.4", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseSemver(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSemver(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// semverLess Tests
// ///////////////////////////////////////////////

func TestSemverLess(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"equal versions", "1.2.3", "1.2.3", false},
		{"a < b major", "0.9.9", "1.0.0", true},
		{"a > b major", "2.0.0", "1.9.9", false},
		{"a < b minor", "1.0.0", "1.1.0", true},
		{"a > b minor", "1.2.0", "1.1.0", false},
		{"a < b patch", "1.0.0", "1.0.1", true},
		{"a > b patch", "1.0.2", "1.0.1", false},
		{"with v prefix", "v0.1.0", "v0.2.0", true},
		{"mixed prefix", "0.1.0", "v0.2.0", true},
		{"pre-release stripped", "0.0.0-dev", "0.1.0", true},
		{"pre-release less than release", "0.1.0-dev", "0.1.0", true},
		{"release not less than pre-release", "0.1.0", "0.1.0-dev", false},
		{"pre-release less than release with v", "v1.0.0-rc.1", "v1.0.0", true},
		{"both pre-release equal numeric", "1.0.0-alpha", "1.0.0-alpha", false},
		{"invalid a", "invalid", "1.0.0", false},
		{"invalid b", "1.0.0", "invalid", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := semverLess(tt.a, tt.b); got != tt.want {
				t.Errorf("semverLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Check Tests
// ///////////////////////////////////////////////

func TestCheck_NewerAvailable(t *testing.T) {
	server := manifestServer(t, `{"version": "9.9.9"}`, http.StatusOK)
	setManifestURL(t, server.URL)

	// Check never returns an error; it must simply complete.
	Check("1.0.0")
}

func TestCheck_SameVersion(t *testing.T) {
	server := manifestServer(t, `{"version": "1.0.0"}`, http.StatusOK)
	setManifestURL(t, server.URL)

	Check("1.0.0")
}

func TestCheck_EmptyManifestURL(t *testing.T) {
	setManifestURL(t, "")

	// Should return early without error.
	Check("1.0.0")
}

// ///////////////////////////////////////////////
// fetchLatest Tests
// ///////////////////////////////////////////////

func TestFetchLatest_Non200(t *testing.T) {
	server := manifestServer(t, ``, http.StatusNotFound)
	setManifestURL(t, server.URL)

	if _, err := fetchLatest(); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestFetchLatest_InvalidJSON(t *testing.T) {
	server := manifestServer(t, `not json`, http.StatusOK)
	setManifestURL(t, server.URL)

	if _, err := fetchLatest(); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestFetchLatest_ValidManifest(t *testing.T) {
	server := manifestServer(t, `{"version": "2.0.0"}`, http.StatusOK)
	setManifestURL(t, server.URL)

	version, err := fetchLatest()
	if err != nil {
		t.Fatalf("fetchLatest: %v", err)
	}
	if version != "2.0.0" {
		t.Errorf("version = %q, want %q", version, "2.0.0")
	}
}
