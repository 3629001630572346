// Package status maintains the one-line status file the menu-bar GUI polls.
//
// The file holds exactly one human-readable line describing the agent's most
// recent tick. Every terminal branch of a tick rewrites it, so its content is
// never more than one refresh interval stale. Writes go through atomicfile so
// the GUI never observes a partially written line.
package status

import (
	"fmt"
	"log/slog"

	"github.com/vamrpc/vamrpc/internal/atomicfile"
)

// Reporter writes status lines to a fixed path. The zero value is not usable;
// construct with [NewReporter].
type Reporter struct {
	path string
}

// NewReporter returns a Reporter writing to path.
func NewReporter(path string) *Reporter {
	return &Reporter{path: path}
}

// Starting records that the agent is booting and has not yet connected.
func (r *Reporter) Starting() {
	r.write("Service Starting...")
}

// Playing records the currently playing track name.
func (r *Reporter) Playing(name string) {
	r.write("Playing: " + name)
}

// Paused records the currently paused track name.
func (r *Reporter) Paused(name string) {
	r.write("Paused: " + name)
}

// Idle records that nothing is playing.
func (r *Reporter) Idle() {
	r.write("Idle")
}

// Errorf records a tick-scoped failure.
func (r *Reporter) Errorf(format string, args ...any) {
	r.write("Error: " + fmt.Sprintf(format, args...))
}

// write replaces the status file content. A write failure is logged and
// swallowed; the status file is advisory and must never fail a tick.
func (r *Reporter) write(line string) {
	if err := atomicfile.Write(r.path, []byte(line+"\n"), 0o644); err != nil {
		slog.Warn("could not write status file", "path", r.path, "error", err)
	}
}
