// Event loop for the agent: one tick per refresh interval, each tick
// re-reading settings, querying the Music app, enriching, and publishing.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/vamrpc/vamrpc/internal/config"
	"github.com/vamrpc/vamrpc/internal/discord"
	"github.com/vamrpc/vamrpc/internal/enrich"
	"github.com/vamrpc/vamrpc/internal/logger"
	"github.com/vamrpc/vamrpc/internal/player"
	"github.com/vamrpc/vamrpc/internal/presence"
	"github.com/vamrpc/vamrpc/internal/status"
)

// fallbackInterval is used when the loaded refresh interval is unusable.
const fallbackInterval = 5 * time.Second

// presencePublisher is the slice of [discord.Client] the loop needs.
// Narrowed to an interface so loop tests can substitute a fake transport.
type presencePublisher interface {
	Connect() error
	Connected() bool
	SetActivity(*discord.Activity) error
	ClearActivity() error
}

// agent bundles the collaborators of the scheduler loop.
type agent struct {
	paths      SupportPaths
	reader     player.StateReader
	engine     *enrich.Engine
	publisher  presencePublisher
	reporter   *status.Reporter
	logHandler *logger.Handler

	// cleared tracks whether presence is already cleared, so idle ticks do
	// not rewrite an empty activity every interval.
	cleared bool
}

// run drives the loop until a shutdown signal arrives. Watcher events
// trigger an immediate tick; otherwise the timer fires on the refresh
// interval loaded during the previous tick. The timer is rearmed only after
// a tick completes, so ticks never overlap.
func (a *agent) run(sigCh <-chan os.Signal, watcherEvents <-chan struct{}) {
	timer := time.NewTimer(0) // immediate first tick
	defer timer.Stop()

	for {
		select {
		case <-sigCh:
			slog.Info("received shutdown signal")
			return

		case <-watcherEvents:
			slog.Debug("settings change detected")
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(a.tick())

		case <-timer.C:
			timer.Reset(a.tick())
		}
	}
}

// tick runs one scheduler iteration and returns the delay until the next.
// Every failure inside a tick is contained here: logged, surfaced through
// the status file, and forgotten by the next iteration.
func (a *agent) tick() (next time.Duration) {
	next = fallbackInterval

	defer func() {
		if r := recover(); r != nil {
			slog.Error("tick panic", "error", r)
			a.reporter.Errorf("%v", r)
		}
	}()

	settings := config.Load(a.paths.Config())
	a.logHandler.SetLevel(logger.ParseLevel(settings.LogLevel))
	if settings.RefreshInterval > 0 {
		next = time.Duration(settings.RefreshInterval) * time.Second
	}

	// A connection lost after startup gets one reconnect attempt per tick.
	if !a.publisher.Connected() {
		if err := a.publisher.Connect(); err != nil {
			slog.Warn("Discord reconnect failed", "error", err)
			a.reporter.Errorf("reconnect failed: %v", err)
			return next
		}
		slog.Info("reconnected to Discord")
		a.cleared = false
	}

	state := a.reader.ReadState(context.Background())
	if state.State == player.StateStopped || state.Track == nil {
		if a.clear() {
			a.reporter.Idle()
		}
		return next
	}

	track := state.Track
	if settings.IsIgnored(track.Artist, track.Album, track.Name) {
		slog.Debug("track suppressed by privacy pattern", "track", track.Name)
		if a.clear() {
			a.reporter.Idle()
		}
		return next
	}

	meta := a.engine.Enrich(context.Background(), track, enrich.Options{
		WantArtistArt:  settings.SmallImageSource == config.SmallImageArtistArt,
		PrimaryBaseURL: settings.CustomArtApiUrl,
	})

	activity := presence.Build(state, meta, settings, time.Now())
	if activity == nil {
		if a.clear() {
			a.reporter.Idle()
		}
		return next
	}

	if err := a.publisher.SetActivity(activity); err != nil {
		slog.Warn("failed to set activity", "error", err)
		a.reporter.Errorf("publish failed: %v", err)
		return next
	}
	a.cleared = false

	slog.Debug("presence updated", "details", activity.Details, "state", activity.State)
	if state.State == player.StatePlaying {
		a.reporter.Playing(track.Name)
	} else {
		a.reporter.Paused(track.Name)
	}
	return next
}

// clear wipes the published presence once per idle period. It reports
// whether presence is now cleared; on a transport failure it writes the
// error status itself and returns false.
func (a *agent) clear() bool {
	if a.cleared {
		return true
	}
	slog.Debug("clearing presence")
	if err := a.publisher.ClearActivity(); err != nil {
		slog.Warn("failed to clear activity", "error", err)
		a.reporter.Errorf("clear failed: %v", err)
		return false
	}
	a.cleared = true
	return true
}
