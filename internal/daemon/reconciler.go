package daemon

import (
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"
)

// Tracker is the part of the dispatcher the reconciler sweeps.
type Tracker interface {
	Sources() []xproto.Window
	Drop(win xproto.Window)
}

// WindowProbe reports whether a window still exists on the server.
type WindowProbe func(win xproto.Window) bool

// Repromoter re-selects the events a tracked source must deliver.
type Repromoter func(win xproto.Window) error

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   zerolog.Logger
}

// Reconciler periodically checks for state drift and corrects it: previews
// whose source vanished without a DestroyNotify are dropped and surviving
// sources get their event mask selected again.
type Reconciler struct {
	interval time.Duration
	tracker  Tracker
	exists   WindowProbe
	promote  Repromoter
	logger   zerolog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, tracker Tracker, exists WindowProbe, promote Repromoter) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &Reconciler{
		interval: interval,
		tracker:  tracker,
		exists:   exists,
		promote:  promote,
		logger:   cfg.Logger,
	}
}

// Interval is how often the main loop should call ReconcileNow.
func (r *Reconciler) Interval() time.Duration {
	return r.interval
}

// SetTracker points the reconciler at a rebuilt dispatcher.
func (r *Reconciler) SetTracker(tracker Tracker) {
	r.tracker = tracker
}

// ReconcileNow performs a single reconciliation pass and returns the
// sources that were dropped.
func (r *Reconciler) ReconcileNow() (dropped []xproto.Window) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Msg("reconciler panic recovered")
		}
	}()

	for _, win := range r.tracker.Sources() {
		if !r.exists(win) {
			r.logger.Info().Uint32("window", uint32(win)).Msg("reconciler: source window vanished")
			r.tracker.Drop(win)
			dropped = append(dropped, win)
			continue
		}
		if r.promote == nil {
			continue
		}
		if err := r.promote(win); err != nil {
			r.logger.Warn().Err(err).Uint32("window", uint32(win)).Msg("reconciler: failed to select source events")
		}
	}
	return dropped
}
