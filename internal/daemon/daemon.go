// Package daemon runs the preview daemon: one goroutine owns the X
// connection and every preview, and multiplexes X events, hotkey commands,
// IPC requests, reconcile sweeps, config reloads and signals.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/classify"
	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/cycle"
	"github.com/1broseidon/peektile/internal/font"
	"github.com/1broseidon/peektile/internal/hotkeys"
	"github.com/1broseidon/peektile/internal/ipc"
	"github.com/1broseidon/peektile/internal/logging"
	"github.com/1broseidon/peektile/internal/session"
	"github.com/1broseidon/peektile/internal/thumbnail"
	"github.com/1broseidon/peektile/internal/x11"
)

const (
	eventBuffer   = 256
	hotkeyBuffer  = 16
	requestBuffer = 16
)

// Options configures a daemon.
type Options struct {
	// ConfigPath is the config file; empty means the default location.
	ConfigPath string
	// SocketPath overrides the IPC socket; empty means the runtime default.
	SocketPath string
	// Watch enables live reload when the config file changes.
	Watch bool
	// LogLevel, when set, wins over global.log_level.
	LogLevel string
}

// Daemon is one running preview daemon.
type Daemon struct {
	conn      *x11.Connection
	state     *config.State
	server    *ipc.Server
	watcher   *config.Watcher
	hotkeys   hotkeys.Source
	hotkeyCfg config.HotkeyConfig

	session    *session.State
	font       *font.Renderer
	dispatcher *Dispatcher
	reconciler *Reconciler

	logLevel string
	logger   zerolog.Logger
}

// New loads the configuration, connects to the X server and binds the IPC
// socket. Every error returned here is fatal.
func New(opts Options) (*Daemon, error) {
	logger := logging.WithComponent("daemon")

	path, err := config.ResolvePath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		logger.Warn().Msg(w)
	}

	conn, err := x11.NewConnection(logging.WithComponent("x11"))
	if err != nil {
		return nil, err
	}
	width, height := conn.ScreenSize()
	logger.Info().
		Uint16("width", width).
		Uint16("height", height).
		Str("config", path).
		Bool("config_exists", res.Exists).
		Str("profile", res.Config.Profile().Name).
		Msg("connected to X server")

	server, err := ipc.NewServer(opts.SocketPath, requestBuffer, logging.WithComponent("ipc"))
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := server.Start(); err != nil {
		conn.Close()
		return nil, err
	}

	d := &Daemon{
		conn:     conn,
		state:    config.NewState(path, res.Config),
		server:   server,
		session:  session.New(),
		logLevel: opts.LogLevel,
		logger:   logger,
	}

	if opts.Watch {
		w, err := config.NewWatcher(path, config.DefaultReloadDebounce, logging.WithComponent("config"))
		if err != nil {
			logger.Warn().Err(err).Msg("config live reload disabled")
		} else {
			d.watcher = w
		}
	}
	return d, nil
}

// Run processes events until ctx is cancelled, an IPC shutdown arrives or
// the X connection is lost. Everything is released before it returns.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer d.close()

	if err := d.conn.SelectInput(d.conn.Root, xproto.EventMaskSubstructureNotify); err != nil {
		return fmt.Errorf("failed to select root window events: %w", err)
	}

	if err := d.build(); err != nil {
		return err
	}

	events := d.conn.Events(eventBuffer)

	var reloads <-chan struct{}
	if d.watcher != nil {
		go d.watcher.Run(ctx)
		reloads = d.watcher.Changes()
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	ticker := time.NewTicker(d.reconciler.Interval())
	defer ticker.Stop()

	d.logger.Info().Int("previews", d.dispatcher.Len()).Msg("preview daemon running")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("shutting down")
			return nil

		case ev, ok := <-events:
			if !ok {
				return errors.New("X event stream closed")
			}
			if err := d.dispatcher.Handle(ev); err != nil {
				d.logger.Error().Err(err).Msg("event handling error")
			}

		case cmd := <-d.hotkeys.Commands():
			d.dispatcher.HandleHotkey(cmd)

		case req := <-d.server.Requests():
			if stop := d.handleRequest(req); stop {
				d.logger.Info().Msg("shutdown requested over IPC")
				return nil
			}

		case <-ticker.C:
			d.reconciler.ReconcileNow()

		case <-reloads:
			d.reload("config file changed")

		case <-hup:
			d.reload("SIGHUP")
		}
	}
}

// build creates everything that depends on the current configuration and
// scans for clients. It is used at startup and for every rebuild.
func (d *Daemon) build() error {
	cfg := d.state.Config()
	profile := d.state.Profile()
	global := d.state.Global()

	level := global.LogLevel
	if d.logLevel != "" {
		level = d.logLevel
	}
	zerolog.SetGlobalLevel(logging.ParseLevel(level))

	display, err := config.BuildDisplayConfig(*profile, d.state.Target())
	if err != nil {
		return err
	}

	renderer, err := font.New(display.TextFont, display.TextSize)
	if err != nil {
		if display.TextFont == "" {
			return err
		}
		d.logger.Warn().Err(err).Str("font", display.TextFont).Msg("failed to load configured font, using built-in")
		if renderer, err = font.New("", display.TextSize); err != nil {
			return err
		}
	}
	if d.font != nil {
		d.font.Close()
	}
	d.font = renderer

	monitors, err := d.conn.GetMonitors()
	if err != nil {
		d.logger.Warn().Err(err).Msg("failed to list monitors")
	}

	if d.hotkeys == nil || d.hotkeyCfg != global.Hotkeys {
		d.openHotkeys(global.Hotkeys)
	}

	env := &thumbnail.Env{
		Conn:     d.conn,
		Display:  &display,
		Font:     renderer,
		Monitors: monitors,
		Logger:   logging.WithComponent("thumbnail"),
	}
	sync := NewStateSynchronizer(d.state, cycle.New(profile.CycleGroup), d.session, d.server, d.logger)
	policy := Policy{
		PreserveOnSwap:          global.PreserveThumbnailPositionOnSwap,
		MinimizeClientsOnSwitch: global.MinimizeClientsOnSwitch,
		HotkeyRequireFocus:      profile.HotkeyRequireFocus,
	}
	d.dispatcher = NewDispatcher(d.conn, env, classify.New(cfg.Target, logging.WithComponent("classify")), sync, policy, d.logger)

	interval := time.Duration(global.ReconcileIntervalSeconds) * time.Second
	if d.reconciler == nil {
		d.reconciler = NewReconciler(ReconcilerConfig{Interval: interval, Logger: d.logger}, d.dispatcher, d.windowExists, d.promote)
	} else {
		d.reconciler.SetTracker(d.dispatcher)
	}

	d.logger.Info().
		Str("profile", profile.Name).
		Uint32("opacity", display.Opacity).
		Uint16("border", display.EffectiveBorderSize()).
		Int("snap_threshold", display.SnapThreshold).
		Bool("hide_when_no_focus", display.HideWhenNoFocus).
		Msg("display configuration loaded")

	return d.dispatcher.Scan()
}

func (d *Daemon) openHotkeys(cfg config.HotkeyConfig) {
	if d.hotkeys != nil {
		d.hotkeys.Close()
	}
	d.hotkeyCfg = cfg

	logger := logging.WithComponent("hotkeys")
	src, err := hotkeys.Open(cfg, d.conn, hotkeyBuffer, logger)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Backend).Msg("failed to start hotkey listener, continuing without hotkeys")
		src, _ = hotkeys.Open(config.HotkeyConfig{Backend: config.HotkeyBackendNone}, nil, 0, logger)
	}
	d.hotkeys = src
}

// rebuild tears every preview down and builds them again from the current
// configuration. The display configuration is fixed for a dispatcher's
// lifetime, so this is the only way settings change.
func (d *Daemon) rebuild(reason string) {
	d.logger.Info().Str("reason", reason).Msg("rebuilding previews")
	d.dispatcher.Close()
	if err := d.build(); err != nil {
		d.logger.Error().Err(err).Msg("rebuild failed")
	}
}

// reload re-reads the config file. Changes that only touch the character
// tables are ignored; those are our own position saves.
func (d *Daemon) reload(reason string) {
	res, err := config.LoadFromPath(d.state.Path())
	if err != nil {
		d.logger.Error().Err(err).Msg("config reload failed, keeping current configuration")
		return
	}
	if res.Config.EqualIgnoringCharacters(d.state.Config()) {
		d.logger.Debug().Str("reason", reason).Msg("config unchanged, reload skipped")
		return
	}
	for _, w := range res.Warnings {
		d.logger.Warn().Msg(w)
	}
	d.state.Replace(res.Config)
	d.rebuild(reason)
}

// handleRequest answers one forwarded IPC request. It reports whether the
// daemon should stop.
func (d *Daemon) handleRequest(req ipc.Request) bool {
	switch req.Message.Type {
	case ipc.TypeGetPositions:
		msg, err := ipc.NewMessage(ipc.TypePositions, ipc.PositionsPayload{Characters: d.state.Positions()})
		if err != nil {
			msg = ipc.NewErrorMessage(err.Error())
		}
		req.Reply <- msg

	case ipc.TypeSetProfile:
		var payload ipc.SetProfilePayload
		if err := req.Message.Decode(&payload); err != nil {
			req.Reply <- ipc.NewErrorMessage(err.Error())
			return false
		}
		if err := d.state.ApplyProfile(payload.Profile, payload.Global); err != nil {
			req.Reply <- ipc.NewErrorMessage(err.Error())
			return false
		}
		d.logger.Info().Str("profile", payload.Profile.Name).Msg("received profile configuration via IPC")
		req.Reply <- ipc.Message{Type: ipc.TypeReady}
		d.rebuild("profile pushed over IPC")

	case ipc.TypeShutdown:
		req.Reply <- ipc.Message{Type: ipc.TypeReady}
		return true

	default:
		req.Reply <- ipc.NewErrorMessage(fmt.Sprintf("unexpected message type %q", req.Message.Type))
	}
	return false
}

func (d *Daemon) windowExists(win xproto.Window) bool {
	_, err := d.conn.GetGeometry(win)
	return err == nil
}

func (d *Daemon) promote(win xproto.Window) error {
	return d.conn.SelectInput(win, targetSourceMask)
}

// close releases previews before the connection they live on.
func (d *Daemon) close() {
	if d.dispatcher != nil {
		d.dispatcher.Close()
	}
	if d.hotkeys != nil {
		d.hotkeys.Close()
	}
	if d.watcher != nil {
		d.watcher.Close()
	}
	d.server.Stop()
	d.conn.Close()
	if d.font != nil {
		d.font.Close()
	}
	d.logger.Info().Msg("preview daemon stopped")
}
