package daemon

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/classify"
	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/hotkeys"
	"github.com/1broseidon/peektile/internal/thumbnail"
	"github.com/1broseidon/peektile/internal/x11"
)

const (
	sourceMask       = xproto.EventMaskPropertyChange
	targetSourceMask = xproto.EventMaskPropertyChange | xproto.EventMaskFocusChange
)

// Policy is the behavior configuration of one dispatcher run.
type Policy struct {
	PreserveOnSwap          bool
	MinimizeClientsOnSwitch bool
	HotkeyRequireFocus      bool
}

// Dispatcher owns the registry of live previews and routes X events,
// hotkey commands and reconcile sweeps to them. It must only be used from
// the daemon's main loop goroutine.
type Dispatcher struct {
	conn       *x11.Connection
	env        *thumbnail.Env
	classifier *classify.Classifier
	sync       *StateSynchronizer
	policy     Policy
	logger     zerolog.Logger

	thumbs    map[xproto.Window]*thumbnail.Thumbnail // by source window
	byDamage  map[damage.Damage]*thumbnail.Thumbnail
	byPreview map[xproto.Window]*thumbnail.Thumbnail
}

func NewDispatcher(conn *x11.Connection, env *thumbnail.Env, classifier *classify.Classifier, sync *StateSynchronizer, policy Policy, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		conn:       conn,
		env:        env,
		classifier: classifier,
		sync:       sync,
		policy:     policy,
		logger:     logger,
		thumbs:     make(map[xproto.Window]*thumbnail.Thumbnail),
		byDamage:   make(map[damage.Damage]*thumbnail.Thumbnail),
		byPreview:  make(map[xproto.Window]*thumbnail.Thumbnail),
	}
}

// Len returns the number of live previews.
func (d *Dispatcher) Len() int {
	return len(d.thumbs)
}

// Tracked reports whether win is a source window with a preview.
func (d *Dispatcher) Tracked(win xproto.Window) bool {
	_, ok := d.thumbs[win]
	return ok
}

// sorted returns the previews in source-window order so hit-tests are
// deterministic.
func (d *Dispatcher) sorted() []*thumbnail.Thumbnail {
	out := make([]*thumbnail.Thumbnail, 0, len(d.thumbs))
	for _, t := range d.thumbs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Scan creates previews for every target already listed in
// _NET_CLIENT_LIST and makes their placement durable. Per-window failures
// are logged and skipped.
func (d *Dispatcher) Scan() error {
	clients, err := d.conn.ClientList()
	if err != nil {
		return err
	}
	for _, win := range clients {
		if _, err := d.track(win, true); err != nil {
			d.logger.Error().Err(err).Uint32("window", uint32(win)).Msg("failed to process window during initial scan")
		}
	}
	d.logger.Info().Int("clients", len(clients)).Int("previews", len(d.thumbs)).Msg("initial scan complete")
	return nil
}

// Handle routes one X event. The returned error describes a failure for
// this event only.
func (d *Dispatcher) Handle(ev xgb.Event) error {
	switch e := ev.(type) {
	case damage.NotifyEvent:
		return d.handleDamage(e)
	case xproto.CreateNotifyEvent:
		_, err := d.track(e.Window, false)
		return err
	case xproto.DestroyNotifyEvent:
		d.untrack(e.Window, true)
		return nil
	case xproto.PropertyNotifyEvent:
		return d.handleProperty(e)
	case xproto.FocusInEvent:
		return d.handleFocus(e.Event, true)
	case xproto.FocusOutEvent:
		return d.handleFocus(e.Event, false)
	case xproto.ButtonPressEvent:
		return d.handleButtonPress(e)
	case xproto.ButtonReleaseEvent:
		return d.handleButtonRelease(e)
	case xproto.MotionNotifyEvent:
		return d.handleMotion(e)
	}
	return nil
}

func (d *Dispatcher) handleDamage(e damage.NotifyEvent) error {
	t, ok := d.byDamage[e.Damage]
	if !ok {
		return nil
	}
	if err := t.Update(); err != nil {
		return fmt.Errorf("failed to update preview of window %d: %w", t.Source, err)
	}
	damage.Subtract(d.conn.Conn(), e.Damage, xfixes.Region(0), xfixes.Region(0))
	return nil
}

// track classifies win and creates its preview when it is a target. It
// returns nil without error for windows that are not targets.
func (d *Dispatcher) track(win xproto.Window, persist bool) (*thumbnail.Thumbnail, error) {
	if _, ok := d.byPreview[win]; ok {
		return nil, nil
	}
	if t, ok := d.thumbs[win]; ok {
		return t, nil
	}

	pid, hasPID := d.conn.WindowPID(win)
	if !d.classifier.ProcessAllowed(pid, hasPID) {
		return nil, nil
	}

	if err := d.conn.SelectInput(win, sourceMask); err != nil {
		return nil, err
	}
	title, err := d.conn.WindowTitle(win)
	if err != nil {
		return nil, err
	}
	result := d.classifier.Title(title)
	if !result.IsTarget() {
		return nil, nil
	}
	if err := d.conn.SelectInput(win, targetSourceMask); err != nil {
		return nil, err
	}

	return d.create(win, result.Name, persist)
}

func (d *Dispatcher) create(win xproto.Window, name string, persist bool) (*thumbnail.Thumbnail, error) {
	pos, width, height := d.sync.Placement(name, win, d.policy.PreserveOnSwap)

	t, err := thumbnail.New(d.env, win, name, width, height, pos)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview for %q (window %d): %w", name, win, err)
	}

	d.thumbs[win] = t
	d.byDamage[t.Damage] = t
	d.byPreview[t.Window] = t

	minimized, err := d.conn.IsMinimized(win)
	if err != nil {
		d.logger.Debug().Err(err).Uint32("window", uint32(win)).Msg("failed to query minimized state")
	} else if minimized {
		if err := t.SetMinimized(); err != nil {
			d.logger.Error().Err(err).Uint32("window", uint32(win)).Msg("failed to show minimized state")
		}
	}

	geom, err := t.Geometry()
	if err != nil {
		d.logger.Debug().Err(err).Uint32("window", uint32(win)).Msg("failed to query preview geometry, using creation origin")
	}
	at := addedPosition(t.Origin, geom, err)
	if err := d.sync.HandleWindowAdded(win, name, at.X, at.Y, width, height, persist); err != nil {
		d.logger.Error().Err(err).Str("character", name).Msg("failed to save initial position")
	}

	d.logger.Info().
		Uint32("window", uint32(win)).
		Str("character", t.Label()).
		Bool("minimized", minimized).
		Msg("preview created")
	return t, nil
}

// untrack drops the preview of win. sourceGone tells the preview and the
// session cache that the source window no longer exists.
func (d *Dispatcher) untrack(win xproto.Window, sourceGone bool) {
	t, ok := d.thumbs[win]
	if !ok {
		return
	}
	delete(d.thumbs, win)
	delete(d.byDamage, t.Damage)
	delete(d.byPreview, t.Window)

	t.Release(sourceGone)
	d.sync.HandleWindowClosed(win, t.Name, sourceGone)
	d.logger.Info().Uint32("window", uint32(win)).Str("character", t.Label()).Msg("preview destroyed")
}

func (d *Dispatcher) handleProperty(e xproto.PropertyNotifyEvent) error {
	atoms := d.conn.Atoms
	switch {
	case atoms.IsTitle(e.Atom):
		t, ok := d.thumbs[e.Window]
		if !ok {
			_, err := d.track(e.Window, false)
			return err
		}
		return d.retitle(t)

	case e.Atom == atoms.NetWmState:
		t, ok := d.thumbs[e.Window]
		if !ok {
			return nil
		}
		minimized, err := d.conn.IsMinimized(e.Window)
		if err != nil {
			return err
		}
		if minimized && !t.Minimized {
			return t.SetMinimized()
		}
	}
	return nil
}

// retitle re-classifies a tracked window after its title changed.
func (d *Dispatcher) retitle(t *thumbnail.Thumbnail) error {
	title, err := d.conn.WindowTitle(t.Source)
	if err != nil {
		return err
	}
	result := d.classifier.Title(title)
	switch titleAction(result, t.Name) {
	case titleDrop:
		d.untrack(t.Source, false)
		return nil
	case titleKeep:
		return nil
	}

	geom, err := t.Geometry()
	if err != nil {
		return err
	}
	oldName := t.Name
	pos := geomPosition(geom)
	next, err := d.sync.HandleCharacterChange(t.Source, oldName, result.Name, pos, t.Width, t.Height)
	if err != nil {
		d.logger.Error().Err(err).Str("character", oldName).Msg("failed to save position on character change")
	}

	if err := t.SetName(result.Name); err != nil {
		return err
	}
	if to, ok := moveAfterCharacterChange(pos, next); ok {
		t.Reposition(to.X, to.Y)
	}
	return nil
}

func (d *Dispatcher) handleFocus(win xproto.Window, focused bool) error {
	t, ok := d.thumbs[win]
	if !ok {
		return nil
	}
	if err := t.SetFocused(focused); err != nil {
		return err
	}

	if focused {
		d.sync.cycle.SetCurrentWindow(win)
	}
	if show, ok := focusVisibility(d.env.Display.HideWhenNoFocus, focused, d.visibility()); ok {
		d.setAllVisible(show)
	}
	return nil
}

func (d *Dispatcher) visibility() []visibility {
	out := make([]visibility, 0, len(d.thumbs))
	for _, t := range d.thumbs {
		out = append(out, visibility{Focused: t.Focused, Minimized: t.Minimized, Visible: t.Visible})
	}
	return out
}

func (d *Dispatcher) setAllVisible(visible bool) {
	for _, t := range d.thumbs {
		t.SetVisible(visible)
	}
}

// hit returns the visible preview under the root point.
func (d *Dispatcher) hit(x, y int16) (*thumbnail.Thumbnail, error) {
	var errs []error
	for _, t := range d.sorted() {
		ok, err := t.Contains(x, y)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return t, nil
		}
	}
	return nil, errors.Join(errs...)
}

func (d *Dispatcher) dragging() *thumbnail.Thumbnail {
	for _, t := range d.sorted() {
		if t.Input.Dragging {
			return t
		}
	}
	return nil
}

func (d *Dispatcher) handleButtonPress(e xproto.ButtonPressEvent) error {
	t, err := d.hit(e.RootX, e.RootY)
	if t == nil {
		return err
	}
	geom, err := t.Geometry()
	if err != nil {
		return err
	}
	t.Input = beginPress(byte(e.Detail), e.RootX, e.RootY, geom.X, geom.Y)
	if byte(e.Detail) == buttonFocus {
		d.sync.cycle.SetCurrentWindow(t.Source)
	}
	return nil
}

// handleButtonRelease ends a drag or completes a click. The release goes to
// the preview being dragged even when the pointer outran it.
func (d *Dispatcher) handleButtonRelease(e xproto.ButtonReleaseEvent) error {
	t := d.dragging()
	if t == nil {
		var err error
		if t, err = d.hit(e.RootX, e.RootY); t == nil {
			return err
		}
	}

	if isClick(byte(e.Detail), t.Input, e.RootX, e.RootY) {
		if err := d.conn.ActivateWindow(t.Source); err != nil {
			return err
		}
	}

	if !t.Input.Dragging {
		return nil
	}
	t.Input.Dragging = false

	geom, err := t.Geometry()
	if err != nil {
		return err
	}
	return d.sync.HandleWindowMoved(t.Source, t.Name, geom.X, geom.Y, t.Width, t.Height)
}

func (d *Dispatcher) handleMotion(e xproto.MotionNotifyEvent) error {
	for _, t := range d.sorted() {
		if !t.Input.Dragging {
			continue
		}
		x, y := dragPosition(t.Input, e.RootX, e.RootY)

		peers, err := d.peerGeometry(t)
		if err != nil {
			d.logger.Debug().Err(err).Msg("snapping against partial peer set")
		}
		x, y = snapDrag(x, y, t.Width, t.Height, peers, d.env.Display.SnapThreshold)
		t.Reposition(x, y)
	}
	return nil
}

// peerGeometry is the live geometry of every visible preview other than
// dragged that is not itself being dragged.
func (d *Dispatcher) peerGeometry(dragged *thumbnail.Thumbnail) ([]x11.Geometry, error) {
	var peers []x11.Geometry
	var errs []error
	for _, t := range d.sorted() {
		if t == dragged || !t.Visible || t.Input.Dragging {
			continue
		}
		g, err := t.Geometry()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		peers = append(peers, g)
	}
	return peers, errors.Join(errs...)
}

// HandleHotkey activates the next or previous client in cycle order.
func (d *Dispatcher) HandleHotkey(cmd hotkeys.Command) {
	if d.policy.HotkeyRequireFocus {
		focused, err := d.conn.IsTrackedFocused(d.Tracked)
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to check focused window")
			return
		}
		if !focused {
			d.logger.Info().Stringer("command", cmd).Msg("hotkey ignored, no client focused")
			return
		}
	}

	var (
		win  xproto.Window
		name string
		ok   bool
	)
	if cmd == hotkeys.Backward {
		win, name, ok = d.sync.cycle.CycleBackward()
	} else {
		win, name, ok = d.sync.cycle.CycleForward()
	}
	if !ok {
		d.logger.Warn().Int("order", len(d.sync.cycle.Order())).Msg("no window to activate, cycle state is empty")
		return
	}

	label := name
	if label == "" {
		label = d.env.Display.LoggedOutLabel
	}
	d.logger.Info().Stringer("command", cmd).Uint32("window", uint32(win)).Str("character", label).Msg("activating window via hotkey")

	if err := d.conn.ActivateWindow(win); err != nil {
		d.logger.Error().Err(err).Uint32("window", uint32(win)).Msg("failed to activate window")
		return
	}
	if !d.policy.MinimizeClientsOnSwitch {
		return
	}
	for other := range d.thumbs {
		if other == win {
			continue
		}
		if err := d.conn.MinimizeWindow(other); err != nil {
			d.logger.Debug().Err(err).Uint32("window", uint32(other)).Msg("failed to minimize window via hotkey")
		}
	}
}

// Sources returns the tracked source windows.
func (d *Dispatcher) Sources() []xproto.Window {
	out := make([]xproto.Window, 0, len(d.thumbs))
	for _, t := range d.sorted() {
		out = append(out, t.Source)
	}
	return out
}

// Drop removes the preview of a source that vanished without a
// DestroyNotify.
func (d *Dispatcher) Drop(win xproto.Window) {
	d.untrack(win, true)
}

// Close releases every preview. Subscribers are told each character left.
func (d *Dispatcher) Close() {
	for _, win := range d.Sources() {
		d.untrack(win, false)
	}
}

func geomPosition(g x11.Geometry) config.Position {
	return config.Position{X: g.X, Y: g.Y}
}
