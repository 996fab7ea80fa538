package daemon

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/cycle"
	"github.com/1broseidon/peektile/internal/ipc"
	"github.com/1broseidon/peektile/internal/session"
)

// Store is the durable character table. config.State implements it.
type Store interface {
	UpdatePosition(name string, x, y int16, width, height uint16) error
	HandleCharacterChange(oldName, newName string, pos config.Position, width, height uint16) (*config.Position, error)
	Positions() map[string]config.CharacterSettings
	Dimensions(name string) (uint16, uint16)
}

// Notifier delivers unsolicited events to IPC subscribers. ipc.Server
// implements it.
type Notifier interface {
	Broadcast(msg ipc.Message)
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(ipc.Message) {}

// StateSynchronizer keeps the cycle order, the session cache, the durable
// store and IPC subscribers in step as previews come, move, change
// character and go. It never talks to the X server.
type StateSynchronizer struct {
	store   Store
	cycle   *cycle.State
	session *session.State
	notify  Notifier
	logger  zerolog.Logger
}

// NewStateSynchronizer wires the bookkeeping components together. A nil
// notifier drops events.
func NewStateSynchronizer(store Store, cyc *cycle.State, sess *session.State, notify Notifier, logger zerolog.Logger) *StateSynchronizer {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &StateSynchronizer{
		store:   store,
		cycle:   cyc,
		session: sess,
		notify:  notify,
		logger:  logger,
	}
}

// Placement resolves where a new preview for name on window goes and how
// big it is. A nil position means the preview spawns next to its source.
func (s *StateSynchronizer) Placement(name string, window xproto.Window, allowInherit bool) (*config.Position, uint16, uint16) {
	pos := s.session.GetPosition(name, window, s.store.Positions(), allowInherit)
	w, h := s.store.Dimensions(name)
	return pos, w, h
}

// HandleWindowAdded registers a new preview. With persist set the initial
// placement is written to the durable store, which makes first-seen
// characters durable immediately.
func (s *StateSynchronizer) HandleWindowAdded(window xproto.Window, name string, x, y int16, width, height uint16, persist bool) error {
	s.cycle.AddWindow(name, window)
	s.session.UpdateWindowPosition(window, x, y)

	var err error
	if persist {
		err = s.store.UpdatePosition(name, x, y, width, height)
	}
	if name != "" {
		s.broadcast(ipc.TypeCharacterAdded, characterPayload(name, x, y, width, height))
	}
	return err
}

// HandleWindowMoved records a finished drag in the session cache and the
// durable store, then tells subscribers.
func (s *StateSynchronizer) HandleWindowMoved(window xproto.Window, name string, x, y int16, width, height uint16) error {
	s.session.UpdateWindowPosition(window, x, y)
	if err := s.store.UpdatePosition(name, x, y, width, height); err != nil {
		return err
	}
	s.logger.Info().
		Uint32("window", uint32(window)).
		Str("character", name).
		Int16("x", x).
		Int16("y", y).
		Msg("preview position saved")
	if name != "" {
		s.broadcast(ipc.TypePositionChanged, characterPayload(name, x, y, width, height))
	}
	return nil
}

// HandleCharacterChange runs when window switches from oldName to newName
// while its preview sits at pos. It returns the position the preview
// should move to, or nil to stay put.
func (s *StateSynchronizer) HandleCharacterChange(window xproto.Window, oldName, newName string, pos config.Position, width, height uint16) (*config.Position, error) {
	s.cycle.UpdateCharacter(window, newName)
	s.session.UpdateWindowPosition(window, pos.X, pos.Y)

	next, err := s.store.HandleCharacterChange(oldName, newName, pos, width, height)

	s.logger.Info().
		Uint32("window", uint32(window)).
		Str("old", oldName).
		Str("new", newName).
		Msg("character changed")

	if oldName != "" {
		s.broadcast(ipc.TypeCharacterRemoved, ipc.CharacterRemovedPayload{Character: oldName})
	}
	if newName != "" {
		at := pos
		if next != nil {
			at = *next
		}
		s.broadcast(ipc.TypeCharacterAdded, characterPayload(newName, at.X, at.Y, width, height))
	}
	if next != nil {
		s.session.UpdateWindowPosition(window, next.X, next.Y)
	}
	return next, err
}

// HandleWindowClosed is called when a preview goes away. The session
// position is dropped only when the source window itself was destroyed;
// previews torn down for a rebuild keep it.
func (s *StateSynchronizer) HandleWindowClosed(window xproto.Window, name string, destroyed bool) {
	s.cycle.RemoveWindow(window)
	if destroyed {
		s.session.Forget(window)
	}
	if name != "" {
		s.broadcast(ipc.TypeCharacterRemoved, ipc.CharacterRemovedPayload{Character: name})
	}
}

func (s *StateSynchronizer) broadcast(t ipc.MessageType, payload any) {
	msg, err := ipc.NewMessage(t, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(t)).Msg("failed to build IPC event")
		return
	}
	s.notify.Broadcast(msg)
}

func characterPayload(name string, x, y int16, width, height uint16) ipc.CharacterPayload {
	return ipc.CharacterPayload{Character: name, X: x, Y: y, Width: width, Height: height}
}
