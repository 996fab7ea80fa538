package hotkeys

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/x11"
)

// X11Listener grabs the forward and backward key sequences on the root
// window. It is the fallback for sessions without access to /dev/input;
// grabs only fire while the X server routes the keys to us.
type X11Listener struct {
	xu       *xgbutil.XUtil
	root     xproto.Window
	commands chan Command
	logger   zerolog.Logger
	once     sync.Once
}

var ignoreModsOnce sync.Once

// StartX11 registers the key grabs. Callbacks run on the connection's event
// goroutine, so the connection's event pump must be running for commands to
// arrive.
func StartX11(conn *x11.Connection, forward, backward string, buffer int, logger zerolog.Logger) (*X11Listener, error) {
	if conn == nil {
		return nil, fmt.Errorf("x11 hotkey backend needs an X connection")
	}
	h := &X11Listener{
		xu:       conn.XUtil,
		root:     conn.Root,
		commands: make(chan Command, buffer),
		logger:   logger,
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(h.xu)
	})

	if err := h.register(forward, Forward); err != nil {
		return nil, err
	}
	if err := h.register(backward, Backward); err != nil {
		keybind.Detach(h.xu, h.root)
		return nil, err
	}
	logger.Info().Str("forward", forward).Str("backward", backward).Msg("hotkey grabs registered")
	return h, nil
}

func (h *X11Listener) Commands() <-chan Command {
	return h.commands
}

// register binds keySequence to cmd. A full channel drops the press; the
// event goroutine must never block.
func (h *X11Listener) register(keySequence string, cmd Command) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		select {
		case h.commands <- cmd:
			h.logger.Debug().Stringer("command", cmd).Msg("hotkey pressed")
		default:
			h.logger.Warn().Stringer("command", cmd).Msg("hotkey queue full, press dropped")
		}
	}).Connect(h.xu, h.root, keySequence, true)
	if err != nil {
		return fmt.Errorf("failed to register hotkey %q: %w", keySequence, err)
	}
	return nil
}

// Close releases the grabs.
func (h *X11Listener) Close() {
	h.once.Do(func() {
		keybind.Detach(h.xu, h.root)
	})
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	xevent.IgnoreMods = ignoreMasks(caps, numLock, scrollLock)
}

// ignoreMasks is every combination of the lock modifiers, including none,
// so grabs fire whatever lock state the keyboard is in.
func ignoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	masks := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		masks = append(masks, mask)
	}
	return masks
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
