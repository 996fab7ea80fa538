package x11

import (
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

const pumpStopTimeout = 2 * time.Second

type eventPump struct {
	events chan xgb.Event
	done   chan struct{}
	exited chan struct{}
}

// Events starts the xevent main loop on its own goroutine and returns a
// channel carrying every X event in delivery order. Key grabs registered
// through keybind still get their callbacks after the event is forwarded.
// Calling Events again returns the same channel.
func (c *Connection) Events(buffer int) <-chan xgb.Event {
	if c.pump != nil {
		return c.pump.events
	}

	p := &eventPump{
		events: make(chan xgb.Event, buffer),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	xevent.HookFun(func(xu *xgbutil.XUtil, ev interface{}) bool {
		e, ok := ev.(xgb.Event)
		if !ok {
			return true
		}
		if msg, ok := e.(xproto.ClientMessageEvent); ok && msg.Type == c.Atoms.Wakeup {
			return false
		}
		select {
		case p.events <- e:
		case <-p.done:
		}
		return true
	}).Connect(c.XUtil)

	go func() {
		defer close(p.exited)
		xevent.Main(c.XUtil)
	}()

	c.pump = p
	return p.events
}

// stop ends the xevent loop. The loop blocks in WaitForEvent, so a client
// message is sent to our own dummy window to wake it.
func (p *eventPump) stop(c *Connection) {
	close(p.done)
	xevent.Quit(c.XUtil)

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: c.XUtil.Dummy(),
		Type:   c.Atoms.Wakeup,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{0, 0, 0, 0, 0}),
	}
	if err := xproto.SendEventChecked(c.Conn(), false, c.XUtil.Dummy(), xproto.EventMaskNoEvent, string(ev.Bytes())).Check(); err != nil {
		c.logger.Debug().Err(err).Msg("failed to wake event loop")
	}

	select {
	case <-p.exited:
	case <-time.After(pumpStopTimeout):
		c.logger.Warn().Msg("event loop did not stop in time")
	}
}
