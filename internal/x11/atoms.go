package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Atoms holds every atom the daemon compares against or writes. They are
// interned once by NewConnection.
type Atoms struct {
	WmName             xproto.Atom
	NetWmName          xproto.Atom
	NetWmPid           xproto.Atom
	NetWmState         xproto.Atom
	NetWmStateHidden   xproto.Atom
	NetWmStateAbove    xproto.Atom
	NetActiveWindow    xproto.Atom
	NetClientList      xproto.Atom
	NetWmWindowOpacity xproto.Atom
	WmChangeState      xproto.Atom
	Wakeup             xproto.Atom
}

const wakeupAtomName = "_PEEKTILE_WAKEUP"

func internAtoms(xu *xgbutil.XUtil) (Atoms, error) {
	var a Atoms
	targets := []struct {
		name string
		dst  *xproto.Atom
	}{
		{"WM_NAME", &a.WmName},
		{"_NET_WM_NAME", &a.NetWmName},
		{"_NET_WM_PID", &a.NetWmPid},
		{"_NET_WM_STATE", &a.NetWmState},
		{"_NET_WM_STATE_HIDDEN", &a.NetWmStateHidden},
		{"_NET_WM_STATE_ABOVE", &a.NetWmStateAbove},
		{"_NET_ACTIVE_WINDOW", &a.NetActiveWindow},
		{"_NET_CLIENT_LIST", &a.NetClientList},
		{"_NET_WM_WINDOW_OPACITY", &a.NetWmWindowOpacity},
		{"WM_CHANGE_STATE", &a.WmChangeState},
		{wakeupAtomName, &a.Wakeup},
	}
	for _, t := range targets {
		atom, err := xprop.Atm(xu, t.name)
		if err != nil {
			return Atoms{}, fmt.Errorf("failed to intern %s: %w", t.name, err)
		}
		*t.dst = atom
	}
	return a, nil
}

// IsTitle reports whether atom names a window title property.
func (a Atoms) IsTitle(atom xproto.Atom) bool {
	return atom == a.WmName || atom == a.NetWmName
}
