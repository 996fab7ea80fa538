package hotkeys

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/config"
)

func TestIoctlRequests(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"EVIOCGNAME(256)", eviocgname(256), 0x81004506},
		{"EVIOCGKEY(96)", eviocgkey(96), 0x80604518},
		{"EVIOCGBIT(EV_KEY, 96)", eviocgbit(evKey, 96), 0x80604521},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %#x, want %#x", tt.name, tt.got, tt.want)
		}
	}
	if keyBitsLen != 96 {
		t.Fatalf("keyBitsLen = %d, want 96", keyBitsLen)
	}
}

func TestTestBit(t *testing.T) {
	bits := make([]byte, 8)
	bits[1] = 0x80 // bit 15
	bits[5] = 0x04 // bit 42

	tests := []struct {
		n    int
		want bool
	}{
		{keyTab, true},
		{keyLeftShift, true},
		{keyRightShift, false},
		{0, false},
		{-1, false},
		{1000, false},
	}
	for _, tt := range tests {
		if got := testBit(bits, tt.n); got != tt.want {
			t.Errorf("testBit(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func setBit(bits []byte, n int) {
	bits[n/8] |= 1 << (uint(n) % 8)
}

func TestCommandFor(t *testing.T) {
	none := make([]byte, keyBitsLen)
	left := make([]byte, keyBitsLen)
	setBit(left, keyLeftShift)
	right := make([]byte, keyBitsLen)
	setBit(right, keyRightShift)
	tabOnly := make([]byte, keyBitsLen)
	setBit(tabOnly, keyTab)

	tests := []struct {
		name  string
		state []byte
		want  Command
	}{
		{"no modifiers", none, Forward},
		{"left shift", left, Backward},
		{"right shift", right, Backward},
		{"tab held only", tabOnly, Forward},
		{"unknown state", nil, Forward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commandFor(tt.state); got != tt.want {
				t.Fatalf("commandFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func encodeEvent(size int, typ, code uint16, value int32) []byte {
	rec := make([]byte, size)
	binary.NativeEndian.PutUint16(rec[size-8:], typ)
	binary.NativeEndian.PutUint16(rec[size-6:], code)
	binary.NativeEndian.PutUint32(rec[size-4:], uint32(value))
	return rec
}

func TestParseEvents(t *testing.T) {
	size := inputEventSize
	var buf []byte
	buf = append(buf, encodeEvent(size, evKey, keyLeftShift, 1)...)
	buf = append(buf, encodeEvent(size, evKey, keyTab, keyPress)...)
	buf = append(buf, encodeEvent(size, 0, 0, 0)...)
	buf = append(buf, 1, 2, 3) // partial trailing record

	events := parseEvents(buf, size)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[1] != (inputEvent{Type: evKey, Code: keyTab, Value: keyPress}) {
		t.Fatalf("event 1 = %+v", events[1])
	}
	if events[0].Code != keyLeftShift {
		t.Fatalf("event 0 = %+v", events[0])
	}
}

func TestScanDevices_Errors(t *testing.T) {
	if _, err := scanDevices(filepath.Join(t.TempDir(), "missing"), zerolog.Nop()); err == nil || !strings.Contains(err.Error(), "input") {
		t.Fatalf("expected a permissions hint, got %v", err)
	}

	dir := t.TempDir()
	// A regular file answers no evdev ioctl and must be skipped.
	if err := os.WriteFile(filepath.Join(dir, "event0"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := scanDevices(dir, zerolog.Nop()); !errors.Is(err, ErrNoKeyboard) {
		t.Fatalf("expected ErrNoKeyboard, got %v", err)
	}
}

func TestIgnoreMasks(t *testing.T) {
	tests := []struct {
		name                  string
		caps, numLock, scroll uint16
		want                  []uint16
	}{
		{"caps only", 2, 0, 0, []uint16{0, 2}},
		{"caps and num lock", 2, 16, 0, []uint16{0, 2, 16, 18}},
		{"all three", 2, 16, 128, []uint16{0, 2, 16, 18, 128, 130, 144, 146}},
		{"duplicate masks collapse", 2, 2, 2, []uint16{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ignoreMasks(tt.caps, tt.numLock, tt.scroll)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestOpen_Backends(t *testing.T) {
	src, err := Open(config.HotkeyConfig{Backend: config.HotkeyBackendNone}, nil, 1, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if src.Commands() != nil {
		t.Fatal("disabled backend should have no channel")
	}
	src.Close()

	if _, err := Open(config.HotkeyConfig{Backend: "joystick"}, nil, 1, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := Open(config.HotkeyConfig{Backend: config.HotkeyBackendX11}, nil, 1, zerolog.Nop()); err == nil {
		t.Fatal("expected error for x11 backend without a connection")
	}
}

func TestCommandString(t *testing.T) {
	if Forward.String() != "forward" || Backward.String() != "backward" {
		t.Fatal("unexpected command names")
	}
	if Command(7).String() != "Command(7)" {
		t.Fatalf("got %q", Command(7).String())
	}
}
