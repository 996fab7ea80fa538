package hotkeys

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// ErrNoKeyboard is returned when no input device exposes the trigger key.
var ErrNoKeyboard = errors.New("no keyboard device found (are you in the 'input' group?)")

// Linux input constants from <linux/input-event-codes.h>.
const (
	evKey = 0x01

	keyTab        = 15
	keyLeftShift  = 42
	keyRightShift = 54
	keyMax        = 0x2ff

	keyPress = 1

	keyBitsLen = keyMax/8 + 1
)

// ioctl request encoding from <asm-generic/ioctl.h>.
const (
	iocRead      = 2
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift
}

func eviocgname(size int) uintptr   { return ioc(iocRead, 'E', 0x06, uintptr(size)) }
func eviocgkey(size int) uintptr    { return ioc(iocRead, 'E', 0x18, uintptr(size)) }
func eviocgbit(ev, size int) uintptr { return ioc(iocRead, 'E', 0x20+uintptr(ev), uintptr(size)) }

// inputEventSize is sizeof(struct input_event): a timeval followed by
// type, code and value.
var inputEventSize = int(unsafe.Sizeof(unix.Timeval{})) + 8

type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// parseEvents decodes whole input_event records from buf. A trailing
// partial record is ignored.
func parseEvents(buf []byte, size int) []inputEvent {
	events := make([]inputEvent, 0, len(buf)/size)
	for off := 0; off+size <= len(buf); off += size {
		rec := buf[off : off+size]
		events = append(events, inputEvent{
			Type:  binary.NativeEndian.Uint16(rec[size-8:]),
			Code:  binary.NativeEndian.Uint16(rec[size-6:]),
			Value: int32(binary.NativeEndian.Uint32(rec[size-4:])),
		})
	}
	return events
}

func testBit(bits []byte, n int) bool {
	if n < 0 || n/8 >= len(bits) {
		return false
	}
	return bits[n/8]&(1<<(uint(n)%8)) != 0
}

// commandFor picks the direction from a device key-state bitmap.
func commandFor(keyState []byte) Command {
	if testBit(keyState, keyLeftShift) || testBit(keyState, keyRightShift) {
		return Backward
	}
	return Forward
}

// ioctlBuffer runs a read ioctl into buf. The descriptor is borrowed through
// SyscallConn so the file stays in non-blocking mode and Close can
// interrupt a pending Read.
func ioctlBuffer(f *os.File, req uintptr, buf []byte) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var errno syscall.Errno
	err = rc.Control(func(fd uintptr) {
		_, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(unsafe.Pointer(&buf[0])))
	})
	if err != nil {
		return err
	}
	if errno != 0 {
		return errno
	}
	return nil
}

// device is an open evdev node that reports the trigger key.
type device struct {
	path string
	name string
	file *os.File
}

func (d *device) keyState() ([]byte, error) {
	state := make([]byte, keyBitsLen)
	if err := ioctlBuffer(d.file, eviocgkey(len(state)), state); err != nil {
		return nil, fmt.Errorf("failed to query key state of %s: %w", d.path, err)
	}
	return state, nil
}

func openDevice(path string) (*device, bool) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, false
	}

	keys := make([]byte, keyBitsLen)
	if err := ioctlBuffer(f, eviocgbit(evKey, len(keys)), keys); err != nil || !testBit(keys, keyTab) {
		f.Close()
		return nil, false
	}

	name := make([]byte, 256)
	if err := ioctlBuffer(f, eviocgname(len(name)), name); err != nil {
		name = name[:0]
	}
	return &device{
		path: path,
		name: strings.TrimRight(string(name), "\x00"),
		file: f,
	}, true
}

// scanDevices opens every event node in dir that exposes the trigger key.
func scanDevices(dir string, logger zerolog.Logger) ([]*device, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("failed to read %s (are you in the 'input' group?): %w", dir, err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "event*"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	var devices []*device
	for _, p := range paths {
		d, ok := openDevice(p)
		if !ok {
			continue
		}
		logger.Info().Str("device", d.path).Str("name", d.name).Msg("found keyboard device")
		devices = append(devices, d)
	}
	if len(devices) == 0 {
		return nil, ErrNoKeyboard
	}
	return devices, nil
}

// EvdevListener reads Tab presses straight from the kernel input devices,
// which works regardless of which window holds the keyboard focus. Tab
// cycles forward, Shift+Tab backward.
type EvdevListener struct {
	commands chan Command
	devices  []*device
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	logger   zerolog.Logger
}

// StartEvdev scans dir and starts one reader goroutine per keyboard.
func StartEvdev(dir string, buffer int, logger zerolog.Logger) (*EvdevListener, error) {
	if dir == "" {
		dir = "/dev/input"
	}
	devices, err := scanDevices(dir, logger)
	if err != nil {
		return nil, err
	}

	l := &EvdevListener{
		commands: make(chan Command, buffer),
		devices:  devices,
		done:     make(chan struct{}),
		logger:   logger,
	}
	for _, d := range devices {
		l.wg.Add(1)
		go l.listen(d)
	}
	logger.Info().Int("devices", len(devices)).Msg("hotkey listener started")
	return l, nil
}

func (l *EvdevListener) Commands() <-chan Command {
	return l.commands
}

func (l *EvdevListener) listen(d *device) {
	defer l.wg.Done()
	logger := l.logger.With().Str("device", d.path).Logger()
	buf := make([]byte, 64*inputEventSize)

	for {
		n, err := d.file.Read(buf)
		if err != nil {
			select {
			case <-l.done:
			default:
				logger.Error().Err(err).Msg("hotkey device read failed, listener stopped")
			}
			return
		}

		for _, ev := range parseEvents(buf[:n], inputEventSize) {
			if ev.Type != evKey || ev.Code != keyTab || ev.Value != keyPress {
				continue
			}
			// Ask the kernel for the live modifier state instead of tracking
			// shift events, which may arrive in a different batch.
			state, err := d.keyState()
			if err != nil {
				logger.Warn().Err(err).Msg("assuming no modifier held")
				state = nil
			}
			cmd := commandFor(state)
			logger.Debug().Stringer("command", cmd).Msg("hotkey pressed")

			select {
			case l.commands <- cmd:
			case <-l.done:
				return
			}
		}
	}
}

// Close stops every reader and closes the device files.
func (l *EvdevListener) Close() {
	l.once.Do(func() {
		close(l.done)
		for _, d := range l.devices {
			d.file.Close()
		}
		l.wg.Wait()
	})
}
