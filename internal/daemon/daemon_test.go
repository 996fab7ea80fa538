package daemon

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/ipc"
)

func newRequestDaemon(t *testing.T) *Daemon {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	state := config.NewState(path, config.DefaultConfig())
	if err := state.UpdatePosition("Alice", 100, 200, 250, 141); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &Daemon{state: state, logger: zerolog.Nop()}
}

func request(t *testing.T, d *Daemon, msg ipc.Message) (ipc.Message, bool) {
	t.Helper()
	reply := make(chan ipc.Message, 1)
	stop := d.handleRequest(ipc.Request{Message: msg, Reply: reply})
	select {
	case got := <-reply:
		return got, stop
	default:
		t.Fatalf("no reply to %s", msg.Type)
		return ipc.Message{}, stop
	}
}

func TestHandleRequest_GetPositions(t *testing.T) {
	d := newRequestDaemon(t)
	reply, stop := request(t, d, ipc.Message{Type: ipc.TypeGetPositions})
	if stop {
		t.Fatal("get_positions must not stop the daemon")
	}
	if reply.Type != ipc.TypePositions {
		t.Fatalf("expected positions reply, got %s", reply.Type)
	}
	var payload ipc.PositionsPayload
	if err := reply.Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := payload.Characters["Alice"]
	if !ok || got.X != 100 || got.Y != 200 {
		t.Fatalf("unexpected positions %+v", payload.Characters)
	}
}

func TestHandleRequest_Shutdown(t *testing.T) {
	d := newRequestDaemon(t)
	reply, stop := request(t, d, ipc.Message{Type: ipc.TypeShutdown})
	if !stop {
		t.Fatal("expected shutdown to stop the daemon")
	}
	if reply.Type != ipc.TypeReady {
		t.Fatalf("expected ready, got %s", reply.Type)
	}
}

func TestHandleRequest_SetProfileRejected(t *testing.T) {
	d := newRequestDaemon(t)

	reply, stop := request(t, d, ipc.Message{Type: ipc.TypeSetProfile})
	if stop || reply.Type != ipc.TypeError {
		t.Fatalf("expected error reply for missing payload, got %s stop=%v", reply.Type, stop)
	}

	bad := config.DefaultProfile()
	bad.Name = "pvp"
	bad.OpacityPercent = 500
	msg, err := ipc.NewMessage(ipc.TypeSetProfile, ipc.SetProfilePayload{Profile: bad, Global: d.state.Global()})
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	reply, _ = request(t, d, msg)
	if reply.Type != ipc.TypeError {
		t.Fatalf("expected error reply for invalid profile, got %s", reply.Type)
	}
	if d.state.Profile().Name != config.DefaultProfileName {
		t.Fatalf("invalid profile must not be applied, selected %q", d.state.Profile().Name)
	}
}

func TestHandleRequest_Unexpected(t *testing.T) {
	d := newRequestDaemon(t)
	reply, stop := request(t, d, ipc.Message{Type: ipc.TypePong})
	if stop {
		t.Fatal("unexpected message must not stop the daemon")
	}
	var payload ipc.ErrorPayload
	if err := reply.Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(payload.Message, "unexpected message type") {
		t.Fatalf("unexpected error text %q", payload.Message)
	}
}
