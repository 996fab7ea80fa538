package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/peektile/internal/config"
)

type fakeClient struct {
	positions map[string]config.CharacterSettings
	err       error
	pushed    []string
}

func (f *fakeClient) Ping() error { return f.err }

func (f *fakeClient) Positions() (map[string]config.CharacterSettings, error) {
	return f.positions, f.err
}

func (f *fakeClient) SetProfile(p config.Profile, _ config.GlobalSettings) error {
	if f.err != nil {
		return f.err
	}
	f.pushed = append(f.pushed, p.Name)
	return nil
}

func TestCharacterRows(t *testing.T) {
	rows := characterRows(map[string]config.CharacterSettings{
		"Zed":   {X: -5, Y: 10, Width: 300, Height: 200},
		"Alice": {X: 1, Y: 2},
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Alice" || rows[1][0] != "Zed" {
		t.Fatalf("expected rows sorted by name, got %v", rows)
	}
	if rows[0][3] != "default" || rows[0][4] != "default" {
		t.Fatalf("expected zero size shown as default, got %v", rows[0])
	}
	if rows[1][1] != "-5" || rows[1][3] != "300" {
		t.Fatalf("unexpected row %v", rows[1])
	}
}

func TestLineDiff(t *testing.T) {
	a := []string{"a", "b", "c"}
	b := []string{"a", "x", "c", "d"}
	got := lineDiff(a, b)

	var removed, added []string
	for _, l := range got {
		switch l.kind {
		case diffRemoved:
			removed = append(removed, l.text)
		case diffAdded:
			added = append(added, l.text)
		}
	}
	if strings.Join(removed, ",") != "b" {
		t.Fatalf("removed = %v, want [b]", removed)
	}
	if strings.Join(added, ",") != "x,d" {
		t.Fatalf("added = %v, want [x d]", added)
	}
}

func TestTrimContext(t *testing.T) {
	var lines []diffLine
	for i := 0; i < 10; i++ {
		lines = append(lines, diffLine{diffContext, "same"})
	}
	if got := trimContext(lines, 2); got != nil {
		t.Fatalf("expected nil for unchanged input, got %v", got)
	}

	lines[8] = diffLine{diffAdded, "new"}
	got := trimContext(lines, 2)
	// lines 6..9 survive; nothing precedes them so there is no gap marker.
	if len(got) != 4 || got[2].kind != diffAdded {
		t.Fatalf("unexpected trimmed diff %v", got)
	}

	lines[1] = diffLine{diffRemoved, "old"}
	got = trimContext(lines, 1)
	var gaps int
	for _, l := range got {
		if l.text == "..." {
			gaps++
		}
	}
	if gaps != 1 {
		t.Fatalf("expected one gap marker between hunks, got %d in %v", gaps, got)
	}
}

func TestConfigDiff(t *testing.T) {
	original := config.DefaultConfig()
	if got := configDiff(original, original.Clone()); got != nil {
		t.Fatalf("expected no diff for identical configs, got %v", got)
	}

	current := original.Clone()
	current.Profile().OpacityPercent = 40
	got := configDiff(original, current)
	var sawOld, sawNew bool
	for _, l := range got {
		if l.kind == diffRemoved && strings.Contains(l.text, "opacity_percent: 75") {
			sawOld = true
		}
		if l.kind == diffAdded && strings.Contains(l.text, "opacity_percent: 40") {
			sawNew = true
		}
	}
	if !sawOld || !sawNew {
		t.Fatalf("expected opacity change in diff, got %v", got)
	}
}

func TestMergeCharacters(t *testing.T) {
	dst := config.DefaultConfig()
	dst.Profile().Characters = map[string]config.CharacterSettings{"Stale": {X: 1}}
	extra := config.DefaultProfile()
	extra.Name = "memory-only"
	extra.Characters = map[string]config.CharacterSettings{"Kept": {X: 2}}
	dst.Profiles = append(dst.Profiles, extra)

	disk := config.DefaultConfig()
	disk.Profile().Characters = map[string]config.CharacterSettings{"Alice": {X: 100, Y: 200}}

	mergeCharacters(dst, disk)

	chars := dst.Profile().Characters
	if _, ok := chars["Stale"]; ok || chars["Alice"].X != 100 {
		t.Fatalf("expected characters taken from disk, got %v", chars)
	}
	if p, _ := dst.FindProfile("memory-only"); p.Characters["Kept"].X != 2 {
		t.Fatal("profiles missing on disk must keep their characters")
	}
}

func TestSettingsApplyForm(t *testing.T) {
	cfg := config.DefaultConfig()
	s := NewSettingsTab(cfg)
	s.loadForm()

	s.fOpacity = "40"
	s.fBorderSize = "500" // out of range, ignored
	s.fBorderColor = "#FF00FF00"
	s.fTextColor = "nope" // invalid, ignored
	s.fSnapThreshold = " 8 "
	s.fHideNoFocus = true
	s.fMinimizeOnSwap = true
	s.fHotkeyBackend = config.HotkeyBackendX11
	s.fHotkeyForward = "F1"
	s.applyForm()

	p := cfg.Profile()
	if p.OpacityPercent != 40 || p.SnapThreshold != 8 || !p.HideWhenNoFocus {
		t.Fatalf("form values not applied: %+v", p)
	}
	if p.BorderSize != config.DefaultProfile().BorderSize {
		t.Fatalf("out of range border size must be ignored, got %d", p.BorderSize)
	}
	if p.BorderColor != "#FF00FF00" || p.TextColor != config.DefaultProfile().TextColor {
		t.Fatalf("unexpected colors %q %q", p.BorderColor, p.TextColor)
	}
	if !cfg.Global.MinimizeClientsOnSwitch || cfg.Global.Hotkeys.Backend != config.HotkeyBackendX11 || cfg.Global.Hotkeys.Forward != "F1" {
		t.Fatalf("global values not applied: %+v", cfg.Global)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("edited config must stay valid: %v", err)
	}
}

func TestValidators(t *testing.T) {
	check := intInRange(0, 100)
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0", false},
		{"100", false},
		{" 50 ", false},
		{"101", true},
		{"-1", true},
		{"abc", true},
		{"", true},
	}
	for _, tt := range tests {
		if err := check(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("intInRange(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}

	if validColor("#FF0000") != nil || validColor("#80FF0000") != nil {
		t.Error("expected valid colors to pass")
	}
	if validColor("red") == nil {
		t.Error("expected named color to fail")
	}
}

func newTestModel(t *testing.T, client Client) model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := newModel(path, client)
	if err != nil {
		t.Fatalf("newModel: %v", err)
	}
	return m
}

func TestModelPositions(t *testing.T) {
	client := &fakeClient{positions: map[string]config.CharacterSettings{"Alice": {X: 1, Y: 2}}}
	m := newTestModel(t, client)

	updated, cmd := m.Update(positionsMsg{characters: client.positions})
	m = updated.(model)
	if !m.connected || m.charactersTab.count != 1 || !m.charactersTab.live {
		t.Fatalf("expected live positions, connected=%v count=%d", m.connected, m.charactersTab.count)
	}
	if cmd == nil {
		t.Fatal("expected the next poll to be scheduled")
	}

	updated, _ = m.Update(positionsMsg{err: errors.New("daemon not running")})
	m = updated.(model)
	if m.connected || m.charactersTab.live || m.charactersTab.count != 0 {
		t.Fatalf("expected offline view of the empty config, connected=%v count=%d", m.connected, m.charactersTab.count)
	}
}

func TestModelTabSwitching(t *testing.T) {
	m := newTestModel(t, nil)
	keys := []struct {
		msg  tea.KeyMsg
		want Tab
	}{
		{tea.KeyMsg{Type: tea.KeyTab}, TabProfiles},
		{tea.KeyMsg{Type: tea.KeyTab}, TabSettings},
		{tea.KeyMsg{Type: tea.KeyTab}, TabCharacters},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, TabSettings},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")}, TabProfiles},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")}, TabCharacters},
	}
	for i, k := range keys {
		updated, _ := m.Update(k.msg)
		m = updated.(model)
		if m.activeTab != k.want {
			t.Fatalf("step %d: active tab %v, want %v", i, m.activeTab, k.want)
		}
	}
}

func TestProfilesApply(t *testing.T) {
	client := &fakeClient{}
	cfg := config.DefaultConfig()
	pt := NewProfilesTab(client, cfg)

	pt, _ = pt.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(client.pushed) != 1 || client.pushed[0] != config.DefaultProfileName {
		t.Fatalf("expected default profile pushed, got %v", client.pushed)
	}
	if pt.applied != config.DefaultProfileName || !strings.Contains(pt.statusText, "applied") {
		t.Fatalf("unexpected tab state applied=%q status=%q", pt.applied, pt.statusText)
	}

	client.err = errors.New("connection refused")
	pt, _ = pt.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(pt.statusText, "error") {
		t.Fatalf("expected error status, got %q", pt.statusText)
	}
}

func TestSaveFlow(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(t, client)
	m.connected = true

	var overlay SaveOverlay
	overlay.Show(m.original, m.result.Config)
	if !overlay.Active() || overlay.err != errNoChanges {
		t.Fatalf("expected no-changes result, got phase=%v err=%v", overlay.phase, overlay.err)
	}

	m.result.Config.Profile().OpacityPercent = 55
	overlay.Show(m.original, m.result.Config)
	if overlay.phase != savePreview {
		t.Fatalf("expected diff preview, got phase %v", overlay.phase)
	}

	overlay = overlay.Update(tea.KeyMsg{Type: tea.KeyEnter}, m.commit)
	if !overlay.SaveSucceeded() {
		t.Fatalf("save failed: %v", overlay.err)
	}
	if !overlay.pushed || len(client.pushed) != 1 {
		t.Fatalf("expected profile pushed after save, pushed=%v calls=%v", overlay.pushed, client.pushed)
	}

	res, err := config.LoadFromPath(m.result.Path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Config.Profile().OpacityPercent != 55 {
		t.Fatalf("expected saved opacity 55, got %d", res.Config.Profile().OpacityPercent)
	}

	overlay = overlay.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, m.commit)
	if overlay.Active() {
		t.Fatal("expected any key to dismiss the result")
	}
}
