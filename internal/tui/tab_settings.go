package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/peektile/internal/config"
)

// SettingsTab shows and edits the selected profile and the global
// switching behavior. Edits stay in memory until the config is saved.
type SettingsTab struct {
	cfg *config.Config

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh inputs, converted on submit)
	fOpacity        string
	fBorderEnabled  bool
	fBorderSize     string
	fBorderColor    string
	fTextSize       string
	fTextColor      string
	fSnapThreshold  string
	fHideNoFocus    bool
	fRequireFocus   bool
	fMinimizeOnSwap bool
	fPreserveOnSwap bool
	fHotkeyBackend  string
	fHotkeyForward  string
	fHotkeyBackward string
}

// NewSettingsTab creates a SettingsTab for cfg.
func NewSettingsTab(cfg *config.Config) SettingsTab {
	return SettingsTab{cfg: cfg}
}

// Update implements tea.Model.
func (s SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if s.editing {
		return s.updateEditing(msg)
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" && s.cfg != nil {
			s.startEditing()
			return s, s.form.Init()
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}
	return s, nil
}

func (s SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			s.editing = false
			s.form = nil
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.applyForm()
		s.editing = false
		s.form = nil
		return s, nil
	}
	return s, cmd
}

func (s *SettingsTab) loadForm() {
	p := s.cfg.Profile()
	g := s.cfg.Global

	s.fOpacity = strconv.Itoa(p.OpacityPercent)
	s.fBorderEnabled = p.BorderEnabled
	s.fBorderSize = strconv.Itoa(p.BorderSize)
	s.fBorderColor = p.BorderColor
	s.fTextSize = strconv.Itoa(p.TextSize)
	s.fTextColor = p.TextColor
	s.fSnapThreshold = strconv.Itoa(p.SnapThreshold)
	s.fHideNoFocus = p.HideWhenNoFocus
	s.fRequireFocus = p.HotkeyRequireFocus
	s.fMinimizeOnSwap = g.MinimizeClientsOnSwitch
	s.fPreserveOnSwap = g.PreserveThumbnailPositionOnSwap
	s.fHotkeyBackend = g.Hotkeys.Backend
	s.fHotkeyForward = g.Hotkeys.Forward
	s.fHotkeyBackward = g.Hotkeys.Backward
}

func (s *SettingsTab) startEditing() {
	s.loadForm()

	w := s.width - 4
	if w < 40 {
		w = 40
	}

	backends := []huh.Option[string]{
		huh.NewOption("evdev (works while the game has focus)", config.HotkeyBackendEvdev),
		huh.NewOption("x11 (passive key grab)", config.HotkeyBackendX11),
		huh.NewOption("none", config.HotkeyBackendNone),
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("opacity_percent").
				Title("Opacity").
				Description("Preview opacity in percent").
				Validate(intInRange(0, config.MaxOpacityPercent)).
				Value(&s.fOpacity),
			huh.NewConfirm().
				Key("border_enabled").
				Title("Focus Border").
				Description("Draw a border around the focused client's preview").
				Value(&s.fBorderEnabled),
			huh.NewInput().
				Key("border_size").
				Title("Border Size").
				Validate(intInRange(0, config.MaxBorderSize)).
				Value(&s.fBorderSize),
			huh.NewInput().
				Key("border_color").
				Title("Border Color").
				Description("#AARRGGBB or #RRGGBB").
				Validate(validColor).
				Value(&s.fBorderColor),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("text_size").
				Title("Text Size").
				Validate(intInRange(config.MinTextSize, config.MaxTextSize)).
				Value(&s.fTextSize),
			huh.NewInput().
				Key("text_color").
				Title("Text Color").
				Description("#AARRGGBB or #RRGGBB").
				Validate(validColor).
				Value(&s.fTextColor),
			huh.NewInput().
				Key("snap_threshold").
				Title("Snap Threshold").
				Description("Pixels within which dragged previews snap to each other; 0 disables").
				Validate(intInRange(0, 1000)).
				Value(&s.fSnapThreshold),
			huh.NewConfirm().
				Key("hide_when_no_focus").
				Title("Hide When No Client Focused").
				Value(&s.fHideNoFocus),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("hotkey_backend").
				Title("Hotkey Backend").
				Options(backends...).
				Value(&s.fHotkeyBackend),
			huh.NewInput().
				Key("hotkey_forward").
				Title("Cycle Forward").
				Value(&s.fHotkeyForward),
			huh.NewInput().
				Key("hotkey_backward").
				Title("Cycle Backward").
				Value(&s.fHotkeyBackward),
			huh.NewConfirm().
				Key("hotkey_require_focus").
				Title("Require Client Focus").
				Description("Only cycle while a client window is focused").
				Value(&s.fRequireFocus),
			huh.NewConfirm().
				Key("minimize_clients_on_switch").
				Title("Minimize Others On Switch").
				Value(&s.fMinimizeOnSwap),
			huh.NewConfirm().
				Key("preserve_thumbnail_position_on_swap").
				Title("Keep Preview Spot On Character Swap").
				Value(&s.fPreserveOnSwap),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	s.editing = true
}

// applyForm copies the form values into the config. Values that fail to
// parse leave the setting unchanged; the form validators normally prevent
// that.
func (s *SettingsTab) applyForm() {
	if s.cfg == nil {
		return
	}
	p := s.cfg.Profile()
	g := &s.cfg.Global

	setInt(&p.OpacityPercent, s.fOpacity, 0, config.MaxOpacityPercent)
	p.BorderEnabled = s.fBorderEnabled
	setInt(&p.BorderSize, s.fBorderSize, 0, config.MaxBorderSize)
	if validColor(s.fBorderColor) == nil {
		p.BorderColor = strings.TrimSpace(s.fBorderColor)
	}
	setInt(&p.TextSize, s.fTextSize, config.MinTextSize, config.MaxTextSize)
	if validColor(s.fTextColor) == nil {
		p.TextColor = strings.TrimSpace(s.fTextColor)
	}
	setInt(&p.SnapThreshold, s.fSnapThreshold, 0, 1000)
	p.HideWhenNoFocus = s.fHideNoFocus
	p.HotkeyRequireFocus = s.fRequireFocus

	g.MinimizeClientsOnSwitch = s.fMinimizeOnSwap
	g.PreserveThumbnailPositionOnSwap = s.fPreserveOnSwap
	if s.fHotkeyBackend != "" {
		g.Hotkeys.Backend = s.fHotkeyBackend
	}
	if v := strings.TrimSpace(s.fHotkeyForward); v != "" {
		g.Hotkeys.Forward = v
	}
	if v := strings.TrimSpace(s.fHotkeyBackward); v != "" {
		g.Hotkeys.Backward = v
	}
}

func setInt(dst *int, raw string, lo, hi int) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < lo || v > hi {
		return
	}
	*dst = v
}

func intInRange(lo, hi int) func(string) error {
	return func(raw string) error {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("must be a whole number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

func validColor(raw string) error {
	_, err := config.ParseHexColor(strings.TrimSpace(raw))
	return err
}

// View implements tea.Model.
func (s SettingsTab) View() string {
	if s.editing && s.form != nil {
		return s.viewEditing()
	}
	return s.viewDisplay()
}

func (s SettingsTab) viewDisplay() string {
	if s.cfg == nil {
		return lipgloss.NewStyle().
			Width(s.width).
			Height(s.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No config loaded")
	}
	p := s.cfg.Profile()
	g := s.cfg.Global

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(24).
		Align(lipgloss.Right).
		PaddingRight(2)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	border := "off"
	if p.BorderEnabled {
		border = fmt.Sprintf("%dpx %s", p.BorderSize, p.BorderColor)
	}

	lines := []string{
		"",
		row("Profile", p.Name),
		row("Opacity", fmt.Sprintf("%d%%", p.OpacityPercent)),
		row("Focus Border", border),
		row("Text", fmt.Sprintf("%d %s at (%d, %d)", p.TextSize, p.TextColor, p.TextX, p.TextY)),
		row("Font", displayOrDefault(p.TextFont, "(built-in)")),
		row("Snap Threshold", strconv.Itoa(p.SnapThreshold)),
		row("Hide When No Focus", strconv.FormatBool(p.HideWhenNoFocus)),
		"",
		row("Hotkeys", fmt.Sprintf("%s  %s / %s", g.Hotkeys.Backend, g.Hotkeys.Forward, g.Hotkeys.Backward)),
		row("Require Client Focus", strconv.FormatBool(p.HotkeyRequireFocus)),
		row("Cycle Group", displayOrDefault(strings.Join(p.CycleGroup, ", "), "(discovery order)")),
		row("Minimize On Switch", strconv.FormatBool(g.MinimizeClientsOnSwitch)),
		row("Keep Spot On Swap", strconv.FormatBool(g.PreserveThumbnailPositionOnSwap)),
		row("Log Level", g.LogLevel),
		"",
		dimStyle.Render("  Press 'e' to edit, ctrl-s to save"),
	}

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (s SettingsTab) viewEditing() string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Editing profile "+s.cfg.Profile().Name) +
		dimStyle.Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(header + "\n\n" + s.form.View())
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
