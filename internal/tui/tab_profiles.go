package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/peektile/internal/config"
)

// profileItem implements list.Item for the profile picker.
type profileItem struct {
	name        string
	description string
	selected    bool // selected in the config file
	applied     bool // pushed to the daemon from this session
}

func (i profileItem) Title() string {
	prefix := "  "
	if i.applied {
		prefix = "* "
	}
	suffix := ""
	if i.selected {
		suffix = " (selected)"
	}
	return prefix + i.name + suffix
}

func (i profileItem) Description() string { return i.description }
func (i profileItem) FilterValue() string { return i.name }

// clearStatusMsg clears the status message after a delay.
type clearStatusMsg struct{}

func clearStatusAfter() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// ProfilesTab lists the configured profiles and pushes one to the daemon.
type ProfilesTab struct {
	list   list.Model
	client Client
	cfg    *config.Config

	applied    string
	statusText string

	width  int
	height int
}

// NewProfilesTab creates a ProfilesTab for cfg.
func NewProfilesTab(client Client, cfg *config.Config) ProfilesTab {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(buildProfileItems(cfg, ""), delegate, 0, 0)
	l.Title = "Profiles"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return ProfilesTab{
		list:   l,
		client: client,
		cfg:    cfg,
	}
}

func buildProfileItems(cfg *config.Config, applied string) []list.Item {
	if cfg == nil {
		return nil
	}
	selected := cfg.Profile().Name
	items := make([]list.Item, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		items = append(items, profileItem{
			name:        p.Name,
			description: p.Description,
			selected:    p.Name == selected,
			applied:     p.Name == applied,
		})
	}
	return items
}

// SetConfig points the tab at a reloaded or saved config.
func (pt *ProfilesTab) SetConfig(cfg *config.Config) {
	pt.cfg = cfg
	pt.list.SetItems(buildProfileItems(cfg, pt.applied))
}

// Update implements tea.Model.
func (pt ProfilesTab) Update(msg tea.Msg) (ProfilesTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		pt.width = msg.Width
		pt.height = msg.Height
		h := pt.height - 2
		if h < 1 {
			h = 1
		}
		pt.list.SetSize(pt.width, h)
		return pt, nil

	case clearStatusMsg:
		pt.statusText = ""
		return pt, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "a":
			return pt.applySelected()
		}
	}

	var cmd tea.Cmd
	pt.list, cmd = pt.list.Update(msg)
	return pt, cmd
}

func (pt ProfilesTab) selectedName() string {
	item, ok := pt.list.SelectedItem().(profileItem)
	if !ok {
		return ""
	}
	return item.name
}

func (pt ProfilesTab) applySelected() (ProfilesTab, tea.Cmd) {
	name := pt.selectedName()
	if name == "" || pt.cfg == nil {
		return pt, nil
	}
	if pt.client == nil {
		pt.statusText = "daemon not connected"
		return pt, clearStatusAfter()
	}
	profile, ok := pt.cfg.FindProfile(name)
	if !ok {
		return pt, nil
	}

	if err := pt.client.SetProfile(*profile, pt.cfg.Global); err != nil {
		pt.statusText = fmt.Sprintf("error: %v", err)
	} else {
		pt.applied = name
		pt.statusText = fmt.Sprintf("applied: %s", name)
		pt.list.SetItems(buildProfileItems(pt.cfg, pt.applied))
	}
	return pt, clearStatusAfter()
}

// View implements tea.Model.
func (pt ProfilesTab) View() string {
	if pt.width == 0 || pt.height == 0 {
		return ""
	}
	body := lipgloss.NewStyle().
		Width(pt.width).
		Height(pt.height - 2).
		Render(pt.list.View())
	return lipgloss.JoinVertical(lipgloss.Left, body, renderTabStatus(pt.statusText, "enter/a: apply to daemon", pt.width))
}
