package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/peektile/internal/config"
)

const pollInterval = 2 * time.Second

// pollMsg asks for a fresh positions snapshot.
type pollMsg struct{}

// positionsMsg carries the result of a get_positions round trip.
type positionsMsg struct {
	characters map[string]config.CharacterSettings
	err        error
}

// model is the root bubbletea model for the TUI.
type model struct {
	result *config.LoadResult
	client Client

	activeTab Tab

	charactersTab CharactersTab
	profilesTab   ProfilesTab
	settingsTab   SettingsTab

	// Snapshot taken at load or last save, for the save diff.
	original    *config.Config
	saveOverlay SaveOverlay

	connected bool
	live      map[string]config.CharacterSettings

	width  int
	height int
}

func newModel(configPath string, client Client) (model, error) {
	path, err := config.ResolvePath(configPath)
	if err != nil {
		return model{}, err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return model{}, err
	}

	m := model{
		result:    res,
		client:    client,
		activeTab: TabCharacters,
		original:  res.Config.Clone(),
	}
	m.charactersTab = NewCharactersTab()
	m.profilesTab = NewProfilesTab(client, res.Config)
	m.settingsTab = NewSettingsTab(res.Config)
	m.charactersTab.SetCharacters(res.Config.Profile().Characters, false)
	return m, nil
}

func fetchPositions(c Client) tea.Cmd {
	return func() tea.Msg {
		chars, err := c.Positions()
		return positionsMsg{characters: chars, err: err}
	}
}

func schedulePoll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return fetchPositions(m.client)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pollMsg:
		if m.client == nil {
			return m, nil
		}
		return m, fetchPositions(m.client)

	case positionsMsg:
		m.applyPositions(msg)
		return m, schedulePoll()
	}

	// Save overlay captures all input when active
	if m.saveOverlay.Active() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			prevPhase := m.saveOverlay.phase
			m.saveOverlay = m.saveOverlay.Update(msg, m.commit)
			if prevPhase == savePreview && m.saveOverlay.SaveSucceeded() {
				m.original = m.result.Config.Clone()
				m.profilesTab.SetConfig(m.result.Config)
			}
		case tea.WindowSizeMsg:
			m.width = msg.Width
			m.height = msg.Height
		}
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+s" {
		m.saveOverlay.Show(m.original, m.result.Config)
		return m, nil
	}

	// The settings form consumes every key while it is open; only ctrl+c
	// escapes to quit.
	if m.activeTab == TabSettings && m.settingsTab.editing {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case tea.WindowSizeMsg:
			m.resize(msg)
			return m, nil
		}
		var cmd tea.Cmd
		m.settingsTab, cmd = m.settingsTab.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabCharacters
			return m, nil
		case "2":
			m.activeTab = TabProfiles
			return m, nil
		case "3":
			m.activeTab = TabSettings
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case TabCharacters:
		m.charactersTab, cmd = m.charactersTab.Update(msg)
	case TabProfiles:
		m.profilesTab, cmd = m.profilesTab.Update(msg)
	case TabSettings:
		m.settingsTab, cmd = m.settingsTab.Update(msg)
	}
	return m, cmd
}

func (m *model) resize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	sub := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
	m.charactersTab, _ = m.charactersTab.Update(sub)
	m.profilesTab, _ = m.profilesTab.Update(sub)
	m.settingsTab, _ = m.settingsTab.Update(sub)
}

// applyPositions records a poll result. While the daemon is unreachable
// the characters remembered in the config file are shown instead.
func (m *model) applyPositions(msg positionsMsg) {
	if msg.err != nil {
		m.connected = false
		m.live = nil
		m.charactersTab.SetCharacters(m.result.Config.Profile().Characters, false)
		return
	}
	m.connected = true
	m.live = msg.characters
	m.charactersTab.SetCharacters(msg.characters, true)
}

// commit writes the edited config and, when the daemon is reachable,
// pushes the selected profile to it. Character tables are taken from the
// file on disk so positions the daemon saved meanwhile survive.
func (m model) commit() (bool, error) {
	cfg := m.result.Config
	if err := cfg.Validate(); err != nil {
		return false, err
	}
	if m.result.Exists {
		disk, err := config.LoadFromPath(m.result.Path)
		if err != nil {
			return false, err
		}
		mergeCharacters(cfg, disk.Config)
	}
	if err := cfg.SaveTo(m.result.Path); err != nil {
		return false, err
	}
	m.result.Exists = true

	if !m.connected || m.client == nil {
		return false, nil
	}
	return m.client.SetProfile(*cfg.Profile(), cfg.Global) == nil, nil
}

// mergeCharacters replaces the character table of every profile in dst
// with the one disk holds for the profile of the same name.
func mergeCharacters(dst, disk *config.Config) {
	for i := range dst.Profiles {
		p, ok := disk.FindProfile(dst.Profiles[i].Name)
		if !ok {
			continue
		}
		dst.Profiles[i].Characters = p.Clone().Characters
	}
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.connected, m.result.Config.Profile().Name, len(m.live), m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	if m.saveOverlay.Active() {
		content = m.saveOverlay.View(m.width, contentHeight)
	} else {
		switch m.activeTab {
		case TabCharacters:
			content = m.charactersTab.View()
		case TabProfiles:
			content = m.profilesTab.View()
		case TabSettings:
			content = m.settingsTab.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
