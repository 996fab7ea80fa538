package tui

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/peektile/internal/config"
)

// CharactersTab shows the remembered preview placement of every character.
type CharactersTab struct {
	table table.Model
	live  bool
	count int

	width  int
	height int
}

func NewCharactersTab() CharactersTab {
	columns := []table.Column{
		{Title: "Character", Width: 28},
		{Title: "X", Width: 7},
		{Title: "Y", Width: 7},
		{Title: "Width", Width: 7},
		{Title: "Height", Width: 7},
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62"))

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)
	t.SetStyles(styles)
	return CharactersTab{table: t}
}

// SetCharacters replaces the table contents. live tells whether the rows
// came from the daemon or from the config file.
func (c *CharactersTab) SetCharacters(chars map[string]config.CharacterSettings, live bool) {
	rows := characterRows(chars)
	c.table.SetRows(rows)
	c.live = live
	c.count = len(rows)
}

// characterRows renders a character table sorted by name. A zero size
// means the global default applies.
func characterRows(chars map[string]config.CharacterSettings) []table.Row {
	names := make([]string, 0, len(chars))
	for name := range chars {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		c := chars[name]
		rows = append(rows, table.Row{
			name,
			strconv.Itoa(int(c.X)),
			strconv.Itoa(int(c.Y)),
			sizeOrDefault(c.Width),
			sizeOrDefault(c.Height),
		})
	}
	return rows
}

func sizeOrDefault(v uint16) string {
	if v == 0 {
		return "default"
	}
	return strconv.Itoa(int(v))
}

// Update implements tea.Model.
func (c CharactersTab) Update(msg tea.Msg) (CharactersTab, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		c.width = msg.Width
		c.height = msg.Height
		h := c.height - 2
		if h < 1 {
			h = 1
		}
		c.table.SetHeight(h)
		c.table.SetWidth(c.width)
		return c, nil
	}

	var cmd tea.Cmd
	c.table, cmd = c.table.Update(msg)
	return c, cmd
}

// View implements tea.Model.
func (c CharactersTab) View() string {
	if c.width == 0 || c.height == 0 {
		return ""
	}

	if c.count == 0 {
		empty := lipgloss.NewStyle().
			Width(c.width).
			Height(c.height-1).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No characters remembered yet")
		return lipgloss.JoinVertical(lipgloss.Left, empty, c.renderStatus())
	}
	return lipgloss.JoinVertical(lipgloss.Left, c.table.View(), c.renderStatus())
}

func (c CharactersTab) renderStatus() string {
	source := "offline: from config file"
	if c.live {
		source = "live from daemon"
	}
	return renderTabStatus(fmt.Sprintf("%d characters (%s)", c.count, source), "j/k: navigate", c.width)
}
