package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/peektile/internal/config"
)

type savePhase int

const (
	saveHidden  savePhase = iota
	savePreview           // showing diff, awaiting confirm
	saveResult            // showing outcome message
)

type diffKind int

const (
	diffContext diffKind = iota
	diffRemoved
	diffAdded
)

type diffLine struct {
	kind diffKind
	text string
}

// diffContextLines is how many unchanged lines surround each change.
const diffContextLines = 2

var errNoChanges = errors.New("no changes to save")

// SaveOverlay previews the pending config changes as a diff and writes
// them on confirmation.
type SaveOverlay struct {
	phase        savePhase
	diffLines    []diffLine
	err          error
	pushed       bool
	scrollOffset int
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Show computes the diff and opens the preview overlay.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.err = nil
	s.pushed = false
	s.scrollOffset = 0

	s.diffLines = configDiff(original, current)
	if len(s.diffLines) == 0 {
		s.phase = saveResult
		s.err = errNoChanges
		return
	}
	s.phase = savePreview
}

// SaveSucceeded reports whether the last save completed without error.
func (s SaveOverlay) SaveSucceeded() bool {
	return s.phase == saveResult && s.err == nil
}

// Update handles input while the overlay is active. commit writes the
// config and reports whether the daemon took the new profile.
func (s SaveOverlay) Update(msg tea.Msg, commit func() (bool, error)) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}
	switch s.phase {
	case savePreview:
		switch km.String() {
		case "esc":
			s.phase = saveHidden
		case "enter", "y":
			s.pushed, s.err = commit()
			s.phase = saveResult
		case "up", "k":
			if s.scrollOffset > 0 {
				s.scrollOffset--
			}
		case "down", "j":
			s.scrollOffset++
		}
	case saveResult:
		s.phase = saveHidden
	}
	return s
}

// View renders the overlay for the given content area dimensions.
func (s SaveOverlay) View(width, height int) string {
	switch s.phase {
	case savePreview:
		return s.viewPreview(width, height)
	case saveResult:
		return s.viewResult(width, height)
	}
	return ""
}

func boxWidth(areaW, limit int) int {
	w := areaW - 8
	if w > limit {
		w = limit
	}
	if w < 30 {
		w = 30
	}
	return w
}

func renderBox(areaW, areaH, boxW int, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(boxW).
		Render(content)
	return lipgloss.Place(areaW, areaH, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) viewPreview(areaW, areaH int) string {
	boxW := boxWidth(areaW, 80)
	innerW := boxW - 6
	if innerW < 10 {
		innerW = 10
	}

	visible := areaH - 10
	if visible < 3 {
		visible = 3
	}
	off := s.scrollOffset
	if maxOff := len(s.diffLines) - visible; off > maxOff {
		off = max(maxOff, 0)
	}
	end := min(off+visible, len(s.diffLines))

	styles := map[diffKind]lipgloss.Style{
		diffContext: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		diffRemoved: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		diffAdded:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
	markers := map[diffKind]string{diffContext: "  ", diffRemoved: "- ", diffAdded: "+ "}

	lines := make([]string, 0, end-off)
	for _, dl := range s.diffLines[off:end] {
		text := dl.text
		if len(text) > innerW-2 {
			text = text[:innerW-2]
		}
		lines = append(lines, styles[dl.kind].Render(markers[dl.kind]+text))
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Save Config: Pending Changes")
	footer := dimStyle.Render("enter: save  esc: cancel  j/k: scroll")
	return renderBox(areaW, areaH, boxW, title+"\n\n"+strings.Join(lines, "\n")+"\n\n"+footer)
}

func (s SaveOverlay) viewResult(areaW, areaH int) string {
	var msg string
	if s.err != nil {
		msg = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render("Error: " + s.err.Error())
	} else {
		msg = okStyle.Bold(true).Render("Config saved")
		if s.pushed {
			msg += "\n" + okStyle.Render("Profile pushed to daemon")
		}
	}
	footer := dimStyle.Render("press any key to dismiss")
	return renderBox(areaW, areaH, boxWidth(areaW, 60), msg+"\n\n"+footer)
}

// configDiff renders both configs as YAML and returns the changed lines
// with some surrounding context, or nil when they are identical.
func configDiff(original, current *config.Config) []diffLine {
	if original == nil || current == nil {
		return nil
	}
	a, err := yaml.Marshal(original)
	if err != nil {
		return nil
	}
	b, err := yaml.Marshal(current)
	if err != nil {
		return nil
	}
	if string(a) == string(b) {
		return nil
	}
	lines := lineDiff(
		strings.Split(strings.TrimSpace(string(a)), "\n"),
		strings.Split(strings.TrimSpace(string(b)), "\n"),
	)
	return trimContext(lines, diffContextLines)
}

// lineDiff is a longest-common-subsequence line diff of a against b.
func lineDiff(a, b []string) []diffLine {
	// lcs[i][j] is the LCS length of a[i:] and b[j:].
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	out := make([]diffLine, 0, max(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			out = append(out, diffLine{diffContext, a[i]})
			i++
			j++
		case j == len(b) || (i < len(a) && lcs[i+1][j] >= lcs[i][j+1]):
			out = append(out, diffLine{diffRemoved, a[i]})
			i++
		default:
			out = append(out, diffLine{diffAdded, b[j]})
			j++
		}
	}
	return out
}

// trimContext drops unchanged lines further than ctx lines from any change
// and marks each gap with "...". It returns nil when nothing changed.
func trimContext(lines []diffLine, ctx int) []diffLine {
	keep := make([]bool, len(lines))
	changed := false
	for i, l := range lines {
		if l.kind == diffContext {
			continue
		}
		changed = true
		for j := max(i-ctx, 0); j <= min(i+ctx, len(lines)-1); j++ {
			keep[j] = true
		}
	}
	if !changed {
		return nil
	}

	var out []diffLine
	gap := false
	for i, l := range lines {
		if !keep[i] {
			gap = true
			continue
		}
		if gap && len(out) > 0 {
			out = append(out, diffLine{diffContext, "..."})
		}
		gap = false
		out = append(out, l)
	}
	return out
}
