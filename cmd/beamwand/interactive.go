package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/beamwand/beam"
	"github.com/wippyai/beamwand/config"
	"github.com/wippyai/beamwand/dump"
)

type styles struct {
	title    lipgloss.Style
	chunk    lipgloss.Style
	selected lipgloss.Style
	errorMsg lipgloss.Style
	help     lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			title:    plain.Bold(true),
			chunk:    plain,
			selected: plain.Reverse(true),
			errorMsg: plain,
			help:     plain,
		}
	}
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		chunk: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")),
		errorMsg: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")),
	}
}

// section is one chunk as shown in the browser.
type section struct {
	title string
	lines []string
}

type modelState int

const (
	stateBrowse modelState = iota
	stateFilter
)

type interactiveModel struct {
	err      error
	ast      *beam.Ast
	filename string
	sections []section
	view     viewport.Model
	filter   textinput.Model
	styles   styles
	opts     dump.Options
	selected int
	width    int
	height   int
	state    modelState
}

type loadedMsg struct {
	err error
	ast *beam.Ast
}

func newInteractiveModel(filename string, cfg *config.Config) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Width = 40

	return &interactiveModel{
		filename: filename,
		view:     viewport.New(80, 20),
		filter:   ti,
		styles:   newStyles(cfg.Output.Color),
		opts: dump.Options{
			RawPreview: max(cfg.Output.RawPreview, 64),
			Code:       true,
		},
		state: stateBrowse,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *interactiveModel) loadModule() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	ast, err := beam.Parse(data)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{ast: ast}
}

func buildSections(ast *beam.Ast, opts dump.Options) ([]section, error) {
	atoms := ast.Atoms()
	out := make([]section, 0, len(ast.Chunks))
	for _, c := range ast.Chunks {
		var buf bytes.Buffer
		if err := dump.Chunk(&buf, c, atoms, opts); err != nil {
			return nil, err
		}
		text := strings.TrimRight(buf.String(), "\n")
		lines := strings.Split(text, "\n")
		out = append(out, section{title: lines[0], lines: lines[1:]})
	}
	return out, nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-len(m.sections)-6, 3)
		m.refresh()

	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter", "esc":
				if msg.String() == "esc" {
					m.filter.SetValue("")
				}
				m.filter.Blur()
				m.state = stateBrowse
				m.refresh()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.refresh()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab", "right", "l":
			if m.selected < len(m.sections)-1 {
				m.selected++
				m.refresh()
			}

		case "shift+tab", "left", "h":
			if m.selected > 0 {
				m.selected--
				m.refresh()
			}

		case "/":
			m.state = stateFilter
			m.filter.Focus()
			return m, textinput.Blink

		case "esc":
			m.filter.SetValue("")
			m.refresh()

		default:
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		sections, err := buildSections(msg.ast, m.opts)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.ast = msg.ast
		m.sections = sections
		m.refresh()
	}

	return m, nil
}

// refresh loads the selected section into the viewport, applying the filter.
func (m *interactiveModel) refresh() {
	if len(m.sections) == 0 {
		return
	}
	m.view.SetContent(strings.Join(filterLines(m.sections[m.selected].lines, m.filter.Value()), "\n"))
	m.view.GotoTop()
}

// filterLines keeps the lines containing needle, ignoring case. A label
// header is kept when any of its instructions match.
func filterLines(lines []string, needle string) []string {
	if needle == "" {
		return lines
	}
	needle = strings.ToLower(needle)

	var out []string
	header := ""
	for _, line := range lines {
		if strings.HasPrefix(line, "  label ") {
			header = line
			if strings.Contains(strings.ToLower(line), needle) {
				out = append(out, line)
				header = ""
			}
			continue
		}
		if strings.Contains(strings.ToLower(line), needle) {
			if header != "" {
				out = append(out, header)
				header = ""
			}
			out = append(out, line)
		}
	}
	return out
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return m.styles.errorMsg.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.ast == nil {
		return "Decoding module..."
	}

	var b strings.Builder

	b.WriteString(m.styles.title.Render("BEAM Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	for i, s := range m.sections {
		if i == m.selected {
			b.WriteString(m.styles.selected.Render("> " + s.title))
		} else {
			b.WriteString("  " + m.styles.chunk.Render(s.title))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")

	if m.state == stateFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(m.styles.help.Render("tab/shift+tab chunk • ↑/↓ scroll • / filter • esc clear • q quit"))

	return b.String()
}

func runInteractive(filename string, cfg *config.Config) error {
	p := tea.NewProgram(newInteractiveModel(filename, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
