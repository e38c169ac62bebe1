package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-linker/linker"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444"))

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("#7D56F4"))
)

type funcItem struct {
	title string
	desc  string
	index uint32
}

func (f funcItem) Title() string       { return f.title }
func (f funcItem) Description() string { return f.desc }
func (f funcItem) FilterValue() string { return f.title + " " + f.desc }

type focus int

const (
	focusList focus = iota
	focusCode
	focusGoto
)

type interactiveModel struct {
	prog     *linker.Program
	filename string
	err      error
	cache    map[uint32]string
	list     list.Model
	code     viewport.Model
	jump     textinput.Model
	shown    uint32
	focus    focus
	ready    bool
}

func newInteractiveModel(prog *linker.Program, filename string) *interactiveModel {
	items := make([]list.Item, len(prog.Functions))
	for i, f := range prog.Functions {
		idx := uint32(i)
		desc := fmt.Sprintf("%s  %d bytes", prog.Signature(f), len(f.Code))
		if idx == prog.Start {
			desc += "  start"
		}
		items[i] = funcItem{title: itemTitle(prog, idx), desc: desc, index: idx}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Functions"
	l.SetShowHelp(false)

	jump := textinput.New()
	jump.Prompt = "go to func: "
	jump.Placeholder = "index"
	jump.CharLimit = 10
	jump.Width = 12

	return &interactiveModel{
		prog:     prog,
		filename: filename,
		cache:    make(map[uint32]string),
		list:     l,
		jump:     jump,
		shown:    ^uint32(0),
	}
}

func itemTitle(p *linker.Program, idx uint32) string {
	f := p.Functions[idx]
	if !f.Defined() {
		return fmt.Sprintf("func %d (unresolved)", idx)
	}
	return fmt.Sprintf("func %d %s", idx, f.Module)
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.focus == focusGoto {
			return m.updateGoto(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab":
			if m.focus == focusList {
				m.focus = focusCode
			} else {
				m.focus = focusList
			}
			return m, nil

		case ":":
			m.focus = focusGoto
			m.jump.SetValue("")
			m.err = nil
			return m, m.jump.Focus()

		case "esc":
			if m.focus == focusCode {
				m.focus = focusList
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.focus == focusCode {
		m.code, cmd = m.code.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	cmds = append(cmds, cmd)

	m.showSelected()
	return m, tea.Batch(cmds...)
}

func (m *interactiveModel) updateGoto(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.jump.Blur()
		m.focus = focusList
		return m, nil

	case "enter":
		m.jump.Blur()
		m.focus = focusList
		n, err := strconv.ParseUint(strings.TrimSpace(m.jump.Value()), 10, 32)
		if err != nil || n >= uint64(len(m.prog.Functions)) {
			m.err = fmt.Errorf("no function %q", m.jump.Value())
			return m, nil
		}
		m.list.ResetFilter()
		m.list.Select(int(n))
		m.showSelected()
		return m, nil
	}

	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m *interactiveModel) resize(width, height int) {
	listWidth := width * 2 / 5
	paneHeight := height - 4
	m.list.SetSize(listWidth-2, paneHeight-2)
	if !m.ready {
		m.code = viewport.New(width-listWidth-2, paneHeight-2)
		m.ready = true
	} else {
		m.code.Width = width - listWidth - 2
		m.code.Height = paneHeight - 2
	}
	m.shown = ^uint32(0)
	m.showSelected()
}

// showSelected loads the disassembly of the selected function into the
// code pane when the selection changed.
func (m *interactiveModel) showSelected() {
	if !m.ready {
		return
	}
	item, ok := m.list.SelectedItem().(funcItem)
	if !ok || item.index == m.shown {
		return
	}
	text, ok := m.cache[item.index]
	if !ok {
		var err error
		text, err = disassemble(m.prog, item.index)
		if err != nil {
			text = errorStyle.Render(err.Error())
		}
		m.cache[item.index] = text
	}
	m.code.SetContent(titleStyle.Render(describeFunction(m.prog, item.index)) + "\n\n" + text)
	m.code.GotoTop()
	m.shown = item.index
}

func (m *interactiveModel) View() string {
	if !m.ready {
		return "Loading program..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("WASM Linker"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(helpStyle.Render(fmt.Sprintf("  %d modules, %d functions, start func %d",
		len(m.prog.Modules), len(m.prog.Functions), m.prog.Start)))
	b.WriteString("\n")

	listPane, codePane := focusedPaneStyle, paneStyle
	if m.focus == focusCode {
		listPane, codePane = paneStyle, focusedPaneStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		listPane.Render(m.list.View()),
		codePane.Render(m.code.View()),
	))
	b.WriteString("\n")

	switch {
	case m.focus == focusGoto:
		b.WriteString(m.jump.View())
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	default:
		b.WriteString(helpStyle.Render("↑/↓ select • / filter • : go to • tab switch pane • q quit"))
	}
	return b.String()
}

func runInteractive(prog *linker.Program, filename string) error {
	p := tea.NewProgram(newInteractiveModel(prog, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
