package browser

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dirStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	messageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	parentEntry   = ".."
	helpLine      = "up/down: move  enter: open  backspace: parent  q: quit"
	cursorMarker  = "> "
	noCursorSpace = "  "
)

// Model is the terminal front end of a Finder. Row 0 is the parent
// directory, row i > 0 is entry i-1.
type Model struct {
	finder  *Finder
	cursor  int
	message string
}

func NewModel(f *Finder) Model {
	return Model{finder: f}
}

func (m Model) Finder() *Finder { return m.finder }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) rows() int { return len(m.finder.Entries()) + 1 }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.message = ""
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
	case "backspace", "left", "h":
		m.up()
	case "enter", "right", "l":
		if m.cursor == 0 {
			m.up()
			break
		}
		if err := m.finder.Select(m.cursor - 1); err != nil {
			m.message = err.Error()
			break
		}
		m.cursor = 0
	case "q", "esc", "ctrl+c":
		m.finder.Quit()
	}
	if m.finder.Done() {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) up() {
	if err := m.finder.Up(); err != nil {
		m.message = err.Error()
		return
	}
	m.cursor = 0
}

func (m Model) View() string {
	if m.finder.Done() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Contents of %s", m.finder.Dir())))
	sb.WriteString("\n\n")
	for row := 0; row < m.rows(); row++ {
		name := parentEntry
		style := dirStyle
		if row > 0 {
			e := m.finder.Entries()[row-1]
			name = e.Name
			if e.Dir {
				name += "/"
			} else {
				style = lipgloss.NewStyle()
			}
		}
		if row == m.cursor {
			sb.WriteString(cursorStyle.Render(cursorMarker + name))
		} else {
			sb.WriteString(noCursorSpace + style.Render(name))
		}
		sb.WriteString("\n")
	}
	if m.message != "" {
		sb.WriteString("\n" + messageStyle.Render(m.message) + "\n")
	}
	sb.WriteString("\n" + helpStyle.Render(helpLine) + "\n")
	return sb.String()
}

// Run browses from dir until a file with extension ext is selected
func Run(dir, ext string) (path string, err error) {
	var (
		f     *Finder
		final tea.Model
	)
	if f, err = NewFinder(dir, ext); err != nil {
		return
	}
	if final, err = tea.NewProgram(NewModel(f)).Run(); err != nil {
		return
	}
	return final.(Model).Finder().Result()
}
