package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

const animFPS = 30

// newSpinner creates a spinner with the dots animation.
func newSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{
			".       ",
			"..      ",
			"...     ",
			"....    ",
			".....   ",
			"......  ",
			"....... ",
			"........",
		},
		FPS: time.Second / 5,
	}
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)
	return sp
}

// newTextInput creates the "[METHOD] URL" input line.
func newTextInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "GET https://api.example.com/users"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80
	ti.Prompt = ""

	// Match the input area background.
	ti.TextStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(InputAreaBg)
	ti.PlaceholderStyle = lipgloss.NewStyle().
		Foreground(DimColor).
		Background(InputAreaBg)
	ti.Cursor.Style = lipgloss.NewStyle().
		Foreground(AccentColor).
		Background(InputAreaBg)

	return ti
}

// NewModel creates the initial request builder model.
func NewModel(opts Options) Model {
	return Model{
		textinput:    newTextInput(),
		spinner:      newSpinner(),
		logs:         []logEntry{},
		runner:       opts.Runner,
		env:          opts.Env,
		envName:      opts.EnvName,
		inputHistory: []string{},
		historyIdx:   -1,
		animSpring:   harmonica.NewSpring(harmonica.FPS(animFPS), 6.0, 0.3),
		animTarget:   1,
	}
}

// Init initializes the Bubble Tea model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// animTick schedules the next frame of the pending pulse.
func animTick() tea.Cmd {
	return tea.Tick(time.Second/animFPS, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}
