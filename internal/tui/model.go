// Package tui provides the BubbleTea-based sound board.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/chime/internal/bundle"
	"github.com/jmylchreest/chime/internal/sound"
)

// refreshInterval is how often the player state is polled.
const refreshInterval = 500 * time.Millisecond

// Controller is the playback surface driven by the board.
type Controller interface {
	Play(ctx context.Context, category sound.Category, override string) sound.Result
	Pause()
	Resume() sound.Result
	StopSound()
	State() sound.State
}

// slotItem wraps a slot for the list component.
type slotItem struct {
	slot bundle.Slot
}

func (i slotItem) Title() string {
	return i.slot.Category.Title()
}

func (i slotItem) Description() string {
	if i.slot.Error != "" {
		return fmt.Sprintf("%s (%s)", i.slot.Asset, i.slot.Error)
	}
	if i.slot.Size <= 0 {
		return fmt.Sprintf("%s [%s]", i.slot.Asset, i.slot.Source)
	}
	return fmt.Sprintf("%s · %s [%s]", i.slot.Asset, humanize.Bytes(uint64(i.slot.Size)), i.slot.Source)
}

func (i slotItem) FilterValue() string {
	return i.slot.Category.String() + " " + i.slot.Asset
}

// Model is the sound board model.
type Model struct {
	ctrl  Controller
	slots []bundle.Slot

	list list.Model
	help help.Model
	keys KeyMap

	state   sound.State
	playing sound.Category
	width   int
	height  int
	ready   bool

	statusMsg string
	statusErr bool

	copy func(text string) error
}

// New creates a board for slots, driven by ctrl.
func New(ctrl Controller, slots []bundle.Slot) Model {
	items := make([]list.Item, len(slots))
	for i, slot := range slots {
		items[i] = slotItem{slot: slot}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "chime"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		ctrl:    ctrl,
		slots:   slots,
		list:    l,
		help:    help.New(),
		keys:    DefaultKeyMap(),
		state:   ctrl.State(),
		playing: -1,
		copy:    func(text string) error { return copyText(text, "") },
	}
}

// Init starts polling the player state.
func (m Model) Init() tea.Cmd {
	return tick()
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

type playResultMsg struct {
	result sound.Result
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.list.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case tickMsg:
		m.state = m.ctrl.State()
		return m, tick()

	case playResultMsg:
		m.state = m.ctrl.State()
		res := msg.result
		if !res.OK() {
			return m, setStatus(res.String(), true)
		}
		m.playing = res.Category
		return m, setStatus(res.String(), false)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, setStatus("Copy failed: "+msg.err.Error(), true)
		}
		return m, setStatus("Copied to clipboard", false)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func setStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Play):
		slot, ok := m.selected()
		if !ok {
			return m, nil
		}
		ctrl := m.ctrl
		return m, func() tea.Msg {
			return playResultMsg{result: ctrl.Play(context.Background(), slot.Category, "")}
		}

	case key.Matches(msg, m.keys.Toggle):
		switch m.ctrl.State() {
		case sound.StatePaused:
			res := m.ctrl.Resume()
			m.state = m.ctrl.State()
			if res.Outcome == sound.OutcomeFailed && res.Err != nil {
				return m, setStatus("Resume failed: "+res.Err.Error(), true)
			}
		case sound.StatePlaying:
			m.ctrl.Pause()
			m.state = m.ctrl.State()
		}
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		m.ctrl.StopSound()
		m.state = m.ctrl.State()
		m.playing = -1
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		slot, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.copyToClipboard(slot.Asset)

	case key.Matches(msg, m.keys.CopyYAML):
		data, err := yaml.Marshal(m.slots)
		if err != nil {
			return m, setStatus("Export failed: "+err.Error(), true)
		}
		return m, m.copyToClipboard(string(data))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) selected() (bundle.Slot, bool) {
	item, ok := m.list.SelectedItem().(slotItem)
	if !ok {
		return bundle.Slot{}, false
	}
	return item.slot, true
}

// copyToClipboard copies text to clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	copyFn := m.copy
	return func() tea.Msg {
		return copyResultMsg{err: copyFn(text)}
	}
}

// State returns the last observed player state.
func (m Model) State() sound.State {
	return m.state
}

// View renders the board.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	s := m.list.View() + "\n" + m.stateLine() + "\n"

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		return s + statusStyle.Render(m.statusMsg)
	}
	return s + m.help.View(m.keys)
}

func (m Model) stateLine() string {
	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch m.state {
	case sound.StatePlaying:
		badge = badge.Background(lipgloss.Color("10")).Foreground(lipgloss.Color("0"))
	case sound.StatePaused:
		badge = badge.Background(lipgloss.Color("11")).Foreground(lipgloss.Color("0"))
	case sound.StateLoading:
		badge = badge.Background(lipgloss.Color("12")).Foreground(lipgloss.Color("0"))
	default:
		badge = badge.Foreground(lipgloss.Color("8"))
	}

	line := badge.Render(m.state.String())
	if m.state != sound.StateIdle && m.playing.Valid() {
		line += " " + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.playing.Title())
	}
	return line
}

// Run starts the board and blocks until the user quits.
func Run(ctrl Controller, slots []bundle.Slot) error {
	p := tea.NewProgram(New(ctrl, slots), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
