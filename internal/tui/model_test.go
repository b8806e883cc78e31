package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/chime/internal/bundle"
	"github.com/jmylchreest/chime/internal/sound"
)

type fakeController struct {
	state sound.State
	plays []sound.Category
	fail  error
}

func (c *fakeController) Play(ctx context.Context, category sound.Category, override string) sound.Result {
	c.plays = append(c.plays, category)
	if c.fail != nil {
		return sound.Result{Category: category, Outcome: sound.OutcomeFailed, Err: c.fail}
	}
	c.state = sound.StatePlaying
	return sound.Result{Category: category, Outcome: sound.OutcomePlayed, Asset: category.DefaultAsset()}
}

func (c *fakeController) Pause() {
	if c.state == sound.StatePlaying {
		c.state = sound.StatePaused
	}
}

func (c *fakeController) Resume() sound.Result {
	if c.state != sound.StatePaused {
		return sound.Result{Outcome: sound.OutcomeNone}
	}
	c.state = sound.StatePlaying
	return sound.Result{Outcome: sound.OutcomePlayed}
}

func (c *fakeController) StopSound()         { c.state = sound.StateIdle }
func (c *fakeController) State() sound.State { return c.state }

func testSlots() []bundle.Slot {
	var slots []bundle.Slot
	for _, c := range sound.Categories() {
		slots = append(slots, bundle.Slot{Category: c, Asset: c.DefaultAsset(), Source: bundle.SourceEmbedded, Size: 4096})
	}
	return slots
}

func newTestModel(t *testing.T) (Model, *fakeController) {
	t.Helper()
	ctrl := &fakeController{}
	m := New(ctrl, testSlots())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return updated.(Model), ctrl
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds the resulting message, if any, back in.
func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd == nil {
		return m
	}
	switch result := cmd().(type) {
	case playResultMsg, copyResultMsg:
		updated, _ = m.Update(result)
		m = updated.(Model)
	}
	return m
}

func TestPlaySelected(t *testing.T) {
	m, ctrl := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, []sound.Category{sound.IncomingCall}, ctrl.plays)
	assert.Equal(t, sound.StatePlaying, m.State())
	assert.Contains(t, m.View(), "playing")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []sound.Category{sound.IncomingCall, sound.IncomingMessage}, ctrl.plays)
}

func TestPlayFailureShowsStatus(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.fail = sound.ErrAssetNotFound

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.NotNil(t, cmd)

	updated, cmd = m.Update(cmd())
	m = updated.(Model)
	require.NotNil(t, cmd)

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.statusMsg, "asset not found")
	assert.Equal(t, sound.StateIdle, m.State())
}

func TestTogglePauseResume(t *testing.T) {
	m, ctrl := newTestModel(t)

	// Nothing playing: toggle is a no-op
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, sound.StateIdle, ctrl.state)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, sound.StatePaused, m.State())

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, sound.StatePlaying, m.State())
}

func TestStop(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, runes("s"))
	assert.Equal(t, sound.StateIdle, m.State())
	assert.Contains(t, m.View(), "idle")
}

func TestTickRefreshesState(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.state = sound.StatePlaying

	updated, cmd := m.Update(tickMsg{})
	m = updated.(Model)
	assert.Equal(t, sound.StatePlaying, m.State())
	assert.NotNil(t, cmd)
}

func TestCopy(t *testing.T) {
	m, _ := newTestModel(t)

	var copied string
	m.copy = func(text string) error {
		copied = text
		return nil
	}

	m = press(t, m, runes("c"))
	assert.Equal(t, "IncomingCall.wav", copied)

	m = press(t, m, runes("y"))
	var entries []struct {
		Category string `yaml:"category"`
		Asset    string `yaml:"asset"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(copied), &entries))
	require.Len(t, entries, 5)
	assert.Equal(t, "incoming-call", entries[0].Category)
	assert.Equal(t, "OutgoingMessage.wav", entries[4].Asset)
}

func TestCopyFailure(t *testing.T) {
	m, _ := newTestModel(t)
	m.copy = func(string) error { return errors.New("no clipboard") }

	updated, cmd := m.Update(runes("c"))
	m = updated.(Model)
	updated, cmd = m.Update(cmd())
	m = updated.(Model)
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	assert.True(t, m.statusErr)
	assert.Contains(t, m.statusMsg, "no clipboard")
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestSlotDescription(t *testing.T) {
	item := slotItem{slot: bundle.Slot{Category: sound.OutgoingCall, Asset: "OutgoingCall.wav", Source: "embedded", Size: 2048}}
	assert.Equal(t, "OutgoingCall", item.Title())
	assert.Equal(t, "OutgoingCall.wav · 2.0 kB [embedded]", item.Description())

	item.slot.Size = 0
	assert.Equal(t, "OutgoingCall.wav [embedded]", item.Description())

	item.slot.Error = "asset not found"
	assert.Equal(t, "OutgoingCall.wav (asset not found)", item.Description())
}
