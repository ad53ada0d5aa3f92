package input

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	apperrors "amcli/internal/core/errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestResolve(t *testing.T) {
	assert.Equal(t, Interactive, Resolve(false, false))
	assert.Equal(t, NonInteractive, Resolve(false, true))
	assert.Equal(t, NonInteractive, Resolve(true, false))
}

func TestNonInteractive_FailsImmediately(t *testing.T) {
	in := New(NonInteractive, nil, nil)

	_, err := in.PromptText("Project Name", TextOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInputRequired))
	assert.Contains(t, err.Error(), "Interactive prompt 'Project Name' blocked")
	assert.Contains(t, err.Error(), "command-line arguments")

	_, err = in.Select("Project Template", []string{"default"})
	assert.Contains(t, err.Error(), "Interactive selection 'Project Template' blocked")

	_, err = in.Confirm("Overwrite?", Bool(true))
	assert.Contains(t, err.Error(), "Interactive confirmation 'Overwrite?' blocked")
	assert.Equal(t, apperrors.ExitUserError, apperrors.ExitCode(err))
}

func TestTextModel_ValidatesBeforeAccepting(t *testing.T) {
	m := newTextModel("Project Name", TextOptions{
		Placeholder: "my_project",
		Validator: func(s string) error {
			if strings.Contains(s, "/") {
				return errors.New("no slashes")
			}
			return nil
		},
		Formatter: strings.ToUpper,
	})

	next, _ := m.Update(runes("a/b"))
	next, cmd := next.Update(enter)
	tm := next.(textModel)
	assert.False(t, tm.done)
	assert.Nil(t, cmd)
	assert.Contains(t, tm.View(), "no slashes")

	tm.input.SetValue("sfx")
	next, cmd = tm.Update(enter)
	tm = next.(textModel)
	assert.True(t, tm.done)
	assert.NotNil(t, cmd)
	assert.Equal(t, "sfx", tm.input.Value())
	assert.Contains(t, tm.View(), "SFX")
}

func TestTextModel_Cancel(t *testing.T) {
	next, cmd := newTextModel("Name", TextOptions{}).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.False(t, next.(textModel).done)
	assert.NotNil(t, cmd)
}

func TestSelectModel_PicksHighlightedOption(t *testing.T) {
	m := newSelectModel("Project Template", []string{"default", "blank", "music"})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(enter)
	sm := next.(selectModel)
	require.True(t, sm.done)
	assert.Equal(t, "blank", sm.choice)
}

func TestConfirmModel(t *testing.T) {
	cases := []struct {
		name   string
		def    *bool
		key    tea.KeyMsg
		done   bool
		answer bool
	}{
		{"yes", nil, runes("y"), true, true},
		{"no", Bool(true), runes("N"), true, false},
		{"enter uses default", Bool(true), enter, true, true},
		{"enter without default waits", nil, enter, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, _ := newConfirmModel("Continue?", tc.def).Update(tc.key)
			cm := next.(confirmModel)
			assert.Equal(t, tc.done, cm.done)
			assert.Equal(t, tc.answer, cm.answer)
		})
	}
	assert.Contains(t, newConfirmModel("Continue?", Bool(false)).View(), "(y/N)")
}

type scripted struct {
	choice string
	err    error
}

func (s scripted) PromptText(string, TextOptions) (string, error) { return "", s.err }
func (s scripted) Select(string, []string) (string, error)        { return s.choice, s.err }
func (s scripted) Confirm(string, *bool) (bool, error)            { return false, s.err }

func TestSelectIndex(t *testing.T) {
	labels := []string{"default", "blank"}

	idx, err := SelectIndex(scripted{choice: "blank"}, "Template", labels)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = SelectIndex(scripted{choice: "other"}, "Template", labels)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeFieldValidation))

	_, err = SelectIndex(scripted{}, "Template", nil)
	assert.Error(t, err)

	boom := fmt.Errorf("boom")
	_, err = SelectIndex(scripted{err: boom}, "Template", labels)
	assert.ErrorIs(t, err, boom)
}
