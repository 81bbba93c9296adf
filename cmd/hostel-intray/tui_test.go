package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/tui/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTUICmdRunsFeedModel(t *testing.T) {
	var model tea.Model
	stubProgram(t, func(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
		model = m
		drive(m, m.Init())
		return m, nil
	})

	client := new(api.MockClient)
	client.On("FetchPage", mock.Anything, mock.Anything, 0).Return(page(false, note("n1", 10)), nil)
	client.On("UnreadCount", mock.Anything).Return(1, nil)

	_, err := execute(t, NewTUICmd(client, nil))
	require.NoError(t, err)
	require.IsType(t, &state.Model{}, model)
	assert.Contains(t, model.View(), "Complaint n1")
}

func TestTUICmdClosedHidesRows(t *testing.T) {
	var model tea.Model
	stubProgram(t, func(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
		model = m
		drive(m, m.Init())
		return m, nil
	})

	client := new(api.MockClient)
	client.On("FetchPage", mock.Anything, mock.Anything, 0).Return(page(false, note("n1", 10)), nil)
	client.On("UnreadCount", mock.Anything).Return(1, nil)

	_, err := execute(t, NewTUICmd(client, nil), "--closed")
	require.NoError(t, err)
	assert.NotContains(t, model.View(), "Complaint n1")
}

func TestTUICmdWrapsErrors(t *testing.T) {
	stubProgram(t, func(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
		return m, errors.New("no tty")
	})

	_, err := execute(t, NewTUICmd(new(api.MockClient), nil))
	assert.EqualError(t, err, "tui: no tty")
}
