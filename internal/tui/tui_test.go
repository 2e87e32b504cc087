package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/catalog-downloader/internal/config"
	"github.com/handiism/catalog-downloader/internal/download"
	"github.com/handiism/catalog-downloader/internal/logger"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func newTestModel() Model {
	s := config.DefaultSettings()
	s.TargetCount = 100
	return NewModel(s, logger.Discard())
}

func TestModel_Toggles(t *testing.T) {
	m := newTestModel()
	require.True(t, m.sfw)

	m = update(t, m, key("s"))
	m = update(t, m, key("x"))
	m = update(t, m, key("j"))

	assert.False(t, m.sfw)
	assert.True(t, m.exportCSV)
	assert.True(t, m.convertJPG)
	assert.Equal(t, StateInput, m.state)

	s := m.runSettings(250)
	assert.Equal(t, 250, s.TargetCount)
	assert.False(t, s.SFW)
	assert.True(t, s.ConvertAssetsToJPG)
	// The base settings are untouched
	assert.True(t, m.settings.SFW)
	assert.Equal(t, 100, m.settings.TargetCount)
}

func TestModel_RejectsBadTarget(t *testing.T) {
	m := newTestModel()
	m.textInput.SetValue("0")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, StateInput, m.state)
	assert.NotEmpty(t, m.inputErr)
	assert.Nil(t, m.manager)
}

func TestModel_FiltersVerboseEvents(t *testing.T) {
	m := newTestModel()
	m.state = StateDownloading

	m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "Downloaded: 1.jpg", Level: download.LevelVerbose}})
	assert.Empty(t, m.logs)

	m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "Fetched 25 records", Level: download.LevelInfo}})
	require.Len(t, m.logs, 1)
	assert.Equal(t, "Fetched 25 records", m.logs[0].Message)

	for i := 0; i < 20; i++ {
		m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "x", Level: download.LevelInfo}})
	}
	assert.Len(t, m.logs, maxLogs)
}

func TestModel_CompletionAndError(t *testing.T) {
	m := newTestModel()
	m.state = StateDownloading

	done := update(t, m, DownloadDoneMsg{Summary: download.Summary{Total: 3, Downloaded: 2, Faulty: []int{9}}})
	assert.Equal(t, StateComplete, done.state)
	assert.Equal(t, 3, done.filesDone)
	assert.Contains(t, done.View(), "Without image: 1")

	m.state = StateInitializing
	failed := update(t, m, InitDoneMsg{Err: errors.New("invalid snapshot: catalog.json")})
	assert.Equal(t, StateError, failed.state)
	assert.True(t, strings.Contains(failed.View(), "invalid snapshot"))
}

func TestModel_IgnoresMessagesFromEarlierRun(t *testing.T) {
	m := newTestModel()
	m.startRun(100)
	m.startRun(100) // after "r", the second run is current
	require.Equal(t, 2, m.run)

	m.state = StateDownloading
	m.summary = download.Summary{Total: 5, Downloaded: 2}

	stale := update(t, m, DownloadDoneMsg{Run: 1, Err: context.Canceled})
	assert.Equal(t, StateDownloading, stale.state)
	assert.NoError(t, stale.err)
	assert.Equal(t, 5, stale.summary.Total)

	stale = update(t, stale, ProgressMsg{Run: 1, Event: download.ProgressEvent{Message: "old", Level: download.LevelError}})
	assert.Empty(t, stale.logs)

	m.state = StateInitializing
	staleInit := update(t, m, InitDoneMsg{Run: 1, Err: errors.New("invalid snapshot")})
	assert.Equal(t, StateInitializing, staleInit.state)

	current := update(t, stale, DownloadDoneMsg{Run: 2, Summary: download.Summary{Total: 5, Downloaded: 5}})
	assert.Equal(t, StateComplete, current.state)
	assert.Equal(t, 5, current.summary.Downloaded)
}
