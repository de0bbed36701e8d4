package tui

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
	"github.com/KaramelBytes/datawash-cli/internal/export"
	"github.com/KaramelBytes/datawash-cli/internal/session"
	"github.com/KaramelBytes/datawash-cli/internal/upload"
)

type stubUploader struct {
	body string
}

func (s stubUploader) Upload(ctx context.Context, path string) (*upload.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []dataset.Row
	if err := json.Unmarshal([]byte(s.body), &rows); err != nil {
		return nil, err
	}
	return &upload.Result{FileName: filepath.Base(path), Rows: rows, Stats: upload.Stats{Rows: len(rows), Cols: 2}}, nil
}

const peopleJSON = `[{"name":"Ann","age":30},{"name":"Bob","age":41},{"name":"Cy","age":25}]`

func newTestModel(t *testing.T, body string) (Model, *session.Controller) {
	t.Helper()
	ctrl := session.New(session.Options{Uploader: stubUploader{body: body}})
	m := New(Options{Controller: ctrl, DownloadDir: t.TempDir()})
	m.width, m.height = 120, 40
	return m, ctrl
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+u":
			msg = tea.KeyMsg{Type: tea.KeyCtrlU}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, c := m.Update(msg)
		m = next.(Model)
		cmd = c
	}
	return m, cmd
}

// drain runs cmd and feeds every upload result back into the model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
	case uploadDoneMsg:
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func uploadFile(t *testing.T, m Model, name string) Model {
	t.Helper()
	m, _ = press(t, m, "u", name)
	m, cmd := press(t, m, "enter")
	return drain(t, m, cmd)
}

func TestEmptyStateAndTabs(t *testing.T) {
	m, ctrl := newTestModel(t, peopleJSON)
	if !strings.Contains(m.View(), "No data loaded") {
		t.Fatalf("empty view missing hint:\n%s", m.View())
	}
	m, _ = press(t, m, "2")
	if ctrl.Section() != session.SectionInsights {
		t.Fatalf("section = %s", ctrl.Section())
	}
	m, _ = press(t, m, "tab")
	if ctrl.Section() != session.SectionHistory || !strings.Contains(m.View(), "No history yet") {
		t.Fatalf("tab did not reach history")
	}
	_, _ = press(t, m, "tab")
	if ctrl.Section() != session.SectionCleaner {
		t.Fatalf("tab should wrap to cleaner, got %s", ctrl.Section())
	}
}

func TestUploadEditAndDelete(t *testing.T) {
	m, ctrl := newTestModel(t, peopleJSON)
	m = uploadFile(t, m, "people.csv")
	if ctrl.Store().Len() != 3 || ctrl.FileName() != "people.csv" {
		t.Fatalf("upload not applied: %d %s", ctrl.Store().Len(), ctrl.FileName())
	}
	view := m.View()
	if !strings.Contains(view, "Ann") || !strings.Contains(view, "Rows: 3") {
		t.Fatalf("grid missing data:\n%s", view)
	}

	// move to the age column of Bob and edit it
	m, _ = press(t, m, "l", "j", "enter")
	if m.mode != modeEdit || m.input.Value() != "41" {
		t.Fatalf("mode = %d value = %q", m.mode, m.input.Value())
	}
	m, _ = press(t, m, "ctrl+u", "99", "enter")
	if got := ctrl.Store().Cell(1, "age"); got != dataset.Number(99) {
		t.Fatalf("edited cell = %v", got)
	}

	m, _ = press(t, m, "x")
	if ctrl.Store().Len() != 2 || ctrl.Store().Cell(1, "name") != dataset.String("Cy") {
		t.Fatalf("delete removed the wrong row")
	}
	_, _ = press(t, m, "a")
	if ctrl.Store().Len() != 3 || ctrl.Store().Cell(2, "age") != dataset.Number(0) {
		t.Fatalf("add row did not zero-fill")
	}
}

func TestSaveLoadAndDownloadFromHistory(t *testing.T) {
	m, ctrl := newTestModel(t, peopleJSON)
	m = uploadFile(t, m, "people.csv")
	m, _ = press(t, m, "s")
	if !ctrl.Store().Empty() || len(ctrl.History()) != 1 {
		t.Fatalf("save did not reset")
	}
	m, _ = press(t, m, "3")
	if !strings.Contains(m.View(), "Cleaned") {
		t.Fatalf("history view missing badge:\n%s", m.View())
	}
	m, _ = press(t, m, "d")
	if _, err := os.Stat(filepath.Join(m.downloadDir, "people.csv")); err != nil {
		t.Fatalf("history download: %v", err)
	}
	_, _ = press(t, m, "enter")
	if ctrl.Section() != session.SectionCleaner || ctrl.Store().Len() != 3 {
		t.Fatalf("history load failed")
	}
}

func TestDownloadPromptDefaultsFileName(t *testing.T) {
	m, ctrl := newTestModel(t, peopleJSON)
	m, _ = press(t, m, "d")
	if m.mode != modeNormal || ctrl.Status().Level != session.LevelWarn {
		t.Fatalf("empty download should warn, status = %v", ctrl.Status())
	}
	m = uploadFile(t, m, "people.csv")
	m, _ = press(t, m, "d")
	if m.mode != modeDownloadPath || filepath.Base(m.input.Value()) != export.DefaultFileName {
		t.Fatalf("prompt = %q", m.input.Value())
	}
	_, _ = press(t, m, "enter")
	if _, err := os.Stat(filepath.Join(m.downloadDir, export.DefaultFileName)); err != nil {
		t.Fatalf("download: %v", err)
	}
}

func TestNoNumericColumnNote(t *testing.T) {
	m, _ := newTestModel(t, `[{"name":"Ann","city":"Oslo"}]`)
	m = uploadFile(t, m, "text.csv")
	if !strings.Contains(m.View(), session.NoNumericColumn) {
		t.Fatalf("view missing note:\n%s", m.View())
	}
}

func TestInsightsStepColumn(t *testing.T) {
	m, ctrl := newTestModel(t, peopleJSON)
	m = uploadFile(t, m, "people.csv")
	m, _ = press(t, m, "2")
	if ctrl.Insight() == nil || ctrl.Insight().Column != "name" {
		t.Fatalf("insight = %+v", ctrl.Insight())
	}
	m, _ = press(t, m, "l")
	if ctrl.Insight().Column != "age" || !strings.Contains(m.View(), "Average") {
		t.Fatalf("step did not analyze age:\n%s", m.View())
	}
}

func TestThemeTogglePersists(t *testing.T) {
	var saved []string
	ctrl := session.New(session.Options{})
	m := New(Options{Controller: ctrl, OnTheme: func(theme string) error {
		saved = append(saved, theme)
		return nil
	}})
	m, _ = press(t, m, "t")
	if !m.Dark() || len(saved) != 1 || saved[0] != "dark" {
		t.Fatalf("saved = %v dark = %v", saved, m.Dark())
	}
	m, _ = press(t, m, "t")
	if m.Dark() || saved[1] != "light" {
		t.Fatalf("saved = %v", saved)
	}
}

func TestEscCancelsUpload(t *testing.T) {
	m, ctrl := newTestModel(t, peopleJSON)
	m, _ = press(t, m, "u", "people.csv")
	m, cmd := press(t, m, "enter")
	if !ctrl.Loading() {
		t.Fatalf("expected an upload in flight")
	}
	m, _ = press(t, m, "esc")
	m = drain(t, m, cmd)
	if ctrl.Loading() || !ctrl.Store().Empty() || ctrl.Status().Level != session.LevelWarn {
		t.Fatalf("cancel not honoured: loading=%v len=%d status=%v", ctrl.Loading(), ctrl.Store().Len(), ctrl.Status())
	}
	if !strings.Contains(m.View(), "cancelled") {
		t.Fatalf("view missing cancel status")
	}
}
