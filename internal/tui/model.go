// Package tui is the terminal dashboard: an editable table with a chart, a
// per-column insights tab and the session history.
package tui

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/KaramelBytes/datawash-cli/internal/chart"
	"github.com/KaramelBytes/datawash-cli/internal/config"
	"github.com/KaramelBytes/datawash-cli/internal/export"
	"github.com/KaramelBytes/datawash-cli/internal/session"
	"github.com/KaramelBytes/datawash-cli/internal/upload"
)

type mode int

const (
	modeNormal mode = iota
	modeEdit
	modeUploadPath
	modeDownloadPath
)

// Options configures the dashboard model.
type Options struct {
	Controller  *session.Controller
	Context     context.Context
	Dark        bool
	DownloadDir string
	ChartFormat chart.Format
	// OnTheme persists the theme after a toggle.
	OnTheme func(theme string) error
}

type Model struct {
	ctx         context.Context
	ctrl        *session.Controller
	keys        keyMap
	help        help.Model
	spin        spinner.Model
	input       textinput.Model
	st          styles
	dark        bool
	onTheme     func(string) error
	downloadDir string
	chartFormat chart.Format

	mode       mode
	cx, cy     int
	histCursor int
	width      int
	height     int
	quitting   bool
}

type uploadDoneMsg struct {
	out upload.Outcome
}

// UploadMsg asks the dashboard to upload the file at the given path, as if it
// had been typed into the upload prompt.
type UploadMsg string

func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	in := textinput.New()
	in.CharLimit = 1024
	in.Width = 48
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	if opts.ChartFormat == "" {
		opts.ChartFormat = chart.FormatPNG
	}
	m := Model{
		ctx:         ctx,
		ctrl:        opts.Controller,
		keys:        defaultKeys(),
		help:        help.New(),
		spin:        sp,
		input:       in,
		dark:        opts.Dark,
		onTheme:     opts.OnTheme,
		downloadDir: opts.DownloadDir,
		chartFormat: opts.ChartFormat,
		width:       100,
		height:      32,
	}
	m.st = newStyles(m.dark)
	m.spin.Style = m.st.title
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		if !m.ctrl.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case UploadMsg:
		return m.startUpload(string(msg))
	case uploadDoneMsg:
		if applied, err := m.ctrl.ApplyUpload(msg.out); applied && err == nil {
			m.cx, m.cy = 0, 0
		}
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeUploadPath, modeDownloadPath:
			return m.updatePrompt(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.CancelUpload()
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.CancelUpload()
		return m, nil
	case key.Matches(msg, m.keys.TabNext):
		m.switchTab(m.tabIndex() + 1)
		return m, nil
	case key.Matches(msg, m.keys.TabPrev):
		m.switchTab(m.tabIndex() - 1)
		return m, nil
	case key.Matches(msg, m.keys.Cleaner):
		m.switchTab(0)
		return m, nil
	case key.Matches(msg, m.keys.Insights):
		m.switchTab(1)
		return m, nil
	case key.Matches(msg, m.keys.History):
		m.switchTab(2)
		return m, nil
	case key.Matches(msg, m.keys.Upload):
		return m.openPrompt(modeUploadPath, "", "path/to/data.csv")
	case key.Matches(msg, m.keys.Save):
		if _, err := m.ctrl.SaveAndReset(); err == nil {
			m.cx, m.cy = 0, 0
		}
		return m, nil
	case key.Matches(msg, m.keys.Download):
		return m.download()
	case key.Matches(msg, m.keys.Archive):
		_, _ = m.ctrl.ExportArchive(m.downloadDir)
		return m, nil
	case key.Matches(msg, m.keys.Chart):
		_, _ = m.ctrl.ExportChart(m.downloadDir, m.chartFormat)
		return m, nil
	case key.Matches(msg, m.keys.Theme):
		m.toggleTheme()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.ctrl.Section() {
	case session.SectionCleaner:
		return m.updateTable(msg)
	case session.SectionInsights:
		return m.updateInsights(msg)
	case session.SectionHistory:
		return m.updateHistory(msg)
	}
	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.ctrl.Store().Columns()
	rows := m.ctrl.Store().Len()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cy > 0 {
			m.cy--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cy < rows-1 {
			m.cy++
		}
	case key.Matches(msg, m.keys.Left):
		if m.cx > 0 {
			m.cx--
		}
	case key.Matches(msg, m.keys.Right):
		if m.cx < len(cols)-1 {
			m.cx++
		}
	case key.Matches(msg, m.keys.Edit):
		if rows > 0 && m.cx < len(cols) {
			return m.openPrompt(modeEdit, m.ctrl.Store().Cell(m.cy, cols[m.cx]).Text(), "")
		}
	case key.Matches(msg, m.keys.Delete):
		if rows > 0 {
			_ = m.ctrl.DeleteRow(m.cy)
		}
	case key.Matches(msg, m.keys.AddRow):
		if m.ctrl.AddRow() == nil {
			m.cy = m.ctrl.Store().Len() - 1
		}
	}
	m.clampCursor()
	return m, nil
}

func (m Model) updateInsights(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	delta := 0
	switch {
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Up):
		delta = -1
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Down):
		delta = 1
	}
	if delta != 0 {
		if err := m.ctrl.StepColumn(delta); err != nil {
			m.ctrl.Warn(err)
		}
	}
	return m, nil
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	recs := m.ctrl.History()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.histCursor > 0 {
			m.histCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.histCursor < len(recs)-1 {
			m.histCursor++
		}
	case key.Matches(msg, m.keys.Edit):
		if m.histCursor < len(recs) {
			if err := m.ctrl.LoadFromHistory(recs[m.histCursor].ID); err == nil {
				m.cx, m.cy = 0, 0
			}
		}
	}
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		cols := m.ctrl.Store().Columns()
		if m.cx < len(cols) {
			_ = m.ctrl.UpdateCell(m.cy, cols[m.cx], m.input.Value())
		}
		m.closePrompt()
		return m, nil
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		kind := m.mode
		m.closePrompt()
		if kind == modeDownloadPath {
			dir, name := filepath.Split(value)
			_, _ = m.ctrl.DownloadAs(dir, name)
			return m, nil
		}
		return m.startUpload(value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startUpload supersedes any upload in flight and runs the new one off the
// update loop.
func (m Model) startUpload(path string) (tea.Model, tea.Cmd) {
	t, err := m.ctrl.BeginUpload(m.ctx, path)
	if err != nil {
		m.ctrl.Warn(err)
		return m, nil
	}
	ctrl := m.ctrl
	run := func() tea.Msg {
		return uploadDoneMsg{out: ctrl.RunUpload(t, path)}
	}
	return m, tea.Batch(m.spin.Tick, run)
}

func (m Model) download() (tea.Model, tea.Cmd) {
	if m.ctrl.Section() == session.SectionHistory {
		recs := m.ctrl.History()
		if m.histCursor < len(recs) {
			_, _ = m.ctrl.DownloadHistoryItem(recs[m.histCursor].ID, m.downloadDir)
			return m, nil
		}
	}
	if m.ctrl.Store().Empty() {
		_, _ = m.ctrl.Download(m.downloadDir)
		return m, nil
	}
	return m.openPrompt(modeDownloadPath, filepath.Join(m.downloadDir, export.DefaultFileName), "")
}

func (m Model) openPrompt(md mode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.input.Reset()
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m *Model) closePrompt() {
	m.mode = modeNormal
	m.input.Blur()
}

func (m *Model) toggleTheme() {
	m.dark = !m.dark
	m.st = newStyles(m.dark)
	m.spin.Style = m.st.title
	theme := config.ThemeLight
	if m.dark {
		theme = config.ThemeDark
	}
	if m.onTheme != nil {
		if err := m.onTheme(theme); err != nil {
			m.ctrl.Warn(err)
		}
	}
}

func (m Model) tabIndex() int {
	for i, s := range session.Sections {
		if s == m.ctrl.Section() {
			return i
		}
	}
	return 0
}

func (m *Model) switchTab(i int) {
	n := len(session.Sections)
	i = ((i % n) + n) % n
	if err := m.ctrl.SwitchTab(string(session.Sections[i])); err != nil {
		m.ctrl.Warn(err)
	}
	if m.ctrl.Section() == session.SectionHistory {
		m.histCursor = 0
	}
}

// clampCursor keeps the cursor on the grid and the focused row inside the
// scrolled window.
func (m *Model) clampCursor() {
	rows := m.ctrl.Store().Len()
	cols := len(m.ctrl.Store().Columns())
	m.cy = max(0, min(m.cy, rows-1))
	m.cx = max(0, min(m.cx, cols-1))
	visible := m.gridHeight()
	top := m.ctrl.Scroll()
	if m.cy < top {
		top = m.cy
	}
	if m.cy >= top+visible {
		top = m.cy - visible + 1
	}
	m.ctrl.SetScroll(top)
}

// Dark reports the current theme.
func (m Model) Dark() bool { return m.dark }
