package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/KaramelBytes/datawash-cli/internal/session"
)

const (
	maxColWidth = 24
	minColWidth = 4
	chartHeight = 12
	// title, tabs, status, stats, header, separator, help
	chromeHeight = 8
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")

	switch m.ctrl.Section() {
	case session.SectionCleaner:
		b.WriteString(m.viewCleaner())
	case session.SectionInsights:
		b.WriteString(m.viewInsights())
	case session.SectionHistory:
		b.WriteString(m.viewHistory())
	}

	if m.mode != modeNormal {
		b.WriteString("\n")
		b.WriteString(m.renderPrompt())
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	theme := "☀ light"
	if m.dark {
		theme = "☾ dark"
	}
	title := m.st.title.Render("datawash")
	file := ""
	if !m.ctrl.Store().Empty() {
		file = m.st.dim.Render("  " + m.ctrl.FileName())
	}
	right := m.st.dim.Render(theme)
	gap := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(file)-lipgloss.Width(right))
	return title + file + strings.Repeat(" ", gap) + right
}

func (m Model) renderTabs() string {
	names := map[session.Section]string{
		session.SectionCleaner:  "Cleaner",
		session.SectionInsights: "Insights",
		session.SectionHistory:  fmt.Sprintf("History (%d)", len(m.ctrl.History())),
	}
	parts := make([]string, 0, len(session.Sections))
	for _, s := range session.Sections {
		if s == m.ctrl.Section() {
			parts = append(parts, m.st.activeTab.Render(names[s]))
		} else {
			parts = append(parts, m.st.inactiveTab.Render(names[s]))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderStatus() string {
	if m.ctrl.Loading() {
		return m.spin.View() + " " + m.st.dim.Render(fmt.Sprintf("Uploading %s… (esc to cancel)", m.ctrl.UploadingFile()))
	}
	st := m.ctrl.Status()
	switch st.Level {
	case session.LevelOK:
		return m.st.ok.Render(st.String())
	case session.LevelWarn:
		return m.st.warn.Render(st.String())
	case session.LevelError:
		return m.st.err.Render(st.String())
	}
	return m.st.dim.Render(st.String())
}

func (m Model) renderPrompt() string {
	title := map[mode]string{
		modeEdit:         "Edit cell",
		modeUploadPath:   "Upload file (csv, tsv, xlsx)",
		modeDownloadPath: "Save cleaned CSV as",
	}[m.mode]
	body := m.st.title.Render(title) + "\n" + m.input.View() + "\n" + m.st.dim.Render("enter confirm · esc cancel")
	return m.st.modal.Render(body)
}

// --- Cleaner ---

func (m Model) viewCleaner() string {
	store := m.ctrl.Store()
	if store.Empty() {
		return m.st.dim.Render("No data loaded. Press u to upload a CSV, TSV or XLSX file.") + "\n"
	}
	var b strings.Builder
	if st, ok := m.ctrl.Stats(); ok {
		b.WriteString(m.st.dim.Render(st.Line()))
		b.WriteString("\n")
	}
	b.WriteString(m.renderGrid())
	b.WriteString("\n")
	b.WriteString(m.renderMainChart())
	return b.String()
}

func (m Model) gridHeight() int {
	h := m.height - chromeHeight - chartHeight
	return max(3, h)
}

func (m Model) computeColWidths(cols []string) []int {
	ds := m.ctrl.Store().Get()
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = max(minColWidth, runewidth.StringWidth(c))
	}
	sample := min(len(ds.Rows), 100)
	for _, row := range ds.Rows[:sample] {
		for i, c := range cols {
			widths[i] = max(widths[i], runewidth.StringWidth(row.Value(c).Text()))
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColWidth)
	}
	return widths
}

// visibleColRange picks the columns that fit, keeping the cursor column in
// view.
func (m Model) visibleColRange(widths []int) (int, int) {
	avail := m.width - 4
	start := 0
	if m.cx >= len(widths) {
		return 0, len(widths)
	}
	for {
		used, end := 0, start
		for end < len(widths) {
			w := widths[end] + 3
			if used+w > avail && end > start {
				break
			}
			used += w
			end++
		}
		if m.cx < end || start >= m.cx {
			return start, end
		}
		start++
	}
}

func (m Model) renderGrid() string {
	store := m.ctrl.Store()
	cols := store.Columns()
	widths := m.computeColWidths(cols)
	visStart, visEnd := m.visibleColRange(widths)

	var b strings.Builder
	b.WriteString(m.st.header.Render("   "))
	for ci := visStart; ci < visEnd; ci++ {
		b.WriteString(m.st.dim.Render("│"))
		b.WriteString(m.st.header.Render(" " + fit(cols[ci], widths[ci]) + " "))
	}
	b.WriteString("\n")
	b.WriteString(m.st.dim.Render("───"))
	for ci := visStart; ci < visEnd; ci++ {
		b.WriteString(m.st.dim.Render("┼" + strings.Repeat("─", widths[ci]+2)))
	}
	b.WriteString("\n")

	top := m.ctrl.Scroll()
	end := min(store.Len(), top+m.gridHeight())
	for ri := top; ri < end; ri++ {
		action := m.st.dim.Render(" ✕ ")
		if ri == m.cy {
			action = m.st.err.Render(" ✕ ")
		}
		b.WriteString(action)
		for ci := visStart; ci < visEnd; ci++ {
			b.WriteString(m.st.dim.Render("│"))
			v := store.Cell(ri, cols[ci])
			text := fit(v.Text(), widths[ci])
			if v.IsNumber() {
				text = runewidth.FillLeft(runewidth.Truncate(v.Text(), widths[ci], "…"), widths[ci])
			}
			cell := " " + text + " "
			if ri == m.cy && ci == m.cx {
				b.WriteString(m.st.cursor.Render(cell))
			} else {
				b.WriteString(cell)
			}
		}
		b.WriteString("\n")
	}
	footer := fmt.Sprintf("row %d/%d · col %d/%d", m.cy+1, store.Len(), m.cx+1, len(cols))
	if visStart > 0 || visEnd < len(cols) {
		footer += fmt.Sprintf(" · showing cols %d-%d", visStart+1, visEnd)
	}
	b.WriteString(m.st.dim.Render(footer))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderMainChart() string {
	if note := m.ctrl.ChartNote(); note != "" {
		return m.st.warn.Render("⚠ "+note) + "\n"
	}
	h := m.ctrl.MainChart()
	if h == nil {
		return ""
	}
	text, err := h.Text(m.width - 2)
	if err != nil {
		return m.st.err.Render("✗ "+err.Error()) + "\n"
	}
	return text + "\n"
}

// --- Insights ---

func (m Model) viewInsights() string {
	if m.ctrl.Store().Empty() {
		return m.st.dim.Render("Load a dataset to see column insights.") + "\n"
	}
	var b strings.Builder
	picker := m.ctrl.Picker()
	parts := make([]string, 0, len(picker.Columns()))
	for _, c := range picker.Columns() {
		if c == picker.Selected() {
			parts = append(parts, m.st.activeTab.Render(c))
		} else {
			parts = append(parts, m.st.inactiveTab.Render(c))
		}
	}
	b.WriteString(m.st.dim.Render("Column (←/→): "))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	b.WriteString("\n\n")

	res := m.ctrl.Insight()
	if res == nil {
		b.WriteString(m.st.dim.Render("Select a column to analyze."))
		return b.String() + "\n"
	}
	cards := make([]string, 0, 4)
	for _, c := range res.Cards() {
		cards = append(cards, m.metricCard(c.Label, c.Value))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n")
	if h := m.ctrl.InsightsChart(); h != nil {
		if text, err := h.Text(m.width - 2); err == nil {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", m.st.cardTitle.Render(label), m.st.cardValue.Render(value))
	return m.st.card.Render(content)
}

// --- History ---

func (m Model) viewHistory() string {
	recs := m.ctrl.History()
	if len(recs) == 0 {
		return m.st.dim.Render("No history yet. Press s to save the current dataset and start a new one.") + "\n"
	}
	const (
		timeW = 10
		rowsW = 8
		badge = "Cleaned"
	)
	nameW := max(12, min(40, m.width-timeW-rowsW-len(badge)-12))
	var b strings.Builder
	b.WriteString(m.st.header.Render(fmt.Sprintf(" %-*s %-*s %*s  %s ", timeW, "Time", nameW, "File", rowsW, "Rows", "Status")))
	b.WriteString("\n")
	for i, r := range recs {
		line := fmt.Sprintf(" %-*s %s %*d  ", timeW, r.Timestamp, fit(r.FileName, nameW), rowsW, r.Rows)
		if i == m.histCursor {
			b.WriteString(m.st.cursor.Render(line + badge + " "))
		} else {
			b.WriteString(line + m.st.badge.Render(badge))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.st.dim.Render("enter load · d download csv · A archive all"))
	b.WriteString("\n")
	return b.String()
}

// fit truncates or pads s to exactly width terminal cells.
func fit(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
