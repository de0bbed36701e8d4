// Package session is the application state behind the dashboard. It owns the
// live dataset, the history, the chart handles and the upload in flight, and
// keeps the derived views in step with the dataset.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datawash-cli/internal/chart"
	"github.com/KaramelBytes/datawash-cli/internal/dataset"
	"github.com/KaramelBytes/datawash-cli/internal/export"
	"github.com/KaramelBytes/datawash-cli/internal/history"
	"github.com/KaramelBytes/datawash-cli/internal/insights"
	"github.com/KaramelBytes/datawash-cli/internal/upload"
)

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrEmptyDataset   = errors.New("no data loaded")
	ErrRecordNotFound = errors.New("history record not found")
	ErrEmptyUpload    = errors.New("cleaned file has no rows")
	ErrNoChart        = errors.New("no chart to export")
)

// NoNumericColumn is shown in place of the chart when nothing can be plotted.
const NoNumericColumn = "no numeric column to chart"

// Section is one of the dashboard tabs.
type Section string

const (
	SectionCleaner  Section = "cleaner"
	SectionInsights Section = "insights"
	SectionHistory  Section = "history"
)

// Sections lists the tabs in display order.
var Sections = []Section{SectionCleaner, SectionInsights, SectionHistory}

// ParseSection maps a tab name to a Section.
func ParseSection(name string) (Section, error) {
	for _, s := range Sections {
		if string(s) == strings.ToLower(strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// Level grades a status message.
type Level int

const (
	LevelInfo Level = iota
	LevelOK
	LevelWarn
	LevelError
)

// Status is the one-line message under the header.
type Status struct {
	Level Level
	Text  string
}

func (s Status) String() string {
	switch s.Level {
	case LevelOK:
		return "✓ " + s.Text
	case LevelWarn:
		return "⚠ " + s.Text
	case LevelError:
		return "✗ " + s.Text
	}
	return s.Text
}

// Stats describes the dataset on screen. After a history load the duplicate
// count is unknown.
type Stats struct {
	upload.Stats
	DuplicatesKnown bool
}

func (s Stats) Line() string {
	dup := "-"
	if s.DuplicatesKnown {
		dup = fmt.Sprint(s.Duplicates)
	}
	line := fmt.Sprintf("Rows: %d | Cols: %d | Duplicates removed: %s", s.Rows, s.Cols, dup)
	if s.DuplicatesKnown {
		line += fmt.Sprintf(" | Missing filled: %d", s.MissingFilled)
	}
	return line
}

// Options configures a Controller.
type Options struct {
	Logger   *slog.Logger
	Uploader upload.Uploader
	History  *history.Store
}

// Controller is the single owner of dashboard state. All methods except
// RunUpload must be called from the UI loop.
type Controller struct {
	log      *slog.Logger
	store    *dataset.Store
	history  *history.Store
	uploader upload.Uploader
	coord    upload.Coordinator

	mainChart     chart.Host
	insightsChart chart.Host
	selection     chart.Selection
	chartNote     string

	picker  insights.Picker
	insight *insights.Result

	fileName     string
	stats        Stats
	hasStats     bool
	section      Section
	scroll       int
	status       Status
	tableVersion uint64
	uploading    string
}

func New(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	hs := opts.History
	if hs == nil {
		hs = history.NewStore()
	}
	c := &Controller{
		log:      log.With("component", "session"),
		store:    dataset.NewStore(),
		history:  hs,
		uploader: opts.Uploader,
		section:  SectionCleaner,
		fileName: "data.csv",
	}
	c.store.Subscribe(c)
	return c
}

// OnEvent keeps the derived views in step with the store. Cell edits only
// re-bind the chart data; everything else rebuilds the grid and the chart.
func (c *Controller) OnEvent(e dataset.Event) {
	c.log.Debug("dataset changed", "kind", e.Kind, "row", e.Row, "column", e.Column, "rows", e.Rows)
	if e.Light() {
		c.rebindMainChart()
		return
	}
	c.tableVersion++
	if e.Kind == dataset.EventReset {
		// the next dataset may reuse the column count with other names
		c.picker.Clear()
	}
	c.rebuildMainChart()
	if c.section == SectionInsights {
		c.refreshInsights()
	}
}

func (c *Controller) rebuildMainChart() {
	ds := c.store.Get()
	if ds.Empty() {
		c.mainChart.Release()
		c.chartNote = ""
		return
	}
	sel, ok := chart.Select(ds)
	if !ok {
		c.mainChart.Release()
		c.chartNote = NoNumericColumn
		return
	}
	c.selection = sel
	c.chartNote = ""
	c.mainChart.Acquire(chart.BarSpec(ds, sel))
}

// rebindMainChart re-runs the column choice against the edited first row.
// Only an unchanged choice keeps the handle and swaps its data.
func (c *Controller) rebindMainChart() {
	ds := c.store.Get()
	sel, ok := chart.Select(ds)
	if !ok {
		c.mainChart.Release()
		c.chartNote = NoNumericColumn
		return
	}
	if c.mainChart.Current() == nil || sel != c.selection {
		c.rebuildMainChart()
		return
	}
	labels, values := chart.Series(ds, sel)
	if err := c.mainChart.Rebind(labels, values); err != nil {
		c.log.Warn("chart rebind failed", "err", err)
	}
}

// Accessors used by the views.

func (c *Controller) Store() *dataset.Store { return c.store }
func (c *Controller) Section() Section { return c.section }
func (c *Controller) Scroll() int { return c.scroll }
func (c *Controller) SetScroll(n int) { c.scroll = max(0, n) }
func (c *Controller) Status() Status { return c.status }
func (c *Controller) FileName() string { return c.fileName }
func (c *Controller) TableVersion() uint64 { return c.tableVersion }
func (c *Controller) MainChart() *chart.Handle { return c.mainChart.Current() }
func (c *Controller) ChartNote() string { return c.chartNote }
func (c *Controller) Insight() *insights.Result { return c.insight }
func (c *Controller) InsightsChart() *chart.Handle { return c.insightsChart.Current() }
func (c *Controller) Picker() *insights.Picker { return &c.picker }
func (c *Controller) History() []history.Record { return c.history.List() }
func (c *Controller) Loading() bool { return c.coord.InFlight() }
func (c *Controller) UploadingFile() string { return c.uploading }

// Stats returns the figures for the loaded dataset, if any.
func (c *Controller) Stats() (Stats, bool) { return c.stats, c.hasStats }

func (c *Controller) setStatus(level Level, format string, args ...any) {
	c.status = Status{Level: level, Text: fmt.Sprintf(format, args...)}
}

// Warn records a warning raised by a view, such as a rejected edit.
func (c *Controller) Warn(err error) {
	c.setStatus(LevelWarn, "%v", err)
}

// SwitchTab activates exactly one section and scrolls back to the top.
func (c *Controller) SwitchTab(name string) error {
	sec, err := ParseSection(name)
	if err != nil {
		return err
	}
	prev := c.section
	c.section = sec
	c.scroll = 0
	switch sec {
	case SectionInsights:
		c.refreshInsights()
	case SectionHistory:
		c.log.Debug("history refreshed", "records", c.history.Len())
	}
	c.log.Info("tab switched", "from", prev, "to", sec)
	return nil
}

// refreshInsights rebuilds the column picker when the column count changed
// and re-analyzes the selected column.
func (c *Controller) refreshInsights() {
	if c.store.Empty() {
		c.insight = nil
		c.insightsChart.Release()
		return
	}
	if c.picker.Sync(c.store.Columns()) {
		c.log.Debug("insights columns rebuilt", "columns", len(c.picker.Columns()))
	}
	if err := c.analyze(c.picker.Selected()); err != nil {
		c.setStatus(LevelWarn, "insights: %v", err)
	}
}

// SelectColumn analyzes column name on the insights tab.
func (c *Controller) SelectColumn(name string) error {
	if c.store.Empty() {
		return ErrEmptyDataset
	}
	if !c.picker.Select(name) {
		return fmt.Errorf("%w: %q", insights.ErrUnknownColumn, name)
	}
	return c.analyze(name)
}

// StepColumn moves the insights selection and analyzes the new column.
func (c *Controller) StepColumn(delta int) error {
	if c.store.Empty() {
		return ErrEmptyDataset
	}
	return c.analyze(c.picker.Step(delta))
}

func (c *Controller) analyze(col string) error {
	res, err := insights.Analyze(c.store.Get(), col)
	if err != nil {
		c.insight = nil
		c.insightsChart.Release()
		return err
	}
	c.insight = &res
	c.insightsChart.Acquire(chart.InsightsSpec(res))
	c.log.Debug("column analyzed", "column", col, "kind", res.Kind)
	return nil
}

// BeginUpload supersedes any upload in flight and returns the ticket for
// path. The dataset on screen stays untouched until ApplyUpload.
func (c *Controller) BeginUpload(ctx context.Context, path string) (upload.Ticket, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return upload.Ticket{}, errors.New("no file selected")
	}
	if c.uploader == nil {
		return upload.Ticket{}, errors.New("no upload endpoint configured")
	}
	superseded := c.coord.InFlight()
	t := c.coord.Start(ctx)
	c.uploading = filepath.Base(path)
	c.setStatus(LevelInfo, "Uploading %s…", c.uploading)
	c.log.Info("upload started", "file", c.uploading, "generation", t.Gen, "superseded", superseded)
	return t, nil
}

// RunUpload performs the upload for t. It blocks and may run off the UI loop.
func (c *Controller) RunUpload(t upload.Ticket, path string) upload.Outcome {
	return c.coord.Run(t, c.uploader, path)
}

// ApplyUpload takes a finished upload. Results of superseded or cancelled
// tickets are dropped and reported as not applied. A failed upload leaves the
// previous dataset in place.
func (c *Controller) ApplyUpload(out upload.Outcome) (bool, error) {
	if !c.coord.Accept(out.Ticket) {
		c.log.Info("stale upload discarded", "generation", out.Ticket.Gen)
		return false, nil
	}
	name := c.uploading
	c.uploading = ""
	if out.Err != nil {
		if errors.Is(out.Err, context.Canceled) {
			c.setStatus(LevelWarn, "Upload of %s cancelled", name)
		} else {
			c.setStatus(LevelError, "%v", out.Err)
		}
		c.log.Warn("upload failed", "file", name, "err", out.Err)
		return true, out.Err
	}
	res := out.Result
	if res == nil || len(res.Rows) == 0 {
		c.setStatus(LevelError, "%v", ErrEmptyUpload)
		c.log.Warn("upload returned no rows", "file", name)
		return true, ErrEmptyUpload
	}
	if res.FileName != "" {
		name = res.FileName
	}
	c.fileName = name
	c.stats = Stats{Stats: res.Stats, DuplicatesKnown: true}
	c.hasStats = true
	c.section = SectionCleaner
	c.scroll = 0
	c.store.Load(res.Rows)
	c.setStatus(LevelOK, "Cleaned %s: %d rows", name, c.store.Len())
	c.log.Info("upload applied", "file", name, "rows", c.store.Len(), "request_id", res.RequestID)
	return true, nil
}

// CancelUpload aborts the upload in flight.
func (c *Controller) CancelUpload() bool {
	if !c.coord.Cancel() {
		return false
	}
	c.setStatus(LevelWarn, "Upload of %s cancelled", c.uploading)
	c.log.Info("upload cancelled", "file", c.uploading)
	c.uploading = ""
	return true
}

func (c *Controller) UpdateCell(row int, column, raw string) error {
	if err := c.store.UpdateCell(row, column, raw); err != nil {
		c.Warn(err)
		return err
	}
	c.log.Debug("cell updated", "row", row, "column", column)
	return nil
}

func (c *Controller) DeleteRow(row int) error {
	if err := c.store.DeleteRow(row); err != nil {
		c.Warn(err)
		return err
	}
	c.setStatus(LevelInfo, "Row %d deleted", row+1)
	c.log.Info("row deleted", "row", row, "rows", c.store.Len())
	return nil
}

func (c *Controller) AddRow() error {
	if !c.store.AddRow() {
		c.Warn(ErrEmptyDataset)
		return ErrEmptyDataset
	}
	c.setStatus(LevelInfo, "Row %d added", c.store.Len())
	c.log.Info("row added", "rows", c.store.Len())
	return nil
}

// SaveAndReset moves the live dataset into history and clears the table.
func (c *Controller) SaveAndReset() (history.Record, error) {
	rec, ok := c.history.Commit(c.store.Get(), c.fileName)
	if !ok {
		c.setStatus(LevelWarn, "Nothing to save: %v", ErrEmptyDataset)
		return history.Record{}, ErrEmptyDataset
	}
	c.store.Reset()
	c.hasStats = false
	c.stats = Stats{}
	c.insight = nil
	c.insightsChart.Release()
	c.setStatus(LevelOK, "Saved %s to history", rec.FileName)
	c.log.Info("dataset saved", "id", rec.ID, "file", rec.FileName, "rows", rec.Rows)
	return rec, nil
}

// LoadFromHistory copies a record back into the live dataset.
func (c *Controller) LoadFromHistory(id int64) error {
	rec, ok := c.history.Find(id)
	if !ok {
		c.setStatus(LevelError, "%v: %d", ErrRecordNotFound, id)
		return fmt.Errorf("%w: %d", ErrRecordNotFound, id)
	}
	c.fileName = rec.FileName
	c.stats = Stats{Stats: upload.Stats{Rows: rec.Data.Len(), Cols: rec.Data.NumCols()}}
	c.hasStats = true
	c.section = SectionCleaner
	c.scroll = 0
	c.store.Load(rec.Data.Rows)
	c.setStatus(LevelOK, "Loaded %s from history", rec.FileName)
	c.log.Info("history loaded", "id", id, "file", rec.FileName)
	return nil
}

// Download writes the live dataset as CSV under dir.
func (c *Controller) Download(dir string) (string, error) {
	return c.DownloadAs(dir, export.DefaultFileName)
}

// DownloadAs is Download with a chosen file name.
func (c *Controller) DownloadAs(dir, name string) (string, error) {
	return c.download(dir, name, c.store.Get())
}

// DownloadHistoryItem writes a history record as CSV under dir.
func (c *Controller) DownloadHistoryItem(id int64, dir string) (string, error) {
	rec, ok := c.history.Find(id)
	if !ok {
		c.setStatus(LevelError, "%v: %d", ErrRecordNotFound, id)
		return "", fmt.Errorf("%w: %d", ErrRecordNotFound, id)
	}
	return c.download(dir, rec.FileName, rec.Data)
}

func (c *Controller) download(dir, name string, ds dataset.Dataset) (string, error) {
	if ds.Empty() {
		c.setStatus(LevelWarn, "Nothing to download: %v", ErrEmptyDataset)
		return "", ErrEmptyDataset
	}
	path, err := export.WriteCSV(dir, name, ds)
	if err != nil {
		c.setStatus(LevelError, "download failed: %v", err)
		return "", err
	}
	c.setStatus(LevelOK, "Saved %s", path)
	c.log.Info("csv written", "path", path, "rows", ds.Len())
	return path, nil
}

// ExportArchive writes every history record to an lz4 archive under dir.
func (c *Controller) ExportArchive(dir string) (string, error) {
	recs := c.history.List()
	if len(recs) == 0 {
		c.setStatus(LevelWarn, "History is empty")
		return "", export.ErrEmpty
	}
	path, err := export.WriteArchive(dir, recs)
	if err != nil {
		c.setStatus(LevelError, "archive failed: %v", err)
		return "", err
	}
	c.setStatus(LevelOK, "Archived %d records to %s", len(recs), path)
	c.log.Info("history archived", "path", path, "records", len(recs))
	return path, nil
}

// ExportChart renders the chart of the current tab to an image under dir.
func (c *Controller) ExportChart(dir string, format chart.Format) (string, error) {
	h, name := c.mainChart.Current(), "datawash_chart."
	if c.section == SectionInsights {
		h, name = c.insightsChart.Current(), "datawash_insights."
	}
	if h == nil {
		c.setStatus(LevelWarn, "%v", ErrNoChart)
		return "", ErrNoChart
	}
	var buf bytes.Buffer
	if err := h.Render(&buf, format); err != nil {
		c.setStatus(LevelError, "%v", err)
		return "", err
	}
	path, err := export.WriteUnique(dir, name+string(format), buf.Bytes())
	if err != nil {
		c.setStatus(LevelError, "chart export failed: %v", err)
		return "", err
	}
	c.setStatus(LevelOK, "Chart saved to %s", path)
	c.log.Info("chart exported", "path", path, "format", format)
	return path, nil
}
