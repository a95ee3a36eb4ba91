package run

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/sheet"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/internal/tabular"
	"github.com/sells-group/outreach-cli/pkg/openai"
)

// State is the controller's observable lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateAwaitingRoleChoice
	StateEnriching
	StateWriting
	StateDone
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateAwaitingRoleChoice:
		return "awaiting role choice"
	case StateEnriching:
		return "enriching"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrSuperseded reports that a newer run (or a cancel request) replaced the
// one in flight. The superseded run flushes its current section as
// incomplete and stops; nothing it wrote afterward exists.
var ErrSuperseded = errors.New("run: superseded")

// Stats are the aggregate counters for one run.
type Stats struct {
	SectionsEnriched int
	SectionsSkipped  int
	RowsProcessed    int
	RowsSkipped      int
	FilesWritten     []string
	FilesIncomplete  int
}

// Controller owns run identity and drives a whole input file through the
// pipeline. Every row boundary checks whether the run is still current, so a
// newer run or a cancel request takes effect within one row's worth of work.
type Controller struct {
	engine  *enrich.Engine
	gate    Gate
	history store.Store // nil disables run recording
	outDir  string
	now     func() time.Time

	seq   atomic.Int64
	state atomic.Int32

	mu      sync.Mutex
	cancel  context.CancelFunc
	choices map[string]*Decision // sticky, keyed by sheet name
}

// Option configures the controller.
type Option func(*Controller)

// WithHistory records runs and written files to a store.
func WithHistory(st store.Store) Option {
	return func(c *Controller) {
		c.history = st
	}
}

// WithOutputDir places output files in dir instead of beside the input.
func WithOutputDir(dir string) Option {
	return func(c *Controller) {
		c.outDir = dir
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a run controller.
func NewController(engine *enrich.Engine, gate Gate, opts ...Option) *Controller {
	c := &Controller{
		engine:  engine,
		gate:    gate,
		now:     time.Now,
		choices: make(map[string]*Decision),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
}

// Cancel supersedes the run in flight, if any. The running goroutine notices
// at its next row boundary, flushes the current section as incomplete, and
// returns ErrSuperseded. A worker parked at the role-selection gate is
// released immediately through the run context.
func (c *Controller) Cancel() {
	c.seq.Add(1)
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
}

func (c *Controller) begin() int64 {
	return c.seq.Add(1)
}

func (c *Controller) superseded(id int64) bool {
	return c.seq.Load() != id
}

// Run enriches every section of the file at path and returns the run's
// stats. A cancelled run returns partial stats alongside ErrSuperseded.
func (c *Controller) Run(ctx context.Context, path string) (*Stats, error) {
	id := c.begin()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	stats := &Stats{}

	err := c.run(ctx, id, path, stats)
	switch {
	case err == nil:
		c.setState(StateDone)
	case errors.Is(err, ErrSuperseded):
		c.setState(StateCancelled)
	default:
		c.setState(StateFailed)
	}
	return stats, err
}

func (c *Controller) run(ctx context.Context, id int64, path string, stats *Stats) (err error) {
	log := zap.L().With(zap.String("input", path))

	c.setState(StateLoading)
	wb, err := tabular.Load(path)
	if err != nil {
		return err
	}

	var recorded *store.Run
	if c.history != nil {
		var recErr error
		recorded, recErr = c.history.CreateRun(ctx, path)
		if recErr != nil {
			log.Warn("run history unavailable", zap.Error(recErr))
		}
	}
	defer func() { c.finishRecord(recorded, stats, err) }()

	var sections []*sheet.Section
	for _, table := range wb.Tables {
		secs := sheet.Split(table)
		log.Info("sheet split",
			zap.String("sheet", table.Name), zap.Int("sections", len(secs)))
		sections = append(sections, secs...)
	}

	totalRows := 0
	for _, sec := range sections {
		totalRows += len(sec.Rows)
	}
	log.Info("input loaded",
		zap.Int("sections", len(sections)), zap.Int("rows", totalRows))

	for i, sec := range sections {
		if err := c.checkCurrent(ctx, id); err != nil {
			return err
		}
		log.Info("processing section",
			zap.Int("section", i+1), zap.Int("of", len(sections)),
			zap.String("name", sec.Name))
		if err := c.runSection(ctx, id, wb, sec, stats, recorded); err != nil {
			return err
		}
	}

	log.Info("run complete",
		zap.Int("sectionsEnriched", stats.SectionsEnriched),
		zap.Int("rowsProcessed", stats.RowsProcessed),
		zap.Int("filesWritten", len(stats.FilesWritten)))
	return nil
}

func (c *Controller) runSection(ctx context.Context, id int64, wb *tabular.Workbook, sec *sheet.Section, stats *Stats, recorded *store.Run) error {
	log := zap.L().With(zap.String("section", sec.Name))

	cols, skip := sheet.ResolveWithRecovery(sec, wb)
	if !cols.HasMandatory() {
		log.Warn("mandatory columns unresolved, skipping section",
			zap.Strings("header", sec.Header))
		stats.SectionsSkipped++
		return nil
	}
	if skip > 0 {
		log.Info("header recovered by re-reading", zap.Int("rowsSkipped", skip))
	}

	decision, err := c.decide(ctx, id, sec, cols, skip)
	if err != nil {
		return err
	}
	if decision.Skip() {
		log.Info("skipped processing")
		stats.SectionsSkipped++
		return nil
	}
	for f, col := range decision.Overrides {
		cols[f] = col
	}

	c.setState(StateEnriching)
	for _, role := range decision.Roles {
		if err := c.checkCurrent(ctx, id); err != nil {
			return err
		}
		if err := c.enrichSection(ctx, id, wb, sec, cols, role, stats, recorded); err != nil {
			return err
		}
	}
	stats.SectionsEnriched++
	return nil
}

// decide returns the sticky decision pinned for the section's sheet, or
// blocks on the gate. The gate wait runs under the per-run context, so a
// superseding Cancel releases it without operator input.
func (c *Controller) decide(ctx context.Context, id int64, sec *sheet.Section, cols sheet.ColumnMap, skip int) (*Decision, error) {
	c.mu.Lock()
	pinned := c.choices[sec.SheetName]
	c.mu.Unlock()
	if pinned != nil {
		return pinned, nil
	}

	c.setState(StateAwaitingRoleChoice)
	decision, err := c.gate.Choose(ctx, Prompt{
		SectionName:   sec.Name,
		SheetName:     sec.SheetName,
		Header:        sec.Header,
		SampleRows:    sampleRows(sec, 3),
		Columns:       cols.Clone(),
		SkipOffset:    skip,
		ObservedState: observedState(sec, cols),
	})
	if err != nil {
		if c.checkCurrent(ctx, id) != nil {
			return nil, ErrSuperseded
		}
		return nil, eris.Wrap(err, "run: role choice")
	}

	if decision != nil && decision.Sticky {
		c.mu.Lock()
		c.choices[sec.SheetName] = decision
		c.mu.Unlock()
	}
	return decision, nil
}

// enrichSection runs one role over a clone of the section and writes exactly
// one output file, marked incomplete when any row failed or the run was
// superseded partway.
func (c *Controller) enrichSection(ctx context.Context, id int64, wb *tabular.Workbook, sec *sheet.Section, cols sheet.ColumnMap, role enrich.Role, stats *Stats, recorded *store.Run) error {
	log := zap.L().With(zap.String("section", sec.Name), zap.String("role", role.String()))

	work := sec.Clone()
	out := ensureOutputColumns(work, cols)

	incomplete := false
	processed := 0
	for row := range work.Rows {
		if err := c.checkCurrent(ctx, id); err != nil {
			c.writeSection(ctx, wb, work, out, role, true, stats, recorded)
			return err
		}

		status, err := c.engine.EnrichRow(ctx, work, out, role, row)
		switch status {
		case enrich.RowProcessed:
			processed++
			stats.RowsProcessed++
		case enrich.RowSkipped:
			stats.RowsSkipped++
		}
		if err == nil {
			continue
		}

		var rowErr *enrich.RowError
		var secErr *enrich.SectionError
		switch {
		// Connectivity loss fails the run without writing anything new;
		// only files already on disk survive.
		case errors.Is(err, openai.ErrConnectivity):
			log.Error("connection lost, aborting run", zap.Error(err))
			return err
		case errors.As(err, &rowErr):
			if !incomplete {
				log.Warn("row failed; output will be marked incomplete", zap.Error(err))
				incomplete = true
			} else {
				log.Debug("row failed", zap.Error(err))
			}
		case errors.As(err, &secErr):
			log.Error("section failed, flushing partial output", zap.Error(err))
			c.writeSection(ctx, wb, work, out, role, true, stats, recorded)
			return nil
		default:
			return err
		}
	}

	if processed == 0 {
		log.Warn("no processable rows in section")
	}

	c.writeSection(ctx, wb, work, out, role, incomplete, stats, recorded)
	return nil
}

// writeSection flushes one enriched section to disk. Write failures are
// logged rather than propagated so one bad file does not lose the rest of
// the run.
func (c *Controller) writeSection(ctx context.Context, wb *tabular.Workbook, work *sheet.Section, out enrich.Columns, role enrich.Role, incomplete bool, stats *Stats, recorded *store.Run) {
	c.setState(StateWriting)

	name := OutputName(outputState(work, out.Map), role.Tag(), wb.Ext, c.now(), incomplete)
	dir := c.outDir
	if dir == "" {
		dir = filepath.Dir(wb.Path)
	}
	path := filepath.Join(dir, name)

	if err := tabular.Write(path, work.Header, work.Rows); err != nil {
		zap.L().Error("output write failed", zap.String("path", path), zap.Error(err))
		return
	}

	stats.FilesWritten = append(stats.FilesWritten, path)
	if incomplete {
		stats.FilesIncomplete++
	}
	zap.L().Info("output written",
		zap.String("path", path), zap.Bool("incomplete", incomplete))

	if c.history != nil && recorded != nil {
		// The flush of a superseded section happens after the run context is
		// cancelled; the record must still land.
		err := c.history.AddWrittenFile(context.WithoutCancel(ctx), store.WrittenFile{
			RunID:      recorded.ID,
			Section:    work.Name,
			Role:       role.String(),
			Path:       path,
			Incomplete: incomplete,
		})
		if err != nil {
			zap.L().Warn("written file not recorded", zap.Error(err))
		}
	}
}

func (c *Controller) finishRecord(recorded *store.Run, stats *Stats, runErr error) {
	if c.history == nil || recorded == nil {
		return
	}

	status := store.RunStatusComplete
	errText := ""
	switch {
	case errors.Is(runErr, ErrSuperseded):
		status = store.RunStatusCancelled
	case runErr != nil:
		status = store.RunStatusFailed
		errText = runErr.Error()
	}

	// Best effort with a fresh context; the run context may already be done.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.history.FinishRun(ctx, recorded.ID, status, &store.RunStats{
		SectionsEnriched: stats.SectionsEnriched,
		SectionsSkipped:  stats.SectionsSkipped,
		RowsProcessed:    stats.RowsProcessed,
		RowsSkipped:      stats.RowsSkipped,
		FilesWritten:     len(stats.FilesWritten),
		FilesIncomplete:  stats.FilesIncomplete,
	}, errText)
	if err != nil {
		zap.L().Warn("run record not finalized", zap.Error(err))
	}
}

func (c *Controller) checkCurrent(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return ErrSuperseded
	}
	if c.superseded(id) {
		return ErrSuperseded
	}
	return nil
}

// ensureOutputColumns appends (or finds) the engine's output columns on a
// working copy and clears them, along with the mapped contact columns, so
// stale input contacts never leak into output and a re-run never mixes
// stale values with fresh ones.
func ensureOutputColumns(work *sheet.Section, cols sheet.ColumnMap) enrich.Columns {
	out := enrich.Columns{
		Map:                cols.Clone(),
		ContactTag:         work.EnsureColumn("Contact Tag"),
		Source:             work.EnsureColumn("Source"),
		EmailConfidence:    work.EnsureColumn("Email Confidence"),
		AltEmail:           work.EnsureColumn("Alternative Email"),
		AltEmailConfidence: work.EnsureColumn("Alternative Email Confidence"),
		HunterSource:       work.EnsureColumn("Hunter Email Source"),
	}
	for _, col := range []int{
		out.ContactTag, out.Source, out.EmailConfidence,
		out.AltEmail, out.AltEmailConfidence, out.HunterSource,
	} {
		work.ClearColumn(col)
	}
	for _, f := range []sheet.Field{
		sheet.FieldFirstName, sheet.FieldLastName, sheet.FieldEmail,
		sheet.FieldPhone, sheet.FieldRoleTitle, sheet.FieldLinkedIn,
		sheet.FieldContactTag,
	} {
		if cols.Has(f) {
			work.ClearColumn(cols.Col(f))
		}
	}
	return out
}

// outputState picks the state component of the output file name: the first
// non-blank state cell, falling back to the section name.
func outputState(work *sheet.Section, cols sheet.ColumnMap) string {
	if cols.Has(sheet.FieldState) {
		col := cols.Col(sheet.FieldState)
		for row := range work.Rows {
			if v := strings.TrimSpace(work.Cell(row, col)); v != "" {
				return v
			}
		}
	}
	return work.Name
}

// observedState is the state value shown at the role-selection gate: the
// first non-blank state cell, or "unknown" when the section has none.
func observedState(sec *sheet.Section, cols sheet.ColumnMap) string {
	if cols.Has(sheet.FieldState) {
		col := cols.Col(sheet.FieldState)
		for row := range sec.Rows {
			if v := strings.TrimSpace(sec.Cell(row, col)); v != "" {
				return v
			}
		}
	}
	return "unknown"
}

func sampleRows(sec *sheet.Section, n int) [][]string {
	if len(sec.Rows) < n {
		n = len(sec.Rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = append([]string(nil), sec.Rows[i]...)
	}
	return out
}
