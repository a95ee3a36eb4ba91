// Package run drives whole-file enrichment: loading, section splitting,
// role selection, per-role enrichment, and output writing, with cooperative
// cancellation through run supersession.
package run

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/sheet"
)

// Prompt is everything a gate needs to ask the operator what to do with a
// section: its identity, a preview, and the resolved columns so overrides
// can be offered.
type Prompt struct {
	SectionName string
	SheetName   string
	Header      []string
	SampleRows  [][]string
	Columns     sheet.ColumnMap

	// ObservedState is the first non-blank state cell of the section, or
	// "unknown"; shown so the operator knows which region they are deciding
	// for.
	ObservedState string

	// SkipOffset is non-zero when the header was only found by re-reading
	// the file with leading rows skipped; shown so the operator can sanity
	// check the recovery.
	SkipOffset int
}

// Decision is the operator's answer for one section. No roles means skip.
type Decision struct {
	Roles []enrich.Role

	// Sticky pins this decision for every later section of the same sheet.
	Sticky bool

	// Overrides remaps fields to explicit column indices, replacing what
	// the resolver detected.
	Overrides map[sheet.Field]int
}

// Skip reports whether the decision enriches nothing.
func (d *Decision) Skip() bool {
	return d == nil || len(d.Roles) == 0
}

// Gate decides, per section, which roles to enrich. The interactive gate
// blocks on a terminal form; tests substitute a scripted one.
type Gate interface {
	Choose(ctx context.Context, p Prompt) (*Decision, error)
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, p Prompt) (*Decision, error)

func (f GateFunc) Choose(ctx context.Context, p Prompt) (*Decision, error) {
	return f(ctx, p)
}
