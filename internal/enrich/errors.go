package enrich

import "fmt"

// RowError is an unexpected failure confined to one row. The run controller
// logs it, flags the section's output as incomplete (notifying once per
// section), and moves on to the next row.
type RowError struct {
	Row   int
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// SectionError is a failure that escapes per-row handling. The run
// controller flushes a partial output with an incomplete marker and moves
// to the next role/section instead of aborting the run.
type SectionError struct {
	Row int
	Err error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *SectionError) Unwrap() error { return e.Err }
