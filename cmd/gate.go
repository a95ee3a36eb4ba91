package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/run"
	"github.com/sells-group/outreach-cli/internal/sheet"
)

// terminalGate asks the operator, per section, which roles to enrich, using
// an interactive terminal form.
type terminalGate struct{}

func (terminalGate) Choose(ctx context.Context, p run.Prompt) (*run.Decision, error) {
	var picks []int
	var sticky, adjust bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Section %s (state: %s)", p.SectionName, p.ObservedState)).
				Description(sectionPreview(p)),
			huh.NewMultiSelect[int]().
				Title("Roles to enrich").
				Description("Select none to skip this section").
				Options(
					huh.NewOption(enrich.RoleGIS.String(), int(enrich.RoleGIS)),
					huh.NewOption(enrich.RoleMayor.String(), int(enrich.RoleMayor)),
					huh.NewOption(enrich.RoleAssessor.String(), int(enrich.RoleAssessor)),
				).
				Value(&picks),
			huh.NewConfirm().
				Title("Apply this choice to the rest of the sheet?").
				Value(&sticky),
			huh.NewConfirm().
				Title("Adjust detected columns?").
				Value(&adjust),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return nil, eris.Wrap(err, "gate: role form")
	}

	d := &run.Decision{Sticky: sticky}
	for _, v := range picks {
		role, err := enrich.ParseRole(v)
		if err != nil {
			return nil, err
		}
		d.Roles = append(d.Roles, role)
	}

	if adjust && !d.Skip() {
		overrides, err := columnOverrideForm(ctx, p)
		if err != nil {
			return nil, err
		}
		d.Overrides = overrides
	}

	return d, nil
}

// overridableFields are the fields the operator can remap when detection
// picked the wrong column.
var overridableFields = []sheet.Field{
	sheet.FieldCountyCity, sheet.FieldEmail, sheet.FieldFirstName,
	sheet.FieldLastName, sheet.FieldPhone, sheet.FieldState,
}

// columnOverrideForm offers one select per field over the section's header
// columns. Keeping the detected column leaves the field out of the result.
func columnOverrideForm(ctx context.Context, p run.Prompt) (map[sheet.Field]int, error) {
	const keep = -1

	options := []huh.Option[int]{huh.NewOption("(keep detected)", keep)}
	for i, h := range p.Header {
		label := strings.TrimSpace(h)
		if label == "" {
			label = "(blank)"
		}
		options = append(options, huh.NewOption(fmt.Sprintf("%d: %s", i, label), i))
	}

	chosen := make([]int, len(overridableFields))
	var fields []huh.Field
	for i, f := range overridableFields {
		chosen[i] = keep
		detected := "not detected"
		if p.Columns.Has(f) {
			detected = fmt.Sprintf("column %d", p.Columns.Col(f))
		}
		fields = append(fields, huh.NewSelect[int]().
			Title(string(f)).
			Description(fmt.Sprintf("Detected: %s", detected)).
			Options(options...).
			Value(&chosen[i]))
	}

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.RunWithContext(ctx); err != nil {
		return nil, eris.Wrap(err, "gate: column form")
	}

	overrides := make(map[sheet.Field]int)
	for i, f := range overridableFields {
		if chosen[i] != keep {
			overrides[f] = chosen[i]
		}
	}
	if len(overrides) == 0 {
		return nil, nil
	}
	return overrides, nil
}

// sectionPreview renders the header and the first sample rows for the form.
func sectionPreview(p run.Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sheet %s, %d columns\n", p.SheetName, len(p.Header))
	if p.SkipOffset > 0 {
		fmt.Fprintf(&b, "Header recovered by skipping %d leading rows\n", p.SkipOffset)
	}
	b.WriteString(previewRow(p.Header))
	for _, row := range p.SampleRows {
		b.WriteString(previewRow(row))
	}
	return b.String()
}

func previewRow(cells []string) string {
	shown := cells
	if len(shown) > 6 {
		shown = shown[:6]
	}
	out := make([]string, len(shown))
	for i, c := range shown {
		c = strings.TrimSpace(c)
		if len(c) > 18 {
			c = c[:15] + "..."
		}
		out[i] = c
	}
	return strings.Join(out, " | ") + "\n"
}
