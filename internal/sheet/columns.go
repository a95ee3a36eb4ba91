package sheet

import (
	"strings"

	"github.com/sells-group/outreach-cli/internal/tabular"
)

// Field names the semantic columns the enrichment engine reads and writes.
type Field string

// The closed field set. CountyCity and Email are mandatory; a section whose
// header resolves neither cannot be enriched.
const (
	FieldCountyCity Field = "County/City"
	FieldEmail      Field = "Email"
	FieldPhone      Field = "Phone Number"
	FieldFirstName  Field = "First Name"
	FieldLastName   Field = "Last Name"
	FieldRoleTitle  Field = "Role/Title"
	FieldState      Field = "State"
	FieldLinkedIn   Field = "LinkedIn"
	FieldTag        Field = "Tag"
	FieldContactTag Field = "Contact Tag"
)

// FieldOrder is the display/iteration order for the field set.
var FieldOrder = []Field{
	FieldCountyCity, FieldEmail, FieldPhone, FieldFirstName, FieldLastName,
	FieldRoleTitle, FieldState, FieldLinkedIn, FieldTag, FieldContactTag,
}

// ColumnMap maps semantic fields to column indices in a section's header.
// Absent fields have no entry.
type ColumnMap map[Field]int

// Has reports whether the field resolved to a column.
func (m ColumnMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Col returns the column index for a field, or -1 when absent.
func (m ColumnMap) Col(f Field) int {
	if c, ok := m[f]; ok {
		return c
	}
	return -1
}

// HasMandatory reports whether both County/City and Email resolved.
func (m ColumnMap) HasMandatory() bool {
	return m.Has(FieldCountyCity) && m.Has(FieldEmail)
}

// Clone returns a copy of the map.
func (m ColumnMap) Clone() ColumnMap {
	c := make(ColumnMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Aliases matched on the lowercased header text.
var exactAliases = map[Field][]string{
	FieldCountyCity: {"county", "county/city", "city/county"},
	FieldEmail:      {"email", "contact email"},
	FieldPhone:      {"number", "phone number", "contact phone number", "contact number", "contact phone"},
	FieldFirstName:  {"first name", "contact first name", "first"},
	FieldLastName:   {"last name", "contact last name", "last", "surname"},
}

// Aliases matched after stripping all whitespace, for fields whose spellings
// vary in spacing and punctuation.
var normalizedAliases = map[Field][]string{
	FieldRoleTitle:  {"position", "role", "title", "role/title", "title/role"},
	FieldState:      {"state", "province", "state/province", "province/state", "provinceorstate"},
	FieldLinkedIn:   {"contactlinkedinprofile", "contactlinkedin", "linkedin", "linkedinprofile"},
	FieldTag:        {"tag"},
	FieldContactTag: {"contacttag"},
}

// ResolveColumns maps the field set onto a header row. Matching is
// case-insensitive with two passes per column: exact lowercase aliases, then
// whitespace-stripped aliases. The leftmost matching column wins; later
// duplicates are ignored.
func ResolveColumns(header []string) ColumnMap {
	cols := make(ColumnMap)

	for idx, name := range header {
		lower := strings.ToLower(name)
		normalized := strings.Join(strings.Fields(lower), "")

		for field, aliases := range exactAliases {
			if cols.Has(field) {
				continue
			}
			if containsString(aliases, lower) {
				cols[field] = idx
			}
		}
		for field, aliases := range normalizedAliases {
			if cols.Has(field) {
				continue
			}
			if containsString(aliases, normalized) {
				cols[field] = idx
			}
		}
	}

	return cols
}

// ResolveWithRecovery resolves a section's columns, and when a mandatory
// field is missing on a CSV source, retries by re-reading the whole file
// with the header assumed at row offsets 1 through 4. On a successful
// retry the section's header and rows are replaced with the re-read data.
// Non-CSV sources cannot be re-read per section; the partial map is
// returned as-is and the caller skips the section.
func ResolveWithRecovery(sec *Section, wb *tabular.Workbook) (ColumnMap, int) {
	cols := ResolveColumns(sec.Header)
	if cols.HasMandatory() || !wb.IsCSV() {
		return cols, 0
	}

	for skip := 1; skip <= 4; skip++ {
		rows, err := tabular.ReadCSVSkipping(wb.Path, skip)
		if err != nil || len(rows) == 0 {
			break
		}
		retry := ResolveColumns(rows[0])
		if retry.HasMandatory() {
			sec.Header = rows[0]
			sec.Rows = rows[1:]
			return retry, skip
		}
	}

	return cols, 0
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
