package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/tabular"
)

func TestResolveColumns(t *testing.T) {
	header := []string{
		"County", "State", "Contact First Name", "Contact Last Name",
		"Role / Title", "Email", "Phone Number", "Contact LinkedIn Profile",
	}

	cols := ResolveColumns(header)

	assert.Equal(t, 0, cols.Col(FieldCountyCity))
	assert.Equal(t, 1, cols.Col(FieldState))
	assert.Equal(t, 2, cols.Col(FieldFirstName))
	assert.Equal(t, 3, cols.Col(FieldLastName))
	assert.Equal(t, 4, cols.Col(FieldRoleTitle))
	assert.Equal(t, 5, cols.Col(FieldEmail))
	assert.Equal(t, 6, cols.Col(FieldPhone))
	assert.Equal(t, 7, cols.Col(FieldLinkedIn))
	assert.True(t, cols.HasMandatory())
}

func TestResolveColumnsCaseAndSpacing(t *testing.T) {
	cols := ResolveColumns([]string{"COUNTY/CITY", "eMail", "ROLE/TITLE", "Province or State"})

	assert.Equal(t, 0, cols.Col(FieldCountyCity))
	assert.Equal(t, 1, cols.Col(FieldEmail))
	assert.Equal(t, 2, cols.Col(FieldRoleTitle))
	assert.Equal(t, 3, cols.Col(FieldState))
}

func TestResolveColumnsFirstMatchWins(t *testing.T) {
	cols := ResolveColumns([]string{"Email", "Contact Email", "County", "City/County"})

	assert.Equal(t, 0, cols.Col(FieldEmail))
	assert.Equal(t, 2, cols.Col(FieldCountyCity))
}

func TestResolveColumnsUnknownHeader(t *testing.T) {
	cols := ResolveColumns([]string{"Widget", "Gadget"})

	assert.False(t, cols.Has(FieldEmail))
	assert.Equal(t, -1, cols.Col(FieldEmail))
	assert.False(t, cols.HasMandatory())
}

func TestResolveWithRecoveryCSV(t *testing.T) {
	// Header on row 2; rows 0 and 1 are an export banner.
	content := "Export,,\nGenerated 2024,,\nCounty,State,Email\nBrevard,Florida,a@b.gov\n"
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	wb, err := tabular.Load(path)
	require.NoError(t, err)

	// Simulate a section whose detected header is the banner row.
	sec := &Section{
		Name:      "Sheet1",
		SheetName: "Sheet1",
		Header:    wb.Tables[0].Rows[0],
		Rows:      wb.Tables[0].Rows[1:],
	}

	cols, skip := ResolveWithRecovery(sec, wb)
	assert.Equal(t, 2, skip)
	assert.True(t, cols.HasMandatory())
	assert.Equal(t, []string{"County", "State", "Email"}, sec.Header)
	require.Len(t, sec.Rows, 1)
	assert.Equal(t, "Brevard", sec.Rows[0][0])
}

func TestResolveWithRecoveryGivesUpAfterFourOffsets(t *testing.T) {
	content := "a,,\nb,,\nc,,\nd,,\ne,,\nf,,\nCounty,State,Email\n"
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	wb, err := tabular.Load(path)
	require.NoError(t, err)

	sec := &Section{
		Header: wb.Tables[0].Rows[0],
		Rows:   wb.Tables[0].Rows[1:],
	}

	cols, skip := ResolveWithRecovery(sec, wb)
	assert.Equal(t, 0, skip)
	assert.False(t, cols.HasMandatory())
}

func TestResolveWithRecoveryNonCSV(t *testing.T) {
	wb := &tabular.Workbook{Path: "in.xlsx", Ext: ".xlsx"}
	sec := &Section{Header: []string{"Widget"}}

	cols, skip := ResolveWithRecovery(sec, wb)
	assert.Equal(t, 0, skip)
	assert.False(t, cols.HasMandatory())
}
