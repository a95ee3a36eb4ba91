package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("a,b,c\n1,2,3\n4,5\n"), 0o644))

	wb, err := Load(path)
	require.NoError(t, err)

	assert.True(t, wb.IsCSV())
	require.Len(t, wb.Tables, 1)
	assert.Equal(t, "Sheet1", wb.Tables[0].Name)
	require.Len(t, wb.Tables[0].Rows, 3)
	// Ragged rows are preserved as-is.
	assert.Equal(t, []string{"4", "5"}, wb.Tables[0].Rows[2])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestReadCSVSkipping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("banner\nheader,row\n1,2\n"), 0o644))

	rows, err := ReadCSVSkipping(path, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"header", "row"}, rows[0])
}

func TestWriteReadRoundTripCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	header := []string{"County", "Email"}
	rows := [][]string{
		{"Brevard", "a@b.gov"},
		{"St. John's", "quoted, comma"},
	}

	require.NoError(t, Write(path, header, rows))

	wb, err := Load(path)
	require.NoError(t, err)
	got := wb.Tables[0].Rows
	require.Len(t, got, 3)
	assert.Equal(t, header, got[0])
	assert.Equal(t, rows[0], got[1])
	assert.Equal(t, rows[1], got[2])
}

func TestWriteReadRoundTripXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	header := []string{"County", "Email"}
	rows := [][]string{{"Brevard", "a@b.gov"}}

	require.NoError(t, Write(path, header, rows))

	wb, err := Load(path)
	require.NoError(t, err)
	assert.False(t, wb.IsCSV())
	require.Len(t, wb.Tables, 1)
	got := wb.Tables[0].Rows
	require.Len(t, got, 2)
	assert.Equal(t, header, got[0])
	assert.Equal(t, rows[0], got[1])
}
