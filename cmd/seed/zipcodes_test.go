package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, cells map[string]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for cell, value := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, value))
	}

	path := filepath.Join(t.TempDir(), "zipcodes.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadZipcodesFromXLSX(t *testing.T) {
	path := writeWorkbook(t, map[string]interface{}{
		"A1": "zipcode",
		"A2": "94107",
		"A3": 2134,
		"A4": "94107",
		"A5": "9410a",
		"A6": "",
		"A7": "123456",
		"A8": " 10001 ",
	})

	result, err := readZipcodesFromXLSX(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"94107", "02134", "10001"}, result.Codes)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, []string{`row 5: "9410a"`, `row 7: "123456"`}, result.Invalid)
}

func TestReadZipcodesFromXLSX_MissingFile(t *testing.T) {
	_, err := readZipcodesFromXLSX(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestNormalizeZipcode(t *testing.T) {
	tests := map[string]string{
		"94107":   "94107",
		"2134":    "02134",
		" 501 ":   "00501",
		"abc":     "abc",
		"":        "",
		"1234567": "1234567",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeZipcode(in), in)
	}
}
