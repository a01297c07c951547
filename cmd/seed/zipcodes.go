package main

import (
	"fmt"
	"strings"

	"github.com/threemeal/threemeal-backend/internal/validation"
	"github.com/xuri/excelize/v2"
)

type importResult struct {
	Codes      []string
	Duplicates int
	Invalid    []string // "row N: value"
}

// readZipcodesFromXLSX collects the first column of the first sheet.
// A header row is tolerated because it never validates as a zip code.
func readZipcodesFromXLSX(filePath string) (*importResult, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	result := &importResult{}
	seen := make(map[string]bool)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		code := normalizeZipcode(row[0])
		if code == "" {
			continue
		}
		if !validation.IsValidZipcode(code) {
			if i > 0 {
				result.Invalid = append(result.Invalid, fmt.Sprintf("row %d: %q", i+1, row[0]))
			}
			continue
		}
		if seen[code] {
			result.Duplicates++
			continue
		}
		seen[code] = true
		result.Codes = append(result.Codes, code)
	}

	return result, nil
}

// normalizeZipcode restores leading zeros that spreadsheets drop from
// numeric cells, so 2134 becomes 02134.
func normalizeZipcode(raw string) string {
	code := strings.TrimSpace(raw)
	if code == "" || len(code) >= 5 {
		return code
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	return strings.Repeat("0", 5-len(code)) + code
}
