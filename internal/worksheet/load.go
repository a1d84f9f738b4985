package worksheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// In strict (generic) rendering every column name doubles as a template
// key, so it must be usable inside a `\VAR{...}` marker: no spaces (LaTeX
// macro arguments), no underscores (LaTeX), no hyphens.
const forbiddenNameChars = " -_"

func dataFormatf(path string, row int, cause error, format string, args ...any) error {
	return &DataFormatError{Path: path, Row: row, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Load reads a CSV worksheet. The first row is the header; the first column
// is the identity column. Every record must carry a non-empty identity.
//
// strictNames rejects column names that cannot serve as template keys.
// Generic mail-merge loads set it (every column may be referenced by a
// `\VAR{...}` marker); assignment loads accept any header, since extra
// columns there are reachable only through positional masks.
func Load(path string, strictNames bool) (*Sheet, error) {
	header, rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	if strictNames {
		for _, name := range header {
			if strings.ContainsAny(name, forbiddenNameChars) {
				return nil, dataFormatf(path, 0, nil,
					"column %q contains a separator character (space, hyphen, or underscore); rename it to a single word", name)
			}
		}
	}
	return assemble(path, header, rows, 0)
}

// Moodle grading worksheets carry many columns; only these three feed the
// merge. They are renamed to single-word keys for the template.
var moodleColumns = []struct {
	from string
	to   string
}{
	{"Identifier", "MoodleID"},
	{"Full name", "FullName"},
	{"ID number", "StudentID"},
}

// LoadMoodle reads a Moodle assignment grading worksheet and narrows it to
// the MoodleID, FullName, StudentID columns. The "Participant " prefix
// Moodle puts on identifiers is stripped, and StudentID becomes the
// identity column.
func LoadMoodle(path string) (*Sheet, error) {
	header, rows, err := readAll(path)
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(moodleColumns))
	for i, mc := range moodleColumns {
		idx[i] = -1
		for j, name := range header {
			if name == mc.from {
				idx[i] = j
				break
			}
		}
		if idx[i] == -1 {
			return nil, dataFormatf(path, 0, nil, "missing required Moodle column %q", mc.from)
		}
	}

	columns := make([]string, len(moodleColumns))
	for i, mc := range moodleColumns {
		columns[i] = mc.to
	}

	narrowed := make([][]string, len(rows))
	for r, row := range rows {
		vals := make([]string, len(idx))
		for i, j := range idx {
			vals[i] = row[j]
		}
		vals[0] = strings.TrimPrefix(vals[0], "Participant ")
		narrowed[r] = vals
	}

	// StudentID is the stable per-record identity.
	return assemble(path, columns, narrowed, 2)
}

func readAll(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, dataFormatf(path, 0, err, "cannot open: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, dataFormatf(path, 0, err, "parse csv: %v", err)
	}
	if len(all) == 0 {
		return nil, nil, dataFormatf(path, 0, nil, "empty worksheet (no header row)")
	}
	return all[0], all[1:], nil
}

func assemble(path string, columns []string, rows [][]string, idIndex int) (*Sheet, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		if strings.TrimSpace(name) == "" {
			return nil, dataFormatf(path, 0, nil, "blank column name in header")
		}
		if _, dup := seen[name]; dup {
			return nil, dataFormatf(path, 0, nil, "duplicate column name %q", name)
		}
		seen[name] = struct{}{}
	}

	sheet := &Sheet{Path: path, Columns: columns, Records: make([]Record, 0, len(rows))}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, dataFormatf(path, i+1, nil, "has %d fields, header has %d", len(row), len(columns))
		}
		rec := Record{columns: columns, values: row, idIndex: idIndex}
		if strings.TrimSpace(rec.Identity()) == "" {
			return nil, dataFormatf(path, i+1, nil, "identity column %q is empty", columns[idIndex])
		}
		sheet.Records = append(sheet.Records, rec)
	}
	return sheet, nil
}
