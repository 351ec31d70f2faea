package archive

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedArchive is returned when the ZIP container or one of its
// entries cannot be read. It aborts the whole import; there is no
// partial success at the read stage.
var ErrMalformedArchive = errors.New("malformed archive")

// Table is one parsed CSV file from the export archive.
type Table struct {
	Role     Role
	Filename string
	Rows     []Row
}

// TableSet holds every CSV table found in an archive.
type TableSet struct {
	Tables []Table
}

// Rows returns the rows of all tables with the given role, concatenated
// in archive order.
func (ts *TableSet) Rows(role Role) []Row {
	var rows []Row
	for _, t := range ts.Tables {
		if t.Role == role {
			rows = append(rows, t.Rows...)
		}
	}
	return rows
}

// HasRole reports whether at least one table with the given role exists.
func (ts *TableSet) HasRole(role Role) bool {
	for _, t := range ts.Tables {
		if t.Role == role {
			return true
		}
	}
	return false
}

// Read decompresses an export archive and parses every root-level .csv
// entry into a classified table. Entries under sub-paths and non-CSV
// entries are ignored. Any structural failure fails the whole read.
func Read(data []byte) (*TableSet, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArchive, err)
	}

	ts := &TableSet{}
	for _, entry := range zr.File {
		name := entry.Name
		if strings.ContainsAny(name, "/\\") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", ErrMalformedArchive, name, err)
		}
		rows, err := parseCSV(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrMalformedArchive, name, err)
		}

		ts.Tables = append(ts.Tables, Table{
			Role:     RoleForFilename(name),
			Filename: name,
			Rows:     rows,
		})
	}

	return ts, nil
}

// parseCSV decodes header-driven rows: first line is the column names,
// every following line is values. Blank lines are skipped and rows that
// decode to zero columns are discarded.
func parseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := NewRow(header, record)
		if row.Len() == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
