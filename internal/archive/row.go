package archive

import "strings"

// Row is one decoded CSV line. Column lookup is case- and
// whitespace-insensitive so that header variations across export
// versions ("Watched Date", "watched date", " Watched  Date ") all
// resolve to the same field.
type Row struct {
	columns []string
	values  map[string]string
}

// NewRow builds a row from a header and a value record. Values beyond
// the header length are ignored.
func NewRow(header, record []string) Row {
	r := Row{
		columns: make([]string, 0, len(record)),
		values:  make(map[string]string, len(record)),
	}
	for i, v := range record {
		if i >= len(header) {
			break
		}
		key := normalizeColumn(header[i])
		if key == "" {
			continue
		}
		r.columns = append(r.columns, key)
		if _, exists := r.values[key]; !exists {
			r.values[key] = v
		}
	}
	return r
}

// normalizeColumn lower-cases a header name and collapses internal
// whitespace runs to a single space.
func normalizeColumn(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Columns returns the normalized column names in header order.
func (r Row) Columns() []string {
	return r.columns
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.columns)
}

// Get returns the trimmed value of the named column, or "" if absent.
func (r Row) Get(name string) string {
	return strings.TrimSpace(r.values[normalizeColumn(name)])
}

// First returns the first non-empty trimmed value among the given
// column-name aliases, in order.
func (r Row) First(aliases ...string) string {
	for _, name := range aliases {
		if v := r.Get(name); v != "" {
			return v
		}
	}
	return ""
}
