package elasticsource

import "strconv"

// Column holds the values of one column of a page. Only the slice
// matching the declared type is populated.
type Column struct {
	Type ColumnType

	Int32s   []int32
	Int64s   []int64
	Float64s []float64
	Strings  []string
}

func (c Column) Len() int {
	switch c.Type {
	case Int32:
		return len(c.Int32s)
	case Int64:
		return len(c.Int64s)
	case Float64:
		return len(c.Float64s)
	case String:
		return len(c.Strings)
	}
	return 0
}

// ValueString renders the i-th value of the column for output formatting.
func (c Column) ValueString(i int) string {
	switch c.Type {
	case Int32:
		return strconv.FormatInt(int64(c.Int32s[i]), 10)
	case Int64:
		return strconv.FormatInt(c.Int64s[i], 10)
	case Float64:
		return strconv.FormatFloat(c.Float64s[i], 'f', -1, 64)
	case String:
		return c.Strings[i]
	}
	return ""
}

// Page is one batch of rows returned by a single fetch, column-oriented.
// Columns are parallel to Fields.
type Page struct {
	Fields  []Field
	Columns []Column
}

// Rows returns the row count of the page, taken from the first column.
func (p *Page) Rows() int {
	if len(p.Columns) == 0 {
		return 0
	}
	return p.Columns[0].Len()
}

// Column returns the column with the given name.
func (p *Page) Column(name string) (Column, bool) {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return p.Columns[i], true
		}
	}
	return Column{}, false
}
