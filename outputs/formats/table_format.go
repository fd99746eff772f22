package formats

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/elastiq/elasticsource"
)

type TableFormatter struct {
	table *tablewriter.Table
}

func NewTableFormatter(w io.Writer) *TableFormatter {
	table := tablewriter.NewWriter(w)
	table.SetColWidth(24)
	table.SetRowLine(false)

	return &TableFormatter{
		table: table,
	}
}

func (t *TableFormatter) SetSchema(fields []elasticsource.Field) {
	header := make([]string, len(fields))
	for i := range fields {
		header[i] = fields[i].Name
	}
	t.table.SetHeader(header)
	t.table.SetAutoFormatHeaders(false)
}

func (t *TableFormatter) Write(page *elasticsource.Page) error {
	for row := 0; row < page.Rows(); row++ {
		out := make([]string, len(page.Columns))
		for col := range page.Columns {
			out[col] = page.Columns[col].ValueString(row)
		}
		t.table.Append(out)
	}
	return nil
}

func (t *TableFormatter) Close() error {
	t.table.Render()
	return nil
}
