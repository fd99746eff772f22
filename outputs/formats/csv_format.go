package formats

import (
	"encoding/csv"
	"io"

	"github.com/elastiq/elasticsource"
)

type CSVFormatter struct {
	writer *csv.Writer
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{
		writer: csv.NewWriter(w),
	}
}

func (t *CSVFormatter) SetSchema(fields []elasticsource.Field) {
	header := make([]string, len(fields))
	for i := range fields {
		header[i] = fields[i].Name
	}
	t.writer.Write(header)
}

func (t *CSVFormatter) Write(page *elasticsource.Page) error {
	for row := 0; row < page.Rows(); row++ {
		out := make([]string, len(page.Columns))
		for col := range page.Columns {
			out[col] = page.Columns[col].ValueString(row)
		}
		if err := t.writer.Write(out); err != nil {
			return err
		}
	}
	return nil
}

func (t *CSVFormatter) Close() error {
	t.writer.Flush()
	return t.writer.Error()
}
