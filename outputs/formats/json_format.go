package formats

import (
	"io"

	"github.com/valyala/fastjson"

	"github.com/elastiq/elasticsource"
)

type JSONFormatter struct {
	buf    []byte
	arena  *fastjson.Arena
	w      io.Writer
	fields []elasticsource.Field
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{
		buf:   make([]byte, 0, 1024),
		arena: new(fastjson.Arena),
		w:     w,
	}
}

func (t *JSONFormatter) SetSchema(fields []elasticsource.Field) {
	t.fields = fields
}

// Write emits one JSON object per row, newline-delimited.
func (t *JSONFormatter) Write(page *elasticsource.Page) error {
	for row := 0; row < page.Rows(); row++ {
		obj := t.arena.NewObject()
		for col := range t.fields {
			obj.Set(t.fields[col].Name, valueToJSON(t.arena, page.Columns[col], row))
		}

		t.buf = obj.MarshalTo(t.buf)
		t.buf = append(t.buf, '\n')
		if _, err := t.w.Write(t.buf); err != nil {
			return err
		}
		t.buf = t.buf[:0]
		t.arena.Reset()
	}
	return nil
}

func (t *JSONFormatter) Close() error {
	return nil
}

func valueToJSON(arena *fastjson.Arena, column elasticsource.Column, row int) *fastjson.Value {
	switch column.Type {
	case elasticsource.Int32:
		return arena.NewNumberInt(int(column.Int32s[row]))
	case elasticsource.Int64:
		return arena.NewNumberInt(int(column.Int64s[row]))
	case elasticsource.Float64:
		return arena.NewNumberFloat64(column.Float64s[row])
	case elasticsource.String:
		return arena.NewString(column.Strings[row])
	}
	return arena.NewNull()
}
