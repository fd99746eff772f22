package elasticsource

// ColumnType identifies the Go-side type of a single column. It is fixed
// per column when a session is opened and never changes afterwards.
type ColumnType int

const (
	Int32 ColumnType = iota
	Int64
	Float64
	String
)

func (t ColumnType) String() string {
	switch t {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	}
	return "unknown"
}

// Field describes one named, typed column of a source.
type Field struct {
	Name string
	Type ColumnType
}
