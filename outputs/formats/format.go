package formats

import "github.com/elastiq/elasticsource"

// Format consumes the column schema followed by successive pages.
type Format interface {
	SetSchema(fields []elasticsource.Field)
	Write(page *elasticsource.Page) error
	Close() error
}
