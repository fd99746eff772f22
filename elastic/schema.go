package elastic

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/elastiq/elasticsource"
)

// columnTypeForTag maps the backend's field type vocabulary onto column
// types. Tags outside the vocabulary fail the session open.
func columnTypeForTag(tag string) (elasticsource.ColumnType, error) {
	switch tag {
	case "integer", "short", "byte":
		return elasticsource.Int32, nil
	case "long":
		return elasticsource.Int64, nil
	case "double", "float", "half_float":
		return elasticsource.Float64, nil
	case "text", "keyword":
		return elasticsource.String, nil
	}
	return 0, errors.Errorf("unsupported field type %q", tag)
}

// fieldsFromMapping extracts the ordered column schema from an index
// mapping response. Fields come out sorted by name.
func fieldsFromMapping(body []byte, index, docType string) ([]elasticsource.Field, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't parse mapping response")
	}

	mappings := v.Get(index, "mappings")
	if mappings == nil {
		// The response is keyed by the concrete index name, which may
		// differ from the queried one when going through an alias.
		obj, err := v.Object()
		if err != nil {
			return nil, errors.Wrap(err, "expected object mapping response")
		}
		obj.Visit(func(key []byte, value *fastjson.Value) {
			if mappings == nil {
				mappings = value.Get("mappings")
			}
		})
	}
	if mappings == nil {
		return nil, errors.New("mapping response has no mappings")
	}

	if docType != "" {
		if typed := mappings.Get(docType); typed != nil {
			mappings = typed
		}
	}

	properties := mappings.Get("properties")
	if properties == nil {
		return nil, errors.New("mapping response has no properties")
	}
	obj, err := properties.Object()
	if err != nil {
		return nil, errors.Wrap(err, "expected object mapping properties")
	}

	var fields []elasticsource.Field
	var visitErr error
	obj.Visit(func(key []byte, value *fastjson.Value) {
		if visitErr != nil {
			return
		}
		columnType, err := columnTypeForTag(string(value.GetStringBytes("type")))
		if err != nil {
			visitErr = errors.Wrapf(err, "field %q", string(key))
			return
		}
		fields = append(fields, elasticsource.Field{
			Name: string(key),
			Type: columnType,
		})
	})
	if visitErr != nil {
		return nil, visitErr
	}
	if len(fields) == 0 {
		return nil, errors.New("index mapping has no fields")
	}

	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})

	return fields, nil
}
