package elastic

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/elastiq/elasticsource"
)

// Session holds the state of one open scroll query: the server-issued
// cursor, the column schema and the request URL of the selected node.
// The cursor is threaded explicitly through every fetch and updated
// from each response.
type Session struct {
	Cursor     string
	Fields     []elasticsource.Field
	RequestURL string
}

// Client talks to the backend's health, mapping, search and scroll
// endpoints.
type Client struct {
	http *http.Client
}

// NewClient wraps the given HTTP client. A nil client falls back to
// http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient}
}

// Healthcheck performs the cluster health request against the given URL.
// Only the presence of the status field is checked, not its value.
func (c *Client) Healthcheck(ctx context.Context, healthcheckURL string) error {
	body, err := c.get(ctx, healthcheckURL)
	if err != nil {
		return errors.Wrap(err, "couldn't perform health check")
	}

	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return errors.Wrap(err, "couldn't parse health check response")
	}
	if !v.Exists("status") {
		return errors.New("health check response has no status field")
	}

	return nil
}

// Open establishes a session against one endpoint: it reads the column
// schema from the index mapping and issues the initial search request.
// The first page of results is returned alongside the session.
func (c *Client) Open(ctx context.Context, endpoint Endpoint, batchSize int) (*Session, *elasticsource.Page, error) {
	mappingBody, err := c.get(ctx, endpoint.Mapping)
	if err != nil {
		return nil, nil, errors.Wrap(err, "couldn't fetch index mapping")
	}
	fields, err := fieldsFromMapping(mappingBody, endpoint.Index, endpoint.DocType)
	if err != nil {
		return nil, nil, errors.Wrap(err, "couldn't read column schema from index mapping")
	}

	var arena fastjson.Arena
	request := arena.NewObject()
	request.Set("size", arena.NewNumberInt(batchSize))

	body, err := c.post(ctx, endpoint.Request, request.MarshalTo(nil))
	if err != nil {
		return nil, nil, errors.Wrap(err, "couldn't perform initial search request")
	}

	session := &Session{
		Fields:     fields,
		RequestURL: endpoint.Request,
	}
	page, err := decodePage(body, session)
	if err != nil {
		return nil, nil, errors.Wrap(err, "couldn't decode initial search response")
	}

	return session, page, nil
}

// FetchNext retrieves the next page of the session's scroll. The scroll
// URL is derived from the session's request URL on every call.
func (c *Client) FetchNext(ctx context.Context, session *Session) (*elasticsource.Page, error) {
	scrollURL, err := ScrollURL(session.RequestURL)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't derive scroll URL")
	}

	var arena fastjson.Arena
	request := arena.NewObject()
	request.Set("scroll", arena.NewString(scrollKeepAlive))
	request.Set("scroll_id", arena.NewString(session.Cursor))

	body, err := c.post(ctx, scrollURL, request.MarshalTo(nil))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't perform scroll request")
	}

	page, err := decodePage(body, session)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't decode scroll response")
	}

	return page, nil
}

// ClearScroll releases the server-side cursor of the session.
func (c *Client) ClearScroll(ctx context.Context, session *Session) error {
	scrollURL, err := ScrollURL(session.RequestURL)
	if err != nil {
		return errors.Wrap(err, "couldn't derive scroll URL")
	}

	var arena fastjson.Arena
	request := arena.NewObject()
	request.Set("scroll_id", arena.NewString(session.Cursor))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, scrollURL, bytes.NewReader(request.MarshalTo(nil)))
	if err != nil {
		return errors.Wrap(err, "couldn't create clear scroll request")
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req); err != nil {
		return errors.Wrap(err, "couldn't clear scroll")
	}

	return nil
}

// decodePage decodes a search or scroll response body into a page and
// updates the session cursor when the response carries a new one.
func decodePage(body []byte, session *Session) (*elasticsource.Page, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't parse response")
	}

	if cursor := v.GetStringBytes("_scroll_id"); len(cursor) > 0 {
		session.Cursor = string(cursor)
	}

	columns := make([]elasticsource.Column, len(session.Fields))
	for i := range session.Fields {
		columns[i].Type = session.Fields[i].Type
	}

	for _, hit := range v.GetArray("hits", "hits") {
		source := hit.Get("_source")
		if source == nil {
			return nil, errors.New("hit has no _source document")
		}
		for i := range session.Fields {
			value := source.Get(session.Fields[i].Name)
			if value == nil {
				return nil, errors.Errorf("document missing field %q", session.Fields[i].Name)
			}
			if err := appendValue(&columns[i], value); err != nil {
				return nil, errors.Wrapf(err, "field %q", session.Fields[i].Name)
			}
		}
	}

	return &elasticsource.Page{
		Fields:  session.Fields,
		Columns: columns,
	}, nil
}

func appendValue(column *elasticsource.Column, value *fastjson.Value) error {
	switch column.Type {
	case elasticsource.Int32:
		i, err := value.Int64()
		if err != nil {
			return errors.Wrap(err, "expected integer value")
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return errors.Errorf("value %d overflows int32", i)
		}
		column.Int32s = append(column.Int32s, int32(i))
	case elasticsource.Int64:
		i, err := value.Int64()
		if err != nil {
			return errors.Wrap(err, "expected integer value")
		}
		column.Int64s = append(column.Int64s, i)
	case elasticsource.Float64:
		f, err := value.Float64()
		if err != nil {
			return errors.Wrap(err, "expected numeric value")
		}
		column.Float64s = append(column.Float64s, f)
	case elasticsource.String:
		s, err := value.StringBytes()
		if err != nil {
			return errors.Wrap(err, "expected string value")
		}
		column.Strings = append(column.Strings, string(s))
	default:
		return errors.Errorf("unsupported column type %v", column.Type)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create request")
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("%s: %s", resp.Status, bytes.TrimSpace(body))
	}

	return body, nil
}
