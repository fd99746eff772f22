package elastic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastiq/elasticsource"
)

const booksMapping = `{
	"books": {
		"mappings": {
			"properties": {
				"year": {"type": "integer"},
				"title": {"type": "text"},
				"rating": {"type": "double"},
				"copies": {"type": "long"}
			}
		}
	}
}`

const booksFirstPage = `{
	"_scroll_id": "cursor-1",
	"hits": {
		"total": {"value": 3},
		"hits": [
			{"_source": {"title": "Dune", "year": 1965, "rating": 4.5, "copies": 20000000}},
			{"_source": {"title": "Neuromancer", "year": 1984, "rating": 4.2, "copies": 6500000}}
		]
	}
}`

const booksSecondPage = `{
	"_scroll_id": "cursor-2",
	"hits": {
		"total": {"value": 3},
		"hits": [
			{"_source": {"title": "Hyperion", "year": 1989, "rating": 4.3, "copies": 3000000}}
		]
	}
}`

const emptyPage = `{
	"_scroll_id": "cursor-3",
	"hits": {"total": {"value": 3}, "hits": []}
}`

// fakeBackend serves the health, mapping, search and scroll endpoints of
// a single index called "books".
type fakeBackend struct {
	server *httptest.Server

	scrollPages []string
	scrollIndex int

	scrollRequestBodies []string
	clearRequestBodies  []string
}

func newFakeBackend(t *testing.T, scrollPages ...string) *fakeBackend {
	t.Helper()
	backend := &fakeBackend{scrollPages: scrollPages}

	mux := http.NewServeMux()
	mux.HandleFunc("/_cluster/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "green"}`)
	})
	mux.HandleFunc("/books/_mapping", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, booksMapping)
	})
	mux.HandleFunc("/books/_search", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, booksFirstPage)
	})
	mux.HandleFunc("/_search/scroll", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Method == http.MethodDelete {
			backend.clearRequestBodies = append(backend.clearRequestBodies, string(body))
			io.WriteString(w, `{"succeeded": true}`)
			return
		}
		backend.scrollRequestBodies = append(backend.scrollRequestBodies, string(body))
		if backend.scrollIndex >= len(backend.scrollPages) {
			io.WriteString(w, emptyPage)
			return
		}
		page := backend.scrollPages[backend.scrollIndex]
		backend.scrollIndex++
		io.WriteString(w, page)
	})

	backend.server = httptest.NewServer(mux)
	t.Cleanup(backend.server.Close)
	return backend
}

func TestClient_Healthcheck(t *testing.T) {
	backend := newFakeBackend(t)
	client := NewClient(nil)

	err := client.Healthcheck(context.Background(), backend.server.URL+"/_cluster/health")
	require.NoError(t, err)
}

func TestClient_Healthcheck_noStatusField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"cluster_name": "test"}`)
	}))
	defer server.Close()
	client := NewClient(nil)

	err := client.Healthcheck(context.Background(), server.URL+"/_cluster/health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no status field")
}

func TestClient_Healthcheck_serverError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()
	client := NewClient(nil)

	err := client.Healthcheck(context.Background(), server.URL+"/_cluster/health")
	require.Error(t, err)
}

func TestClient_Open(t *testing.T) {
	backend := newFakeBackend(t)
	client := NewClient(nil)
	endpoint := NewEndpoint(backend.server.URL, "books", "")

	session, page, err := client.Open(context.Background(), endpoint, 1000)
	require.NoError(t, err)

	// Schema fields come out sorted by name.
	assert.Equal(t, []elasticsource.Field{
		{Name: "copies", Type: elasticsource.Int64},
		{Name: "rating", Type: elasticsource.Float64},
		{Name: "title", Type: elasticsource.String},
		{Name: "year", Type: elasticsource.Int32},
	}, session.Fields)
	assert.Equal(t, "cursor-1", session.Cursor)
	assert.Equal(t, endpoint.Request, session.RequestURL)

	require.Equal(t, 2, page.Rows())
	titles, ok := page.Column("title")
	require.True(t, ok)
	assert.Equal(t, []string{"Dune", "Neuromancer"}, titles.Strings)
	years, ok := page.Column("year")
	require.True(t, ok)
	assert.Equal(t, []int32{1965, 1984}, years.Int32s)
}

func TestClient_Open_unsupportedFieldType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/_mapping", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"books": {"mappings": {"properties": {"published": {"type": "date"}}}}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := NewClient(nil)

	_, _, err := client.Open(context.Background(), NewEndpoint(server.URL, "books", ""), 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported field type "date"`)
}

func TestClient_Open_docTypeMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/_mapping", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"books": {"mappings": {"novel": {"properties": {"title": {"type": "keyword"}}}}}}`)
	})
	mux.HandleFunc("/books/novel/_search", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"_scroll_id": "c", "hits": {"hits": [{"_source": {"title": "Dune"}}]}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := NewClient(nil)

	session, page, err := client.Open(context.Background(), NewEndpoint(server.URL, "books", "novel"), 1000)
	require.NoError(t, err)
	assert.Equal(t, []elasticsource.Field{{Name: "title", Type: elasticsource.String}}, session.Fields)
	assert.Equal(t, 1, page.Rows())
}

func TestClient_FetchNext(t *testing.T) {
	backend := newFakeBackend(t, booksSecondPage)
	client := NewClient(nil)

	session, _, err := client.Open(context.Background(), NewEndpoint(backend.server.URL, "books", ""), 1000)
	require.NoError(t, err)

	page, err := client.FetchNext(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, 1, page.Rows())
	titles, _ := page.Column("title")
	assert.Equal(t, []string{"Hyperion"}, titles.Strings)
	assert.Equal(t, "cursor-2", session.Cursor)

	// The scroll request carries the cursor from the previous response.
	require.Len(t, backend.scrollRequestBodies, 1)
	assert.Contains(t, backend.scrollRequestBodies[0], `"scroll_id":"cursor-1"`)
	assert.Contains(t, backend.scrollRequestBodies[0], `"scroll":"1m"`)

	page, err = client.FetchNext(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Rows())
	require.Len(t, backend.scrollRequestBodies, 2)
	assert.Contains(t, backend.scrollRequestBodies[1], `"scroll_id":"cursor-2"`)
}

func TestClient_FetchNext_missingField(t *testing.T) {
	secondPage := `{
		"_scroll_id": "c2",
		"hits": {"hits": [{"_source": {"title": "Hyperion"}}]}
	}`
	backend := newFakeBackend(t, secondPage)
	client := NewClient(nil)

	session, _, err := client.Open(context.Background(), NewEndpoint(backend.server.URL, "books", ""), 1000)
	require.NoError(t, err)

	_, err = client.FetchNext(context.Background(), session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing field")
}

func TestClient_ClearScroll(t *testing.T) {
	backend := newFakeBackend(t)
	client := NewClient(nil)

	session, _, err := client.Open(context.Background(), NewEndpoint(backend.server.URL, "books", ""), 1000)
	require.NoError(t, err)

	err = client.ClearScroll(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, backend.clearRequestBodies, 1)
	assert.Contains(t, backend.clearRequestBodies[0], `"scroll_id":"cursor-1"`)
}
