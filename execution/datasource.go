package execution

import (
	"context"
	"log"
	"net/http"

	"github.com/pkg/errors"

	"github.com/elastiq/elasticsource"
	"github.com/elastiq/elasticsource/config"
	"github.com/elastiq/elasticsource/elastic"
)

// ErrNoHealthyNode is returned by Get when every configured node failed
// its health check or initial request. It is terminal: the caller has to
// reconstruct the data source to retry.
var ErrNoHealthyNode = errors.New("no healthy node available for this index, check the cluster status and index")

const defaultBatchSize = 1000

// DataSource reads one index as a lazy sequence of pages. The node list
// is validated and resolved at construction; the node is selected on Get.
type DataSource struct {
	endpoints []elastic.Endpoint
	client    *elastic.Client
	batchSize int
}

type Option func(*dataSourceOptions)

type dataSourceOptions struct {
	docType    string
	batchSize  int
	httpClient *http.Client
}

// WithDocType narrows the query to documents of the given type.
func WithDocType(docType string) Option {
	return func(options *dataSourceOptions) {
		options.docType = docType
	}
}

// WithBatchSize sets the number of rows requested per page.
func WithBatchSize(batchSize int) Option {
	return func(options *dataSourceOptions) {
		options.batchSize = batchSize
	}
}

// WithHTTPClient sets the underlying HTTP client, e.g. to enforce
// timeouts.
func WithHTTPClient(client *http.Client) Option {
	return func(options *dataSourceOptions) {
		options.httpClient = client
	}
}

// NewDataSource creates a data source for the given index. Nodes must be
// given in protocol://host:port format; a nil node list defaults to a
// single localhost node.
func NewDataSource(nodes []string, index string, opts ...Option) (*DataSource, error) {
	if index == "" {
		return nil, errors.New("index name is required")
	}

	options := &dataSourceOptions{batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(options)
	}

	baseURLs, err := elastic.ResolveBaseURLs(nodes)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't resolve node addresses")
	}

	endpoints := make([]elastic.Endpoint, len(baseURLs))
	for i, baseURL := range baseURLs {
		endpoints[i] = elastic.NewEndpoint(baseURL, index, options.docType)
	}

	return &DataSource{
		endpoints: endpoints,
		client:    elastic.NewClient(options.httpClient),
		batchSize: options.batchSize,
	}, nil
}

// NewDataSourceFromConfig creates a data source from an untyped source
// configuration.
func NewDataSourceFromConfig(sourceConfig map[string]interface{}) (*DataSource, error) {
	nodes, err := config.GetStringList(sourceConfig, "nodes", config.WithDefault([]string(nil)))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get nodes")
	}
	index, err := config.GetString(sourceConfig, "index")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get index")
	}
	docType, err := config.GetString(sourceConfig, "docType", config.WithDefault(""))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get document type")
	}
	batchSize, err := config.GetInt(sourceConfig, "batchSize", config.WithDefault(defaultBatchSize))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get batch size")
	}

	return NewDataSource(nodes, index,
		WithDocType(docType),
		WithBatchSize(batchSize),
	)
}

// Get tries each configured node in declared order and returns a page
// stream bound to the first one whose health check and initial request
// succeed. Skipped hosts are logged. Once a node is selected there is no
// mid-stream failover: a later fetch failure ends the stream.
func (ds *DataSource) Get(ctx context.Context) (*PageStream, error) {
	for _, endpoint := range ds.endpoints {
		session, firstPage, err := ds.openSession(ctx, endpoint)
		if err != nil {
			log.Printf("Skipping host: %s: %s", endpoint.Healthcheck, err)
			continue
		}
		log.Printf("Connection successful: %s", endpoint.Healthcheck)

		return &PageStream{
			fetcher: ds.client,
			session: session,
			pending: firstPage,
		}, nil
	}

	return nil, ErrNoHealthyNode
}

func (ds *DataSource) openSession(ctx context.Context, endpoint elastic.Endpoint) (*elastic.Session, *elasticsource.Page, error) {
	if err := ds.client.Healthcheck(ctx, endpoint.Healthcheck); err != nil {
		return nil, nil, errors.Wrap(err, "health check failed")
	}

	session, firstPage, err := ds.client.Open(ctx, endpoint, ds.batchSize)
	if err != nil {
		return nil, nil, errors.Wrap(err, "couldn't open scroll session")
	}

	return session, firstPage, nil
}
