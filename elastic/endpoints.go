package elastic

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// DefaultNode is used when no nodes are configured.
const DefaultNode = "http://localhost:9200"

// scrollKeepAlive is the fixed keep-alive window of the server-side
// scroll cursor between page fetches.
const scrollKeepAlive = "1m"

// ErrNoScheme is returned for node entries given without an explicit
// protocol scheme.
var ErrNoScheme = errors.New("node address must be in 'protocol://host:port' format")

// ResolveBaseURLs normalizes the configured node list into canonical
// scheme://host:port base URLs, preserving order. Path, query and
// fragment parts are dropped. A nil or empty list defaults to a single
// localhost node.
func ResolveBaseURLs(nodes []string) ([]string, error) {
	if len(nodes) == 0 {
		nodes = []string{DefaultNode}
	}

	baseURLs := make([]string, len(nodes))
	for i, node := range nodes {
		if !strings.Contains(node, "//") {
			return nil, errors.Wrapf(ErrNoScheme, "node %q", node)
		}
		parsed, err := url.Parse(node)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't parse node address %q", node)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return nil, errors.Wrapf(ErrNoScheme, "node %q", node)
		}
		baseURLs[i] = fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	}

	return baseURLs, nil
}

// Endpoint holds the URLs derived from one base URL for a given query
// target.
type Endpoint struct {
	Base        string
	Healthcheck string
	Mapping     string
	Request     string

	Index   string
	DocType string
}

// NewEndpoint derives the healthcheck, mapping and initial search URLs
// for the given index (and optional document type) on one base URL.
func NewEndpoint(baseURL, index, docType string) Endpoint {
	requestURL := fmt.Sprintf("%s/%s/_search?scroll=%s", baseURL, index, scrollKeepAlive)
	if docType != "" {
		requestURL = fmt.Sprintf("%s/%s/%s/_search?scroll=%s", baseURL, index, docType, scrollKeepAlive)
	}

	return Endpoint{
		Base:        baseURL,
		Healthcheck: baseURL + "/_cluster/health",
		Mapping:     fmt.Sprintf("%s/%s/_mapping", baseURL, index),
		Request:     requestURL,
		Index:       index,
		DocType:     docType,
	}
}

// ScrollURL derives the scroll continuation URL from a request URL,
// keeping only its scheme and authority. The scroll path differs from
// the initial search path, so it is recomputed from the session's
// request URL on every fetch.
func ScrollURL(requestURL string) (string, error) {
	parsed, err := url.Parse(requestURL)
	if err != nil {
		return "", errors.Wrapf(err, "couldn't parse request URL %q", requestURL)
	}
	return fmt.Sprintf("%s://%s/_search/scroll", parsed.Scheme, parsed.Host), nil
}
