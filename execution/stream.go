package execution

import (
	"context"

	"github.com/pkg/errors"

	"github.com/elastiq/elasticsource"
	"github.com/elastiq/elasticsource/elastic"
)

var ErrEndOfStream = errors.New("end of stream")

// ErrCorruptPage marks a fetched page whose columns disagree on length.
var ErrCorruptPage = errors.New("corrupt page: columns have differing lengths")

// Fetcher retrieves pages of an open session and releases its
// server-side cursor.
type Fetcher interface {
	FetchNext(ctx context.Context, session *elastic.Session) (*elasticsource.Page, error)
	ClearScroll(ctx context.Context, session *elastic.Session) error
}

// PageStream is a strictly sequential pull stream of pages. It is not
// safe for concurrent use and not rewindable; construct a new data
// source to read the index again.
type PageStream struct {
	fetcher Fetcher
	session *elastic.Session
	pending *elasticsource.Page
	done    bool
	closed  bool
}

// Fields returns the ordered column schema of the stream.
func (s *PageStream) Fields() []elasticsource.Field {
	return s.session.Fields
}

// Next returns the next non-empty page. The terminating zero-row page is
// suppressed: once it is fetched, Next returns ErrEndOfStream, as does
// every subsequent call. Fetch and decode errors are propagated
// uninterpreted and also end the stream.
func (s *PageStream) Next(ctx context.Context) (*elasticsource.Page, error) {
	if s.done {
		return nil, ErrEndOfStream
	}

	page := s.pending
	s.pending = nil
	if page == nil {
		var err error
		page, err = s.fetcher.FetchNext(ctx, s.session)
		if err != nil {
			s.done = true
			return nil, errors.Wrap(err, "couldn't fetch next page")
		}
	}

	rows := page.Rows()
	for i := range page.Columns {
		if page.Columns[i].Len() != rows {
			s.done = true
			return nil, errors.Wrapf(ErrCorruptPage,
				"column %q has %d values, expected %d",
				page.Fields[i].Name, page.Columns[i].Len(), rows)
		}
	}

	if rows == 0 {
		s.done = true
		return nil, ErrEndOfStream
	}

	return page, nil
}

// Close releases the server-side scroll cursor. It is safe to call more
// than once and after the stream is exhausted.
func (s *PageStream) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.session.Cursor == "" {
		return nil
	}
	if err := s.fetcher.ClearScroll(ctx, s.session); err != nil {
		return errors.Wrap(err, "couldn't clear scroll")
	}

	return nil
}
