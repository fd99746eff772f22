package batch

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/gosuri/uilive"
	"github.com/pkg/errors"

	"github.com/elastiq/elasticsource"
	"github.com/elastiq/elasticsource/execution"
	"github.com/elastiq/elasticsource/outputs/formats"
)

const liveUpdateInterval = 100 * time.Millisecond

// PageSource is the pull side of a page stream.
type PageSource interface {
	Fields() []elasticsource.Field
	Next(ctx context.Context) (*elasticsource.Page, error)
}

// OutputPrinter drains a page stream into an output format. With live
// enabled the accumulated output is re-rendered in place as pages
// arrive.
type OutputPrinter struct {
	format func(io.Writer) formats.Format
	out    io.Writer
	live   bool
}

func NewOutputPrinter(format func(io.Writer) formats.Format, live bool) *OutputPrinter {
	return &OutputPrinter{
		format: format,
		out:    os.Stdout,
		live:   live,
	}
}

func (o *OutputPrinter) Run(ctx context.Context, stream PageSource) error {
	if o.live {
		return o.runLive(ctx, stream)
	}

	format := o.format(o.out)
	format.SetSchema(stream.Fields())

	for {
		page, err := stream.Next(ctx)
		if errors.Cause(err) == execution.ErrEndOfStream {
			break
		} else if err != nil {
			return errors.Wrap(err, "couldn't get next page")
		}

		if err := format.Write(page); err != nil {
			return errors.Wrap(err, "couldn't write page")
		}
	}

	return format.Close()
}

func (o *OutputPrinter) runLive(ctx context.Context, stream PageSource) error {
	liveWriter := uilive.New()
	liveWriter.Out = o.out

	var pages []*elasticsource.Page
	render := func(w io.Writer) error {
		format := o.format(w)
		format.SetSchema(stream.Fields())
		for i := range pages {
			if err := format.Write(pages[i]); err != nil {
				return err
			}
		}
		return format.Close()
	}

	lastUpdate := time.Now()
	for {
		page, err := stream.Next(ctx)
		if errors.Cause(err) == execution.ErrEndOfStream {
			break
		} else if err != nil {
			return errors.Wrap(err, "couldn't get next page")
		}
		pages = append(pages, page)

		if time.Since(lastUpdate) < liveUpdateInterval {
			continue
		}
		lastUpdate = time.Now()

		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			return errors.Wrap(err, "couldn't render output")
		}
		if _, err := liveWriter.Write(buf.Bytes()); err != nil {
			return errors.Wrap(err, "couldn't write live output")
		}
		if err := liveWriter.Flush(); err != nil {
			return errors.Wrap(err, "couldn't flush live output")
		}
	}

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return errors.Wrap(err, "couldn't render output")
	}
	if _, err := liveWriter.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "couldn't write live output")
	}
	if err := liveWriter.Flush(); err != nil {
		return errors.Wrap(err, "couldn't flush live output")
	}

	return nil
}
