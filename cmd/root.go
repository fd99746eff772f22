package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/elastiq/elasticsource/config"
	"github.com/elastiq/elasticsource/execution"
	"github.com/elastiq/elasticsource/outputs/batch"
	"github.com/elastiq/elasticsource/outputs/formats"
)

var (
	configPath string
	nodes      []string
	index      string
	docType    string
	batchSize  int
	output     string
	live       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "elasticsource [source]",
	Short: "Dump an Elasticsearch index as typed, column-oriented pages.",
	Example: `elasticsource --config sources.yaml books
elasticsource --nodes http://localhost:9200 --index books --output json`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ds, err := dataSourceFromArgs(args)
		if err != nil {
			return err
		}

		stream, err := ds.Get(ctx)
		if err != nil {
			return errors.Wrap(err, "couldn't connect to any node")
		}
		defer func() {
			if err := stream.Close(ctx); err != nil {
				log.Printf("couldn't close page stream: %s", err)
			}
		}()

		var format func(io.Writer) formats.Format
		switch output {
		case "table":
			format = func(w io.Writer) formats.Format { return formats.NewTableFormatter(w) }
		case "csv":
			format = func(w io.Writer) formats.Format { return formats.NewCSVFormatter(w) }
		case "json":
			format = func(w io.Writer) formats.Format { return formats.NewJSONFormatter(w) }
		default:
			return errors.Errorf("invalid output format: %s", output)
		}

		printer := batch.NewOutputPrinter(format, live)
		return printer.Run(ctx, stream)
	},
}

func dataSourceFromArgs(args []string) (*execution.DataSource, error) {
	if len(args) == 1 {
		cfg, err := config.ReadConfig(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "couldn't read configuration")
		}
		sourceConfig, err := cfg.GetSourceConfig(args[0])
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't get source %q", args[0])
		}
		return execution.NewDataSourceFromConfig(sourceConfig)
	}

	if index == "" {
		return nil, errors.New("either a configured source name or --index is required")
	}
	return execution.NewDataSource(nodes, index,
		execution.WithDocType(docType),
		execution.WithBatchSize(batchSize),
	)
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "sources.yaml", "path to the sources configuration file")
	rootCmd.Flags().StringSliceVar(&nodes, "nodes", nil, "node addresses in protocol://host:port format")
	rootCmd.Flags().StringVar(&index, "index", "", "index to query")
	rootCmd.Flags().StringVar(&docType, "doc-type", "", "document type to narrow the query")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 1000, "rows requested per page")
	rootCmd.Flags().StringVar(&output, "output", "table", "output format: table, csv or json")
	rootCmd.Flags().BoolVar(&live, "live", false, "rerender the output as pages arrive")
}
