package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rflorenc/intune-workbench/internal/config"
	"github.com/rflorenc/intune-workbench/internal/export"
	"github.com/rflorenc/intune-workbench/internal/graph"
	"github.com/rflorenc/intune-workbench/internal/logging"
	"github.com/rflorenc/intune-workbench/internal/models"
	"github.com/rflorenc/intune-workbench/internal/search"
)

const tokenEnv = "WORKBENCH_GRAPH_TOKEN"

type exportOptions struct {
	token   string
	output  string
	formats []string
	kind    string
	query   string
	facet   string
}

func newExportCommand() *cobra.Command {
	cfg := config.Default()
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Load the tenant once and write export artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			if opts.token == "" {
				opts.token = os.Getenv(tokenEnv)
			}
			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			written, err := runExport(cmd.Context(), cfg, opts, log)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cfg.BindFlags(cmd.Flags())
	cmd.Flags().StringVar(&opts.token, "token", "", "Graph bearer token (default $"+tokenEnv+")")
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "Directory to write artifacts into")
	cmd.Flags().StringSliceVar(&opts.formats, "format", []string{"json", "html", "zip"}, "Artifact formats to write")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "Only export one kind (profiles, scripts, compliance, apps)")
	cmd.Flags().StringVar(&opts.query, "query", "", "Only export items matching this search text")
	cmd.Flags().StringVar(&opts.facet, "facet", "", "Only export items on this platform or type")
	return cmd
}

// runExport loads the tenant, narrows it by kind, query and facet, and writes
// one artifact per format. It returns the paths written.
func runExport(ctx context.Context, cfg *config.Config, opts exportOptions, log *zap.Logger, graphOpts ...graph.Option) ([]string, error) {
	if opts.token == "" {
		return nil, graph.ErrAuthRequired
	}
	formats := make([]export.Format, 0, len(opts.formats))
	for _, name := range opts.formats {
		f, err := export.Lookup(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}

	client := graph.NewClient(cfg.Graph, graph.StaticToken(opts.token), log, graphOpts...)
	res := graph.NewAggregator(graph.NewLoaders(client, log), log).LoadAll(ctx, func(line string) {
		log.Info(line)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if res.Data.Total() == 0 && len(res.Failures) > 0 {
		return nil, fmt.Errorf("no collection could be loaded (%d failed)", len(res.Failures))
	}

	var items []models.Item
	if opts.kind != "" {
		kind, err := models.ParseKind(opts.kind)
		if err != nil {
			return nil, err
		}
		items = search.Filter(res.Data.Items(kind), opts.query, opts.facet)
	} else {
		items = search.Filter(res.Data.All(), opts.query, opts.facet)
	}
	data := models.Select(res.Data, models.SelectionOf(items), cfg.Operator, time.Now())

	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return nil, err
	}
	written := make([]string, 0, len(formats))
	for _, f := range formats {
		body, err := f.Render(data)
		if err != nil {
			return written, err
		}
		path := filepath.Join(opts.output, f.FileName(data.ExportedAt))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		log.Sugar().Infof("Wrote %s (%d items)", path, data.Total())
		written = append(written, path)
	}
	return written, nil
}
