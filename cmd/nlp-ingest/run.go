package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cognicore/nlpingest/internal/jsonl"
	"github.com/cognicore/nlpingest/internal/logger"
	"github.com/cognicore/nlpingest/pkg/nlpingest"
	"github.com/cognicore/nlpingest/pkg/nlpingest/config"
)

type runOptions struct {
	configPath      string
	input           string
	output          string
	db              string
	continueOnError bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured pipeline over a JSONL file",
		Long: `Reads one JSON document per line, runs every configured processor
and writes the enriched documents as JSONL. With --db documents are also
stored in a SQLite database.`,
		Example: "nlp-ingest run --config nlp.yaml --input docs.jsonl --output out.jsonl",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPipeline(ctx, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "nlp.yaml", "configuration file")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input JSONL file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output JSONL file (default stdout)")
	cmd.Flags().StringVar(&opts.db, "db", "", "SQLite database for enriched documents")
	cmd.Flags().BoolVar(&opts.continueOnError, "continue-on-error", true, "skip failing documents instead of aborting")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runPipeline(ctx context.Context, stdout io.Writer, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.db != "" {
		cfg.Sink.SQLite = opts.db
	}

	docs, err := jsonl.ReadFile(opts.input)
	if err != nil {
		return err
	}

	svc, err := nlpingest.Open(ctx, nlpingest.Options{Config: cfg})
	if err != nil {
		return err
	}
	defer svc.Close()

	enriched, report, err := svc.Process(ctx, docs, opts.continueOnError)
	if err != nil {
		return err
	}
	for _, f := range report.Failures {
		logger.Get().WithFields(logrus.Fields{"index": f.Index, "id": f.ID}).WithError(f.Err).Error("Document not processed")
	}

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	fields := make([]map[string]any, 0, len(enriched))
	failed := make(map[int]bool, len(report.Failures))
	for _, f := range report.Failures {
		failed[f.Index] = true
	}
	for i, doc := range enriched {
		if !failed[i] {
			fields = append(fields, doc.Fields())
		}
	}
	if err := jsonl.Write(out, fields); err != nil {
		return err
	}

	logger.Get().WithFields(logrus.Fields{
		"processed": report.Processed,
		"failed":    len(report.Failures),
	}).Info("Run complete")
	if len(report.Failures) > 0 && report.Processed == 0 {
		return fmt.Errorf("all %d documents failed", len(report.Failures))
	}
	return nil
}
