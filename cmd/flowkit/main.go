// Command flowkit runs and inspects a sample document-processing pipeline.
//
// Usage:
//
//	flowkit run [--config flowkit.yaml]   # execute the pipeline
//	flowkit graph [dot|mermaid]           # print the structure without running
//	flowkit version                       # show version info
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flowkit-dev/flowkit/config"
	"github.com/flowkit-dev/flowkit/internal/metrics"
	"github.com/flowkit-dev/flowkit/tracestore"
	"github.com/flowkit-dev/flowkit/workflow"
)

// Version is injected at build time via ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		if err := runCmd(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "flowkit: %v\n", err)
			os.Exit(1)
		}
	case "graph":
		if err := graphCmd(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "flowkit: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("flowkit %s\n", Version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: flowkit <run|graph|version> [flags]")
}

func loadConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("flowkit", flag.ContinueOnError)
	configPath := fs.String("config", "flowkit.yaml", "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config.NewLoader().WithConfigPath(*configPath).Load()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return cfg.Build()
}

func runCmd(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := workflow.Options{
		LogDir:  cfg.Log.Dir,
		LogFile: cfg.Log.File,
		Verbose: cfg.Log.Verbose,
		Logger:  logger,
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, prometheus.DefaultRegisterer, logger)
		opts.Observer = collector
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		g.Go(func() error {
			logger.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			if metricsSrv != nil {
				shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metricsSrv.Shutdown(shutCtx)
			}
		}()

		wf := samplePipeline(opts)
		startedAt := time.Now()
		res, runErr := wf.Run(ctx, sampleInput())

		if cfg.Store.Enabled {
			if err := persistRun(ctx, cfg, logger, startedAt, res, runErr); err != nil {
				logger.Warn("failed to persist run trace", zap.Error(err))
			}
		}

		if runErr != nil {
			return runErr
		}
		fmt.Printf("output: %v\n", res.Output)
		fmt.Printf("stages: %d\n", len(res.Trace))
		return nil
	})

	return g.Wait()
}

func persistRun(ctx context.Context, cfg *config.Config, logger *zap.Logger, startedAt time.Time, res *workflow.RunResult, runErr error) error {
	store, err := tracestore.Open(cfg.Store.DSN, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if runErr != nil {
		var werr *workflow.RunError
		if errors.As(runErr, &werr) {
			_, err = store.SaveFailure(ctx, "sample", startedAt, werr)
			return err
		}
		return nil
	}
	_, err = store.SaveResult(ctx, "sample", startedAt, res)
	return err
}

func graphCmd(args []string) error {
	format := workflow.FormatDOT
	rest := args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		format = workflow.GraphFormat(args[0])
		rest = args[1:]
	}
	cfg, err := loadConfig(rest)
	if err != nil {
		return err
	}

	wf := samplePipeline(workflow.Options{
		LogDir:  cfg.Log.Dir,
		LogFile: cfg.Log.File,
	})
	out, err := wf.VisualizeGraph(format)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// samplePipeline assembles a small document-processing chain exercising every
// stage kind: fetch, concurrent enrichment, and delivery with a fallback.
func samplePipeline(opts workflow.Options) *workflow.Workflow {
	return workflow.Start(opts).
		Step("fetch", func(ctx context.Context, input any, log workflow.LogFunc) (any, error) {
			log("fetching documents")
			docs := input.([]string)
			return docs, nil
		}).
		Parallel("enrich", map[string]workflow.Task{
			"wordcount": func(ctx context.Context, input any, log workflow.LogFunc) (any, error) {
				total := 0
				for _, d := range input.([]string) {
					total += len(strings.Fields(d))
				}
				return total, nil
			},
			"summary": func(ctx context.Context, input any, log workflow.LogFunc) (any, error) {
				docs := input.([]string)
				if len(docs) == 0 {
					return "", errors.New("nothing to summarize")
				}
				return docs[0][:min(40, len(docs[0]))], nil
			},
		}).
		Fallback("deliver",
			func(ctx context.Context, input any, log workflow.LogFunc) (any, error) {
				log("delivering via primary channel")
				return input, nil
			},
			func(ctx context.Context, input any, log workflow.LogFunc) (any, error) {
				log("primary delivery failed, writing to spool")
				return input, nil
			})
}

func sampleInput() []string {
	return []string{
		"the quick brown fox jumps over the lazy dog",
		"pack my box with five dozen liquor jugs",
	}
}
