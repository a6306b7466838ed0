// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/nddlab/ndd"
	"github.com/nddlab/ndd/internal/queens"
	"github.com/nddlab/ndd/metrics"
	"github.com/nddlab/ndd/satcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	countFlat   = "flat"
	countFields = "fields"
)

type options struct {
	sizes       []int
	config      string
	verify      bool
	count       string
	metricsAddr string
	stats       bool
	debug       bool
}

// result is the outcome of one board size.
type result struct {
	n         int
	solutions *big.Int
	nodes     int
	elapsed   time.Duration
	verified  bool
	stats     ndd.Stats
}

func newRootCmd() *cobra.Command {
	o := options{}

	cmd := &cobra.Command{
		Use:          "nddqueens",
		Short:        "Counts the solutions of the N-queens problem",
		Long:         `Builds the N-queens constraint with nested decision diagrams, one field per row, and counts its solutions. Board sizes are computed in parallel, each with its own engine.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())
			if o.debug {
				logger.SetLevel(logrus.DebugLevel)
			}
			return o.run(cmd.Context(), logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntSliceVarP(&o.sizes, "n", "n", []int{8}, "board sizes (repeatable or comma separated)")
	cmd.Flags().StringVar(&o.config, "config", "", "path to a YAML file with the engine options")
	cmd.Flags().BoolVar(&o.verify, "verify", false, "cross-check each result with a SAT solver")
	cmd.Flags().StringVar(&o.count, "count", countFlat, "counting method: flat or fields")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	cmd.Flags().BoolVar(&o.stats, "stats", false, "print the statistics of each engine")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "use debug log level")

	return cmd
}

func (o *options) engineOptions(logger logrus.FieldLogger) ([]ndd.Option, error) {
	opts := []ndd.Option{ndd.Logger(logger)}
	if o.config == "" {
		return opts, nil
	}
	f, err := os.Open(o.config)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ndd.LoadConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", o.config)
	}
	return append(opts, c.Options()...), nil
}

func (o *options) run(ctx context.Context, logger *logrus.Logger, out io.Writer) error {
	if o.count != countFlat && o.count != countFields {
		return errors.Errorf("unknown counting method %q", o.count)
	}
	sizes := dedup(o.sizes)
	for _, n := range sizes {
		if n <= 0 {
			return errors.Errorf("bad board size (%d)", n)
		}
	}
	opts, err := o.engineOptions(logger)
	if err != nil {
		return err
	}

	engines := make([]*ndd.Engine, len(sizes))
	registry := prometheus.NewRegistry()
	for k, n := range sizes {
		if engines[k], err = ndd.New(opts...); err != nil {
			return err
		}
		registry.MustRegister(metrics.NewCollector(fmt.Sprintf("queens-%d", n), engines[k]))
	}
	if o.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: o.metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("metrics server")
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Infof("serving metrics on %s", o.metricsAddr)
	}

	results := make([]result, len(sizes))
	g, gctx := errgroup.WithContext(ctx)
	for k := range sizes {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := o.solve(engines[k], sizes[k], logger)
			results[k] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	for _, res := range results {
		fmt.Fprintf(out, "%s solutions=%s nodes=%d time=%s",
			bold(fmt.Sprintf("N=%d", res.n)), color.GreenString(res.solutions.String()), res.nodes, res.elapsed.Round(time.Millisecond))
		if res.verified {
			fmt.Fprintf(out, " %s", color.CyanString("verified"))
		}
		fmt.Fprintln(out)
		if o.stats {
			fmt.Fprint(out, res.stats)
		}
	}
	return nil
}

// solve builds and counts the constraint of size n in engine e.
func (o *options) solve(e *ndd.Engine, n int, logger logrus.FieldLogger) (result, error) {
	log := logger.WithField("n", n)
	start := time.Now()
	queen, err := queens.Build(e, n)
	if err != nil {
		return result{}, errors.Wrapf(err, "N=%d", n)
	}
	res := result{n: n}
	switch o.count {
	case countFields:
		res.solutions = e.SatCountFields(queen)
	default:
		res.solutions = e.SatCount(queen)
	}
	res.elapsed = time.Since(start)
	if err := e.Err(); err != nil {
		return result{}, errors.Wrapf(err, "N=%d", n)
	}
	res.nodes = e.NodeCount()
	log.WithFields(logrus.Fields{
		"solutions": res.solutions,
		"nodes":     res.nodes,
		"elapsed":   res.elapsed,
	}).Debug("board done")
	if o.verify {
		if err := satcheck.Verify(e, queen); err != nil {
			return result{}, errors.Wrapf(err, "N=%d", n)
		}
		res.verified = true
	}
	res.stats = e.Stats()
	return res, nil
}

// dedup returns the sorted list of distinct sizes.
func dedup(sizes []int) []int {
	seen := make(map[int]bool)
	var res []int
	for _, n := range sizes {
		if !seen[n] {
			seen[n] = true
			res = append(res, n)
		}
	}
	sort.Ints(res)
	return res
}
