package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"currentflow"
	"currentflow/metrics"
)

type globalOptions struct {
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "currentflow",
		Short:         "DC power flow over grid wire networks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "Log format: console or json")

	rootCmd.AddCommand(
		newSolveCmd(opts),
		newGraphCmd(opts),
	)
	return rootCmd
}

func newSolveCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	var metricsPath string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "solve <network.toml>",
		Short: "Solve branch flows for every network in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			config, networks, err := loadNetworks(args[0])
			if err != nil {
				return err
			}

			recorder := metrics.NewRecorder()
			solver, err := currentflow.NewSolver(&config,
				currentflow.WithLogger(log),
				currentflow.WithObserver(recorder))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			log.Info("solving networks", zap.String("file", args[0]), zap.Int("networks", len(networks)))
			outcomes, err := solver.SolveAll(ctx, networks)
			if err != nil {
				return errors.Wrap(err, "solve")
			}

			out := cmd.OutOrStdout()
			if asJSON {
				err = writeJSON(out, outcomes)
			} else {
				err = writeTable(out, outcomes)
			}
			if err != nil {
				return err
			}

			if metricsPath != "" {
				if err := recorder.Write(metricsPath); err != nil {
					return errors.Wrap(err, "write metrics")
				}
			}

			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return errors.Errorf("%d of %d networks failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().StringVar(&metricsPath, "metrics-textfile", "", "Write Prometheus metrics to this file")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0: no limit)")

	return cmd
}

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var matrix bool

	cmd := &cobra.Command{
		Use:   "graph <network.toml>",
		Short: "Print the node/branch graph of every network in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			config, networks, err := loadNetworks(args[0])
			if err != nil {
				return err
			}

			builder, err := currentflow.NewBuilder(&config, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, net := range networks {
				g, err := builder.Build(net)
				if err != nil {
					return errors.Wrapf(err, "network %s", net.ID)
				}
				if err := writeGraph(out, net.ID, g); err != nil {
					return err
				}
				if !matrix || len(g.Nodes) <= 1 {
					continue
				}

				b, _, err := currentflow.BuildSystem(g)
				if err != nil {
					return errors.Wrapf(err, "network %s", net.ID)
				}
				m, err := currentflow.ReducedMatrix(b, &config)
				if err != nil {
					return errors.Wrapf(err, "network %s", net.ID)
				}
				fmt.Fprintln(out)
				m.Fprint(out, true, true)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&matrix, "matrix", false, "Also print the reduced susceptance matrix")

	return cmd
}
