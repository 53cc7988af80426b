package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (s *state) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [MANIFEST]",
		Short: "Rebuild every asset that is out of date",
		Args:  cobra.MaximumNArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			s.manifestArg(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := s.app.Build(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(s.outW, "built %d, skipped %d, failed %d, warnings %d, aborted %d in %s\n",
				report.Built, report.Skipped, report.Failed, report.Warned, report.Aborted, report.Duration.Round(time.Millisecond))
			if !report.Success {
				return &ExitError{Code: 1, Message: fmt.Sprintf("build failed: %d asset(s) failed, %d not started", report.Failed, report.Aborted)}
			}
			return nil
		},
	}
	f := cmd.Flags()
	cfg := s.cfg
	f.BoolVarP(&cfg.Force, "force", "f", cfg.Force, "Rebuild every asset regardless of staleness")
	f.BoolVar(&cfg.FailFast, "fail-fast", cfg.FailFast, "Stop starting new assets after the first failure")
	f.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of assets processed concurrently (0 = number of CPUs)")
	f.IntVar(&cfg.StatusPort, "status-port", cfg.StatusPort, "Port for the HTTP status server. 0 is disabled")
	f.StringVar(&cfg.FeedURL, "feed-url", cfg.FeedURL, "socket.io URL receiving live build events")
	f.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP/HTTP endpoint for build traces")
	return cmd
}

func (s *state) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [MANIFEST]",
		Short: "Show which assets a build would process and why",
		Args:  cobra.MaximumNArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			s.manifestArg(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := s.app.Status(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(s.outW, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATE\tASSET\tPROCESSOR\tBUNDLE")
			stale := 0
			for _, e := range entries {
				if e.Reason.Stale() {
					stale++
				}
				bundle := e.Bundle
				if bundle == "" {
					bundle = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Reason, e.Asset, e.Processor, bundle)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(s.outW, "%d of %d asset(s) out of date\n", stale, len(entries))
			return nil
		},
	}
}

func (s *state) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [MANIFEST]",
		Short: "Check the manifest against the registered processors",
		Args:  cobra.MaximumNArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			s.manifestArg(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			problems, err := s.app.Validate(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range problems {
				fmt.Fprintf(s.outW, "%s: %v\n", p.Asset, p.Err)
			}
			if len(problems) > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("manifest has %d problem(s)", len(problems))}
			}
			fmt.Fprintln(s.outW, "manifest is valid")
			return nil
		},
	}
}

func (s *state) pruneCommand() *cobra.Command {
	var removeOutputs bool
	cmd := &cobra.Command{
		Use:   "prune [MANIFEST]",
		Short: "Forget assets that are no longer in the manifest",
		Args:  cobra.MaximumNArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			s.manifestArg(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := s.app.Prune(cmd.Context(), removeOutputs)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(s.outW, "pruned %s\n", p)
			}
			fmt.Fprintf(s.outW, "%d asset(s) pruned\n", len(paths))
			return nil
		},
	}
	cmd.Flags().BoolVar(&removeOutputs, "remove-outputs", false, "Also delete the outputs of pruned assets")
	return cmd
}

func (s *state) cleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [MANIFEST]",
		Short: "Delete every tracked output and reset the tracker",
		Args:  cobra.MaximumNArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			s.manifestArg(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := s.app.Clean(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(s.outW, "%d file(s) removed\n", n)
			return nil
		},
	}
}

func (s *state) processorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "processors",
		Short: "List the registered processors and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range s.app.Processors() {
				fmt.Fprintf(s.outW, "%s", d.Name)
				if len(d.Extensions) > 0 {
					fmt.Fprintf(s.outW, " (%s)", strings.Join(d.Extensions, ", "))
				}
				fmt.Fprintln(s.outW)
				if d.Description != "" {
					fmt.Fprintf(s.outW, "  %s\n", d.Description)
				}
				tw := tabwriter.NewWriter(s.outW, 0, 4, 2, ' ', 0)
				for _, p := range d.Parameters {
					kind := p.Kind.String()
					if len(p.Options) > 0 {
						kind = strings.Join(p.Options, "|")
					}
					fmt.Fprintf(tw, "  %s\t%s\tdefault %q\t%s\n", p.Name, kind, p.Default.String(), p.Description)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
