package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"noro_planning/pkg/core/assumption"
	"noro_planning/pkg/core/config"
	"noro_planning/pkg/core/export"
	"noro_planning/pkg/core/logging"
	"noro_planning/pkg/core/projection"
	"noro_planning/pkg/core/store"
	"noro_planning/pkg/core/validate"
)

type options struct {
	out             io.Writer
	configPath      string
	assumptionsPath string
	unit            string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{out: out}

	cmd := &cobra.Command{
		Use:           "noro",
		Short:         "Multi-year cohort revenue, P&L and cash planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.assumptionsPath, "assumptions", "a", "",
		"Read assumptions from a .json or .hjson file instead of the store")
	cmd.PersistentFlags().StringVarP(&opts.unit, "unit", "u", string(assumption.UnitPrimary), "Business unit: primary or secondary")

	cmd.AddCommand(newProjectCmd(opts))
	cmd.AddCommand(newAnnualCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newAssumptionsCmd(opts))
	return cmd
}

func newProjectCmd(opts *options) *cobra.Command {
	var (
		year   int
		series string
		format string
	)
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print one year of a monthly series (months, pl or cash)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, _, unit, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}
			if year == 0 {
				year = e.Years()[0]
			}
			if format == "csv" {
				return export.Write(opts.out, e, series, unit, year)
			}

			p, err := e.ProjectYear(year, unit)
			if err != nil {
				return err
			}
			switch series {
			case export.SeriesMonths:
				return writeJSON(opts.out, p.Months)
			case export.SeriesPL:
				return writeJSON(opts.out, p.PL)
			case export.SeriesCash:
				return writeJSON(opts.out, p.Cash)
			}
			return fmt.Errorf("%w: %q", export.ErrUnknownSeries, series)
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Calendar year (defaults to the first simulated year)")
	cmd.Flags().StringVarP(&series, "series", "s", export.SeriesPL, "Series: months, pl or cash")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or json")
	return cmd
}

func newAnnualCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "annual",
		Short: "Print the annual summary of every simulated year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, _, unit, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}
			summaries, err := e.SummarizeAnnual(unit)
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(opts.out, summaries)
			}
			return export.WriteAnnualCSV(opts.out, summaries)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or json")
	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the plan as Markdown (or HTML with --html)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, a, unit, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}
			if html {
				page, err := export.HTMLReport(e, a, unit)
				if err != nil {
					return err
				}
				_, err = opts.out.Write(page)
				return err
			}
			md, err := export.MarkdownReport(e, a, unit)
			if err != nil {
				return err
			}
			_, err = io.WriteString(opts.out, md)
			return err
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Render HTML instead of Markdown")
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	var tolerance float64
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that P&L, cash and annual figures tie out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			unit, err := assumption.ParseUnit(opts.unit)
			if err != nil {
				return err
			}
			a, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			report, err := validate.CheckPlan(a, unit, tolerance)
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.out, report)
			for _, f := range report.Failures {
				fmt.Fprintf(opts.out, "  %d-%02d %s: expected %.2f, got %.2f\n", f.Year, f.Month, f.Name, f.Expected, f.Actual)
			}
			if !report.AllPassed {
				return fmt.Errorf("%d linkage checks failed", len(report.Failures))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&tolerance, "tolerance", validate.DefaultTolerance, "Largest accepted difference")
	return cmd
}

func newAssumptionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assumptions",
		Short: "Inspect and manage the saved assumptions",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective assumptions as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(opts.out, a)
		},
	}

	var outPath string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Reset the store to the defaults, or write them to --out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outPath != "" {
				data, _, err := assumption.Encode(assumption.Defaults())
				if err != nil {
					return err
				}
				return os.WriteFile(outPath, data, 0644)
			}
			s, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if _, err := s.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(opts.out, "assumptions reset to defaults")
			return nil
		},
	}
	initCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the defaults to this file instead of the store")

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Validate a .json or .hjson scenario file and save it to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := readAssumptions(args[0])
			if err != nil {
				return err
			}
			s, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			rev, err := s.Save(cmd.Context(), a)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "saved revision %s\n", rev)
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, importCmd)
	return cmd
}

// engine builds a projection engine over the effective assumptions.
func (o *options) engine(ctx context.Context) (*projection.Engine, *assumption.Assumptions, assumption.Unit, error) {
	unit, err := assumption.ParseUnit(o.unit)
	if err != nil {
		return nil, nil, "", err
	}
	a, err := o.load(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	e, err := projection.NewEngine(a)
	if err != nil {
		return nil, nil, "", err
	}
	return e, a, unit, nil
}

// load reads --assumptions when given, otherwise the configured store.
func (o *options) load(ctx context.Context) (*assumption.Assumptions, error) {
	if o.assumptionsPath != "" {
		return readAssumptions(o.assumptionsPath)
	}
	s, err := o.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.LoadOrDefault(o.withLogger(ctx)), nil
}

func (o *options) openStore(ctx context.Context) (*store.AssumptionStore, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	b, err := store.Open(ctx, cfg.StoreSettings())
	if err != nil {
		return nil, err
	}
	return store.NewAssumptionStore(b), nil
}

// withLogger attaches a stderr logger so store fallbacks are visible without
// polluting the command output.
func (o *options) withLogger(ctx context.Context) context.Context {
	if zerolog.Ctx(ctx).GetLevel() != zerolog.Disabled {
		return ctx
	}
	logger := logging.New(os.Stderr, "warn", true)
	return logger.WithContext(ctx)
}

func readAssumptions(path string) (*assumption.Assumptions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assumptions: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".hjson") {
		return assumption.DecodeHJSON(raw)
	}
	return assumption.Decode(raw)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
