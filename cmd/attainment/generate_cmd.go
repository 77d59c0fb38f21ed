package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/infrastructure/xlsx"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
	distribution "github.com/jacksonlee411/attainment-reports/modules/distribution/services"
)

const progressStep = 50

type failureRow struct {
	Label  string `json:"label"`
	Region string `json:"region"`
	Error  string `json:"error"`
}

type generateSummary struct {
	RunID        string                 `json:"run_id"`
	FiscalYear   string                 `json:"fiscal_year"`
	Total        int                    `json:"total"`
	Written      int                    `json:"written"`
	RegionCounts map[string]int         `json:"region_counts"`
	Managers     []services.Artifact    `json:"managers"`
	Failures     []failureRow           `json:"failures"`
	Archive      string                 `json:"archive,omitempty"`
	Package      *distribution.Metadata `json:"package,omitempty"`
}

func summarize(res *services.Result) generateSummary {
	s := generateSummary{
		RunID:        res.RunID.String(),
		FiscalYear:   res.FiscalYear,
		Total:        res.Total,
		Written:      res.Written(),
		RegionCounts: res.RegionCounts,
		Managers:     res.Managers,
		Failures:     make([]failureRow, 0, len(res.Failures)),
	}
	if s.Managers == nil {
		s.Managers = []services.Artifact{}
	}
	for _, f := range res.Failures {
		s.Failures = append(s.Failures, failureRow{Label: f.Label, Region: f.Region, Error: f.Err.Error()})
	}
	return s
}

// partial turns per-manager failures into the partial exit code.
func partial(res *services.Result) error {
	if res == nil || len(res.Failures) == 0 {
		return nil
	}
	return withCode(exitPartial, errors.Errorf("%d of %d reports failed", len(res.Failures), res.Total))
}

func bindGenerateFlags(cmd *cobra.Command, f *generateFlags) {
	cmd.Flags().StringVar(&f.source, "source", "", "Source table (.xlsx or .csv)")
	cmd.Flags().StringVar(&f.output, "output", "", "Output root (default ATTAINMENT_OUTPUT_DIR)")
	cmd.Flags().StringSliceVar(&f.regions, "region", nil, "Only generate managers of this region (repeatable)")
	cmd.Flags().StringVar(&f.fiscalYear, "fiscal-year", "", "Fiscal year, e.g. FY26 (default: detect)")
	cmd.Flags().StringVar(&f.match, "match", "", "Direct report matching: label or id")
	cmd.Flags().BoolVar(&f.strict, "strict-schema", false, "Fail when the source lacks a report column")
}

func newGenerateCmd(g *globalOptions) *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write one attainment workbook per manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.generate(cmd.Context(), f, progressPrinter(cmd.ErrOrStderr(), progressStep))
			if res == nil {
				return err
			}
			if werr := writeJSON(cmd.OutOrStdout(), summarize(res)); werr != nil {
				return werr
			}
			if err != nil {
				return err
			}
			return partial(res)
		},
	}
	bindGenerateFlags(cmd, f)
	return cmd
}

func newPackageCmd(g *globalOptions) *cobra.Command {
	f := &generateFlags{}
	var (
		roster     string
		archiveDir string
	)
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Generate the reports and archive them with a manager metadata sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			if roster == "" {
				return withCode(exitUsage, errors.New("--roster is required"))
			}
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.close()

			emails, err := xlsx.ReadRoster(roster, xlsx.RosterOptions{
				Sheet:     a.cfg.RosterSheet,
				HeaderRow: a.cfg.RosterHeaderRow,
			})
			if err != nil {
				return classify(errors.Wrap(err, "roster"))
			}
			res, err := a.generate(cmd.Context(), f, progressPrinter(cmd.ErrOrStderr(), progressStep))
			if err != nil {
				return err
			}

			dir := archiveDir
			if dir == "" {
				dir = filepath.Join(a.cfg.OutputDir, "packages")
				if f.output != "" {
					dir = filepath.Join(f.output, "packages")
				}
			}
			path, meta, err := distribution.WritePackage(res, distribution.NewRoster(emails), dir, time.Now())
			if err != nil {
				return classify(err)
			}
			a.entry("package").WithField("archive", path).Info("package written")

			s := summarize(res)
			s.Archive = path
			s.Package = meta
			if err := writeJSON(cmd.OutOrStdout(), s); err != nil {
				return err
			}
			return partial(res)
		},
	}
	bindGenerateFlags(cmd, f)
	cmd.Flags().StringVar(&roster, "roster", "", "Roster workbook mapping Employee ID to Email - Work")
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "", "Folder for the archive (default <output>/packages)")
	return cmd
}

func requireFile(flag, path string) error {
	if path == "" {
		return withCode(exitUsage, errors.Errorf("--%s is required", flag))
	}
	if _, err := os.Stat(path); err != nil {
		return withCode(exitIO, errors.Wrapf(err, "--%s", flag))
	}
	return nil
}
