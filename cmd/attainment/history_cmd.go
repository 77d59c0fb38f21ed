package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/infrastructure/persistence"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var (
		limit     int
		artifacts bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generation runs from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.close()
			if a.cfg.LedgerPath == "" {
				return withCode(exitUsage, errors.New("ledger is disabled, set ATTAINMENT_LEDGER_PATH"))
			}
			if err := a.openLedger(); err != nil {
				return err
			}

			runs, err := a.ledger.Recent(cmd.Context(), limit)
			if err != nil {
				return withCode(exitIO, err)
			}
			if !artifacts {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			type runWithArtifacts struct {
				persistence.Run
				Artifacts []services.Artifact `json:"artifacts"`
			}
			out := make([]runWithArtifacts, 0, len(runs))
			for _, r := range runs {
				arts, err := a.ledger.Artifacts(cmd.Context(), r.ID)
				if err != nil {
					return withCode(exitIO, err)
				}
				out = append(out, runWithArtifacts{Run: r, Artifacts: arts})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "Include the reports written by each run")
	return cmd
}
