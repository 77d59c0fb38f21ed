package main

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
)

type regionsSummary struct {
	Rows       int      `json:"rows"`
	Managers   int      `json:"managers"`
	FiscalYear string   `json:"fiscal_year"`
	Regions    []string `json:"regions"`
}

func newRegionsCmd(g *globalOptions) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List the resolved manager regions of a source table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.records(source)
			if err != nil {
				return err
			}
			idx := services.BuildIndex(records)
			regions := services.ResolveRegions(idx, records)
			fy := a.cfg.FiscalYear
			if fy == "" {
				fy = services.DetectFiscalYear(records, services.DefaultFiscalYear)
			}
			return writeJSON(cmd.OutOrStdout(), regionsSummary{
				Rows:       len(records),
				Managers:   idx.ManagerCount(),
				FiscalYear: fy,
				Regions:    regions.AllRegions(),
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source table (.xlsx or .csv)")
	return cmd
}

type managerRow struct {
	Label    string `json:"label"`
	Region   string `json:"region"`
	TopLevel bool   `json:"top_level"`
}

func newManagersCmd(g *globalOptions) *cobra.Command {
	var (
		source string
		region string
		find   string
	)
	cmd := &cobra.Command{
		Use:   "managers",
		Short: "List manager labels with their resolved region",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.records(source)
			if err != nil {
				return err
			}
			idx := services.BuildIndex(records)
			regions := services.ResolveRegions(idx, records)
			top := make(map[string]bool)
			for _, label := range services.TopLevel(idx) {
				top[label] = true
			}

			labels := idx.Labels()
			if find != "" {
				ranks := fuzzy.RankFindNormalizedFold(find, labels)
				sort.Stable(ranks)
				labels = labels[:0]
				for _, r := range ranks {
					labels = append(labels, r.Target)
				}
			}
			rows := make([]managerRow, 0, len(labels))
			for _, label := range labels {
				r := regions.Region(label)
				if region != "" && r != region {
					continue
				}
				rows = append(rows, managerRow{Label: label, Region: r, TopLevel: top[label]})
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source table (.xlsx or .csv)")
	cmd.Flags().StringVar(&region, "region", "", "Only managers of this region")
	cmd.Flags().StringVar(&find, "find", "", "Rank managers by fuzzy match against this query")
	return cmd
}
