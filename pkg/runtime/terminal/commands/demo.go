package commands

import (
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump/synthetic"
	"github.com/de-tools/data-pump/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type DemoCmd struct {
	days          int
	seed          int
	minPassengers int
	output        string
	env           *Env
}

func NewDemoCmd(env *Env) *cobra.Command {
	dc := &DemoCmd{env: env}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a sample report over generated ferry sailings",
		Args:  cobra.NoArgs,
		RunE:  dc.run,
	}

	cmd.Flags().IntVar(&dc.days, "days", 3, "Number of travel days to generate")
	cmd.Flags().IntVar(&dc.seed, "seed", 1, "Generator seed")
	cmd.Flags().IntVar(&dc.minPassengers, "min-passengers", 0, "Only show sailings with at least this many passengers")
	cmd.Flags().StringVarP(&dc.output, "output", "o", string(export.FormatTable), "Output format: table or json")

	return cmd
}

// DemoReport groups sailings by day, busiest first, filtered by the
// min_passengers parameter.
func DemoReport(days, seed int) (domain.ReportConfig, error) {
	minPassengers, err := domain.NewParameter("min_passengers", domain.TypeInteger,
		domain.WithLabel("Minimum passengers"),
		domain.WithDefault(int64(0)))
	if err != nil {
		return domain.ReportConfig{}, err
	}

	return domain.NewReport(synthetic.FerryCarriesName).
		Named("Ferry sailings by day").
		Fields("travel_date", "travel_time", "number_of_passengers", "number_of_vehicles").
		Filter("number_of_passengers", domain.Compare(domain.OpGte, domain.Param("min_passengers"))).
		GroupOn("travel_date").
		SortBy("number_of_passengers", domain.Desc).
		Option("days", domain.Lit(int64(days))).
		Option("seed", domain.Lit(int64(seed))).
		Parameter(minPassengers).
		Build(), nil
}

func (dc *DemoCmd) run(cmd *cobra.Command, _ []string) error {
	svc, err := dc.env.service()
	if err != nil {
		return err
	}
	if err := dc.env.Reporter.SetFormat(export.Format(dc.output)); err != nil {
		return err
	}

	cfg, err := DemoReport(dc.days, dc.seed)
	if err != nil {
		return err
	}
	table, err := svc.Engine().Run(cmd.Context(), cfg, map[string]any{
		"min_passengers": int64(dc.minPassengers),
	})
	if err != nil {
		return err
	}
	return dc.env.Reporter.Handle(cfg.Name, table)
}
