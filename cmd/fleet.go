package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solartelemetry/core/fleet"
	"github.com/kilianp07/solartelemetry/core/random"
)

func newFleetCmd(o *options) *cobra.Command {
	fleetCmd := &cobra.Command{
		Use:   "fleet",
		Short: "Fleet related commands",
	}
	fleetCmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List the panels generated for a seed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFleetLs(cmd, o)
		},
	})
	return fleetCmd
}

func runFleetLs(cmd *cobra.Command, o *options) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	sim := cfg.Simulation
	panels := fleet.Generate(random.New(sim.Seed), sim.Panels, sim.Seed)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PANEL\tSTRING\tP_STC_W\tV_MPPT\tI_STC_A\tTEMP_COEFF\tDEGR_PER_DAY\tJITTER\tORIENT\tTILT")
	for _, p := range panels {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.2f\t%.2f\t%.5f\t%.6f\t%.3f\t%.1f\t%.1f\n",
			p.PanelID, p.StringID, p.PStcW, p.VMppt, p.IStcA, p.TempCoeffP,
			p.DegradationPerDay, p.EfficiencyJitter, p.OrientationDeg, p.TiltDeg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d panels in %d strings\n", len(panels), len(fleet.Strings(panels)))
	return err
}
