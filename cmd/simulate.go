package cmd

import (
	"encoding/json"
	"os"
	"time"

	"github.com/chrisdamba/menusync/internal/activity"
	"github.com/chrisdamba/menusync/internal/simulator"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run several devices of one user against a shared store and check convergence",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		output, err := activity.NewOutput(cfg, logger)
		if err != nil {
			return err
		}
		recorder := activity.NewRecorder(output, logger)
		defer recorder.Close()

		sim := simulator.NewSimulator(cfg, recorder, logger)
		bar := progressbar.Default(-1, "simulating")
		sim.Progress = func() { _ = bar.Add(1) }

		report, err := sim.Run(cmd.Context())
		if err != nil {
			return err
		}
		_ = bar.Finish()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	simulateCmd.Flags().Int64("seed", 42, "Random seed for simulation")
	simulateCmd.Flags().Int("devices", 2, "Number of devices sharing the user")
	simulateCmd.Flags().Int("actions", 50, "Number of user actions")
	simulateCmd.Flags().Int("menu-items", 20, "Number of generated menu items")
	simulateCmd.Flags().Duration("interval", time.Second, "Mean simulated time between actions")

	_ = viper.BindPFlag("simulation.seed", simulateCmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("simulation.devices", simulateCmd.Flags().Lookup("devices"))
	_ = viper.BindPFlag("simulation.actions", simulateCmd.Flags().Lookup("actions"))
	_ = viper.BindPFlag("simulation.menu_items", simulateCmd.Flags().Lookup("menu-items"))
	_ = viper.BindPFlag("simulation.interval", simulateCmd.Flags().Lookup("interval"))
}
