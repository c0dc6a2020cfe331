package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/bucksim/internal/config"
)

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tD\tR\tSTEPS/TS\tDURATION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%g\t%d\t%gs\n",
			name, cfg.Switching.Duty, cfg.Circuit.Resistance, cfg.Run.StepsPerPeriod, cfg.Run.Duration)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Params().Validate(); err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	logger.Info("wrote config", "path", args[0])
	return nil
}
