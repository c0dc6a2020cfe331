package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/bucksim/internal/config"
	"github.com/san-kum/bucksim/internal/dynamo"
	"github.com/san-kum/bucksim/internal/physics"
	"github.com/san-kum/bucksim/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	themeName  string
	preset     string

	model          string
	integrator     string
	vin            float64
	inductance     float64
	resistance     float64
	capacitance    float64
	frequency      float64
	duty           float64
	duration       float64
	dt             float64
	stepsPerPeriod int
	validateState  bool

	noSave     bool
	figurePath string
	htmlPath   string
	signalName string
	sweepSteps []int
	target     float64
	dutyFrom   float64
	dutyTo     float64
	dutyStep   float64

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "bucksim",
		Short:             "buck converter transient simulator",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		// With no subcommand, open the replay of a nominal run.
		RunE: runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config, .bucksim)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from config, info)")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "",
		fmt.Sprintf("color theme: %s (default from config, scope)", strings.Join(viz.ThemeNames(), ", ")))

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addParamFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&figurePath, "figure", "", "also render a figure (png, svg, pdf)")
	runCmd.Flags().StringVar(&htmlPath, "html", "", "also write an interactive html chart")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "replay a run in the terminal, adjusting D interactively",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addParamFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "compare final-period accuracy across step sizes",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addParamFlags(sweepCmd)
	sweepCmd.Flags().IntSliceVar(&sweepSteps, "steps", []int{400, 200, 100, 50, 25}, "steps per switching period to compare")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "search the duty ratio whose final-period mean hits a target voltage",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addParamFlags(tuneCmd)
	tuneCmd.Flags().Float64Var(&target, "target", 12, "target mean output voltage (V)")
	tuneCmd.Flags().Float64Var(&dutyFrom, "duty-from", 0.05, "first duty ratio tried")
	tuneCmd.Flags().Float64Var(&dutyTo, "duty-to", 0.95, "last duty ratio tried")
	tuneCmd.Flags().Float64Var(&dutyStep, "duty-step", 0.01, "duty ratio increment")

	stabilityCmd := &cobra.Command{
		Use:   "stability",
		Short: "explicit Euler stability of both topologies",
		Args:  cobra.NoArgs,
		RunE:  showStability,
	}
	addParamFlags(stabilityCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&signalName, "signal", "vout", "vout, il or both")

	renderCmd := &cobra.Command{
		Use:   "render [run_id] [file]",
		Short: "render vout with its Voutmed line to png, svg or pdf",
		Args:  cobra.ExactArgs(2),
		RunE:  renderRun,
	}

	htmlCmd := &cobra.Command{
		Use:   "html [run_id] [file]",
		Short: "write an interactive html chart of a run",
		Args:  cobra.ExactArgs(2),
		RunE:  htmlRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [file]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	addParamFlags(initConfigCmd)

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, tuneCmd, stabilityCmd, listCmd, plotCmd, renderCmd, htmlCmd,
		exportCSVCmd, exportJSONCmd, presetsCmd, initConfigCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "start from a named preset")
	f.StringVar(&model, "model", config.DefaultModel, "buck or buck_averaged")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	f.Float64Var(&vin, "vin", physics.DefaultVin, "source voltage (V)")
	f.Float64VarP(&inductance, "inductance", "L", physics.DefaultInductance, "inductance (H)")
	f.Float64VarP(&resistance, "resistance", "R", physics.DefaultResistance, "load resistance (Ω)")
	f.Float64VarP(&capacitance, "capacitance", "C", physics.DefaultCapacitance, "output capacitance (F)")
	f.Float64Var(&frequency, "fs", physics.DefaultFrequency, "switching frequency (Hz)")
	f.Float64VarP(&duty, "duty", "D", physics.DefaultDuty, "duty ratio in (0, 1)")
	f.Float64Var(&duration, "time", physics.DefaultDuration, "simulated time (s)")
	f.Float64Var(&dt, "dt", 0, "Euler step (s); 0 derives it from --steps-per-period")
	f.IntVar(&stepsPerPeriod, "steps-per-period", physics.DefaultStepsPerTs, "Euler steps per switching period")
	f.BoolVar(&validateState, "validate-state", false, "record the first non-finite sample")
}

// setup resolves the data directory and log level from the config layers
// unless given on the command line.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir == "" {
		dataDir = cfg.Output.DataDir
	}
	if logLevel == "" {
		logLevel = cfg.Output.LogLevel
	}
	if themeName == "" {
		themeName = cfg.Output.Theme
	}
	if err := viz.SetTheme(themeName); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("%w: log level %q", dynamo.ErrInvalidConfig, logLevel)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	return nil
}

// loadConfig layers preset, config file, environment and finally any flag
// set explicitly on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	base := config.DefaultConfig()
	if preset != "" {
		base = config.GetPreset(preset)
		if base == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	cfg, err := config.LoadFrom(base, configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = model
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("vin") {
		cfg.Circuit.Vin = vin
	}
	if flags.Changed("inductance") {
		cfg.Circuit.Inductance = inductance
	}
	if flags.Changed("resistance") {
		cfg.Circuit.Resistance = resistance
	}
	if flags.Changed("capacitance") {
		cfg.Circuit.Capacitance = capacitance
	}
	if flags.Changed("fs") {
		cfg.Switching.Frequency = frequency
	}
	if flags.Changed("duty") {
		cfg.Switching.Duty = duty
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("steps-per-period") {
		cfg.Run.StepsPerPeriod = stepsPerPeriod
		cfg.Run.Dt = 0
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("validate-state") {
		cfg.Run.ValidateState = validateState
	}

	logger.Debug("resolved config", "preset", preset, "file", configFile, "model", cfg.Model)
	return cfg, nil
}

// resolveParams returns validated parameters for cmd.
func resolveParams(cmd *cobra.Command) (*config.Config, physics.BuckParams, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, physics.BuckParams{}, err
	}
	p := cfg.Params()
	if err := p.Validate(); err != nil {
		return nil, physics.BuckParams{}, err
	}
	return cfg, p, nil
}
