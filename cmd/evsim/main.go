package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/evsim/internal/config"
	"github.com/san-kum/evsim/internal/metrics"
	"github.com/san-kum/evsim/internal/physics"
	"github.com/san-kum/evsim/internal/sim"
	"github.com/san-kum/evsim/internal/storage"
	"github.com/san-kum/evsim/internal/telemetry"
	"github.com/san-kum/evsim/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	logFile    string

	// Vehicle
	vehiclePreset string
	driveMode     string
	noRegen       bool

	// Scheduler
	clockMode string
	frameRate int

	// Headless runs
	cyclePreset string
	dt          float64
	duration    float64
	doExport    bool
	printJSON   bool
	plotNames   string

	redisAddr string
	redisKey  string
	force     bool
)

// main registers the evsim commands and runs the dashboard when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:           "evsim",
		Short:         "electric vehicle powertrain simulator",
		SilenceUsage:  true,
		RunE:          runLive,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "export directory (overrides config export.dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")
	rootCmd.PersistentFlags().StringVarP(&vehiclePreset, "vehicle", "v", "", "vehicle preset ("+strings.Join(config.ListPresets(), ", ")+")")
	rootCmd.PersistentFlags().StringVarP(&driveMode, "mode", "m", "", "drive mode ("+strings.Join(physics.DriveModes(), ", ")+")")
	rootCmd.PersistentFlags().BoolVar(&noRegen, "no-regen", false, "disable regenerative braking")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "publish telemetry to redis at host:port")
	rootCmd.PersistentFlags().StringVar(&redisKey, "redis-key", telemetry.DefaultKey, "redis hash and channel name")

	liveFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&clockMode, "clock", config.DefaultClock, "tick clock (wall, fixed)")
		cmd.Flags().IntVar(&frameRate, "fps", sim.DefaultFrameRate, "ticks per second")
	}
	liveFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive dashboard",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveFlags(liveCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a drive cycle headless and print a summary",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	runCmd.Flags().StringVarP(&cyclePreset, "cycle", "c", "", "drive cycle ("+strings.Join(sim.CyclePresetNames(), ", ")+")")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step (s)")
	runCmd.Flags().Float64VarP(&duration, "time", "t", 0, "duration (s), 0 runs the whole cycle")
	runCmd.Flags().BoolVar(&doExport, "export", false, "export the history buffers to CSV")
	runCmd.Flags().BoolVar(&printJSON, "json", false, "print the final state as JSON")
	runCmd.Flags().StringVar(&plotNames, "plot", "speed,soc", "comma separated channels to plot, or none")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "run the same cycle in every drive mode",
		Args:  cobra.NoArgs,
		RunE:  compareModes,
	}
	compareCmd.Flags().StringVarP(&cyclePreset, "cycle", "c", "", "drive cycle")
	compareCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step (s)")
	compareCmd.Flags().Float64VarP(&duration, "time", "t", 0, "duration (s), 0 runs the whole cycle")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list vehicle and drive cycle presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configInitCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	exportsCmd := &cobra.Command{
		Use:   "exports [name]",
		Short: "list CSV exports, or plot one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listExports,
	}

	rootCmd.AddCommand(liveCmd, runCmd, compareCmd, presetsCmd, configCmd, exportsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config over the defaults and applies flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if vehiclePreset != "" {
		p, ok := config.GetPreset(vehiclePreset)
		if !ok {
			return nil, fmt.Errorf("unknown vehicle preset: %s (available: %v)", vehiclePreset, config.ListPresets())
		}
		cfg.Vehicle = p
	}
	if driveMode != "" {
		if err := cfg.Vehicle.SetDriveMode(driveMode); err != nil {
			return nil, err
		}
	}
	if noRegen {
		cfg.Vehicle.RegenBraking = false
	}
	if flags.Changed("clock") {
		cfg.Scheduler.Clock = clockMode
	}
	if flags.Changed("fps") {
		cfg.Scheduler.FrameRate = frameRate
	}
	if flags.Changed("cycle") {
		cfg.Cycle = config.CycleConfig{Preset: cyclePreset}
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("data") {
		cfg.Export.Dir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if redisAddr != "" {
		cfg.Telemetry.Addr = redisAddr
	}
	if flags.Changed("redis-key") {
		cfg.Telemetry.Key = redisKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging applies the configured level and destination. quiet discards
// output when no log file is given, which keeps the dashboard intact.
func setupLogging(cfg *config.Config, quiet bool) (func(), error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)

	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logrus.SetOutput(f)
		return func() { f.Close() }, nil
	case quiet:
		logrus.SetOutput(io.Discard)
	default:
		logrus.SetOutput(os.Stderr)
	}
	return func() {}, nil
}

// startTelemetry attaches a redis publisher when one is configured.
func startTelemetry(ctx context.Context, cfg *config.Config, s *sim.Simulator) (func(), error) {
	if cfg.Telemetry.Addr == "" {
		return func() {}, nil
	}
	pub, err := telemetry.Dial(ctx, cfg.Telemetry.Addr, cfg.Telemetry.Key)
	if err != nil {
		return nil, err
	}
	s.AddObserver(pub)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		pub.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
		pub.Close()
	}, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := sim.New(cfg.Vehicle, cfg.Models)
	if err != nil {
		return err
	}
	collector := metrics.NewCollector(metrics.Standard()...)
	s.AddObserver(collector)

	sched, err := sim.NewScheduler(s, cfg.Scheduler.FrameRate, cfg.ClockMode())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	stopTelemetry, err := startTelemetry(ctx, cfg, s)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	go sched.Run(ctx)

	m := viz.NewModel(s, storage.New(cfg.Export.Dir), collector)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	channels, err := parseChannels(plotNames)
	if err != nil {
		return err
	}

	cycle, err := cfg.Cycle.Build()
	if err != nil {
		return err
	}
	s, err := sim.New(cfg.Vehicle, cfg.Models)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(metrics.Standard()...)
	trace := newTrace(channels)
	s.AddObserver(collector)
	s.AddObserver(trace)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	stopTelemetry, err := startTelemetry(ctx, cfg, s)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	runCfg := cfg.SimConfig(cycle)
	logrus.Infof("running %.0fs at dt=%gs with %s", runCfg.Duration, runCfg.Dt, cfg.Vehicle.DriveMode)
	snap, err := s.RunFor(ctx, runCfg, cycle)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if printJSON {
		return storage.ExportJSON(os.Stdout, snap)
	}

	out := cmd.OutOrStdout()
	printSummary(out, snap, collector.Values())
	trace.plot(out)

	if doExport {
		path, err := storage.New(cfg.Export.Dir).Export(snap.Params, snap.History)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "exported %s\n", path)
	}
	return nil
}

func compareModes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	cycle, err := cfg.Cycle.Build()
	if err != nil {
		return err
	}
	variants := sim.DriveModeVariants(cfg.Vehicle)
	ens := sim.NewEnsemble(variants, cfg.Models, cycle.Segments())

	results, err := ens.Run(cmd.Context(), cfg.SimConfig(cycle))
	if err != nil {
		return err
	}

	printComparison(cmd.OutOrStdout(), variants, results)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "vehicles:")
	for _, name := range config.ListPresets() {
		p, _ := config.GetPreset(name)
		fmt.Fprintf(out, "  %-12s %4.0f V  %5.1f kWh  %3.0f kW  %4.0f kg  %s\n",
			name, p.BatteryVoltage, p.BatteryCapacity, p.MotorPower, p.VehicleMass, p.DriveMode)
	}

	fmt.Fprintln(out, "\ndrive cycles:")
	for _, name := range sim.CyclePresetNames() {
		c, err := sim.PresetCycle(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-12s %4.0f s  %d segments\n", name, c.Duration(), len(c.Segments()))
	}
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "evsim.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func listExports(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.Export.Dir)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		exp, err := st.Load(args[0])
		if err != nil {
			return err
		}
		plotExport(out, exp)
		return nil
	}

	names, err := st.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintf(out, "no exports in %s\n", st.Dir())
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
