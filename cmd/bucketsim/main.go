package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/bucketsim/internal/analysis"
	"github.com/san-kum/bucketsim/internal/automation"
	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/logging"
	"github.com/san-kum/bucketsim/internal/metrics"
	"github.com/san-kum/bucketsim/internal/optim"
	"github.com/san-kum/bucketsim/internal/render"
	"github.com/san-kum/bucketsim/internal/sim"
	"github.com/san-kum/bucketsim/internal/storage"
	"github.com/san-kum/bucketsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFile    string
	logJournal bool

	harmonic  int
	syncPhase float64
	voltage   float64
	scale     float64
	kinetic   float64
	particles int
	turns     int
	seed      int64
	interval  int

	runName   string
	numRuns   int
	outFile   string
	energyMax float64

	scanParam   string
	scanMin     float64
	scanMax     float64
	scanSteps   int
	phaseGrid   []float64
	voltageGrid []float64
	objective   string
	maximize    bool

	logger *slog.Logger

	closeLog = func() error { return nil }
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bucketsim",
		Short:         "longitudinal RF bucket simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, closer, err := logging.New(os.Stderr, logOptions(cmd))
			if err != nil {
				return err
			}
			logger, closeLog = l, closer
			slog.SetDefault(l)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeLog()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".bucketsim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	pf.BoolVar(&logJournal, "log-journal", false, "also send logs to the systemd journal")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		RunE:  runSimulation,
	}
	addMachineFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run label (defaults to the preset name)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "animated phase space with RF sliders",
		RunE:  runLive,
	}
	addMachineFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot kinetic energy and bunch moments",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "final phase space of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "synchrotron tune from the phase centroid",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the turn history as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render the final phase space of a run to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "phase.png", "output file")
	snapshotCmd.Flags().Float64Var(&energyMax, "emax", 0, "energy half range in MeV (0 fits the data)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run the same configuration over consecutive seeds",
		RunE:  runSweep,
	}
	addMachineFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&numRuns, "runs", 4, "number of seeds")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				c := config.GetPreset(name)
				fmt.Printf("  %-12s h=%d  phi_s=%.1f deg  V=%.1f kV  N=%d  turns=%d\n",
					name, c.Harmonic, c.SyncPhaseDeg, c.VoltageKV, c.Particles, c.Turns)
			}
			return nil
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted list of runs from YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "scan one RF parameter over a range",
		RunE:  runScan,
	}
	addMachineFlags(scanCmd)
	scanCmd.Flags().StringVar(&scanParam, "param", "voltage_kv", fmt.Sprintf("parameter to scan %v", config.TunableParams))
	scanCmd.Flags().Float64Var(&scanMin, "min", 0, "first value")
	scanCmd.Flags().Float64Var(&scanMax, "max", 200, "last value")
	scanCmd.Flags().IntVar(&scanSteps, "steps", 11, "number of points")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search over phi_s and RF voltage",
		RunE:  runOptimize,
	}
	addMachineFlags(optimizeCmd)
	optimizeCmd.Flags().Float64SliceVar(&phaseGrid, "phis-grid", []float64{0, 10, 20, 30}, "synchronous phases to try (deg)")
	optimizeCmd.Flags().Float64SliceVar(&voltageGrid, "voltage-grid", []float64{10, 19, 40, 80}, "RF voltages to try (kV)")
	optimizeCmd.Flags().StringVar(&objective, "metric", "captured", "metric to optimize")
	optimizeCmd.Flags().BoolVar(&maximize, "maximize", true, "maximize instead of minimize")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, phaseCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, snapshotCmd, sweepCmd, presetsCmd, scenarioCmd, scanCmd, optimizeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// logOptions builds the process logger settings. The live view owns the
// terminal, so it keeps only the file and journal handlers.
func logOptions(cmd *cobra.Command) logging.Options {
	return logging.Options{
		Level:   logLevel,
		File:    logFile,
		Journal: logJournal,
		Quiet:   cmd.Name() == "live",
	}
}

func addMachineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&harmonic, "harmonic", config.DefaultHarmonic, "harmonic number (2 or 4)")
	f.Float64Var(&syncPhase, "phis", config.DefaultSyncPhaseDeg, "synchronous phase in degrees")
	f.Float64Var(&voltage, "voltage", config.DefaultVoltageKV, "RF voltage amplitude in kV")
	f.Float64Var(&scale, "scale", config.DefaultScaleFactor, "voltage scale factor")
	f.Float64Var(&kinetic, "ke", config.DefaultKineticEnergy, "initial kinetic energy in eV")
	f.IntVar(&particles, "particles", config.DefaultParticles, "number of macro-particles")
	f.IntVar(&turns, "turns", config.DefaultTurns, "turns to simulate")
	f.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	f.IntVar(&interval, "interval", config.DefaultIntervalMs, "live refresh interval in ms")
}

// resolveConfig layers defaults, preset, config file and then any flag
// the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("harmonic") {
		cfg.Harmonic = harmonic
	}
	if flags.Changed("phis") {
		cfg.SyncPhaseDeg = syncPhase
	}
	if flags.Changed("voltage") {
		cfg.VoltageKV = voltage
	}
	if flags.Changed("scale") {
		cfg.ScaleFactor = scale
	}
	if flags.Changed("ke") {
		cfg.KineticEnergy = kinetic
	}
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("turns") {
		cfg.Turns = turns
	}
	if flags.Changed("interval") {
		cfg.IntervalMs = interval
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := sim.FromConfig(cfg)
	if err != nil {
		return err
	}
	s.SetLogger(logger)
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running", "harmonic", cfg.Harmonic, "particles", cfg.Particles, "turns", cfg.Turns, "seed", cfg.Seed)
	start := time.Now()
	result, err := s.Run(ctx, cfg.Turns)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	name := runName
	if name == "" {
		name = preset
	}
	if name == "" {
		name = "run"
	}
	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}
	logger.Info("saved run", "id", runID, "elapsed", elapsed)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("turns: %d\n", result.StepsTaken)
	fmt.Printf("lost particles: %d\n", result.Lost[len(result.Lost)-1])
	fmt.Printf("Kinetic Energy [MeV]: %.2f\n", result.KineticEnergy[len(result.KineticEnergy)-1]*1e-6)
	fmt.Println("\nmetrics:")
	for _, m := range metrics.Default() {
		fmt.Printf("  %s: %.6f\n", m.Name(), result.Metrics[m.Name()])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := viz.NewModel(cfg, logger)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tH\tPHI_S\tV(kV)\tN\tTURNS\tLOST")
	for _, run := range runs {
		c := run.Config
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%.1f\t%d\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			c.Harmonic,
			c.SyncPhaseDeg,
			c.VoltageKV,
			c.Particles,
			run.Turns,
			run.Lost,
		)
	}
	return w.Flush()
}

func loadHistory(runID string) (*storage.RunMetadata, []storage.HistoryRow, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := st.LoadHistory(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data to plot")
	}
	return meta, rows, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, rows, err := loadHistory(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("turns: %d\n\n", meta.Turns)

	series := []struct {
		caption string
		value   func(r storage.HistoryRow) float64
	}{
		{"kinetic energy [MeV]", func(r storage.HistoryRow) float64 { return r.KineticEnergy * 1e-6 }},
		{"phase centroid [rad]", func(r storage.HistoryRow) float64 { return r.Summary.Centroid }},
		{"rms energy spread [MeV]", func(r storage.HistoryRow) float64 { return r.Summary.EnergySpread * 1e-6 }},
		{"lost particles", func(r storage.HistoryRow) float64 { return float64(r.Lost) }},
	}
	for _, s := range series {
		data := make([]float64, len(rows))
		for i, r := range rows {
			data[i] = s.value(r)
		}
		fmt.Println(render.Series(data, s.caption, 80, 10))
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	ps, err := st.LoadParticles(args[0])
	if err != nil {
		return err
	}

	portrait := analysis.PortraitFromParticles(ps)
	if len(portrait.Points) == 0 {
		return fmt.Errorf("no live particles in run %s", meta.ID)
	}
	portrait.Bounds = &analysis.Bounds{MinX: -2 * math.Pi, MaxX: 2 * math.Pi}
	portrait.Bounds.MinY, portrait.Bounds.MaxY = energyRange(portrait)

	fmt.Printf("phase space: %s\n", meta.ID)
	fmt.Printf("x: phase [rad], y: dE [MeV]\n\n")
	fmt.Println(portrait.ToASCII(70, 24))
	return nil
}

func energyRange(p *analysis.PhasePortrait) (float64, float64) {
	m := 0.0
	for _, pt := range p.Points {
		m = math.Max(m, math.Abs(pt.Y))
	}
	if m == 0 {
		m = 1
	}
	return -1.1 * m, 1.1 * m
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, rows, err := loadHistory(args[0])
	if err != nil {
		return err
	}

	centroid := make([]float64, len(rows))
	for i, r := range rows {
		centroid[i] = r.Summary.Centroid
	}

	fmt.Printf("frequency analysis: %s\n\n", meta.ID)
	ps := analysis.PowerSpectrum(centroid)
	if len(ps) < 2 {
		return fmt.Errorf("run %s is too short to analyze", meta.ID)
	}
	fmt.Println(render.Series(ps[:max(2, len(ps)/4)], "power spectrum (phase centroid)", 80, 15))
	fmt.Println()

	tune := analysis.SynchrotronTune(centroid)
	fmt.Printf("synchrotron tune: %.5f per turn\n", tune)
	if tune > 0 {
		fmt.Printf("period: %.1f turns\n", 1/tune)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, rows, err := loadHistory(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"turn", "kinetic_energy", "centroid", "energy_mean", "energy_spread", "phase_spread", "live", "lost"}); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Turn),
			f(r.KineticEnergy),
			f(r.Summary.Centroid),
			f(r.Summary.EnergyMean),
			f(r.Summary.EnergySpread),
			f(r.Summary.PhaseSpread),
			strconv.Itoa(r.Summary.Live),
			strconv.Itoa(r.Lost),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, rows, err := loadHistory(args[0])
	if err != nil {
		return err
	}
	ps, err := st.LoadParticles(args[0])
	if err != nil {
		return err
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := render.DefaultPNGOptions()
	opts.Title = meta.ID
	opts.EnergyMax = energyMax
	if err := render.WritePhaseSpace(f, ps, rows[len(rows)-1].KineticEnergy, opts); err != nil {
		return err
	}
	logger.Info("wrote snapshot", "run", meta.ID, "file", outFile)
	return f.Close()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if numRuns < 1 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("sweep", "runs", numRuns, "first_seed", cfg.Seed)
	results, err := sim.NewSweep(cfg, numRuns, cfg.Seed).Run(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0)
	for _, m := range metrics.Default() {
		names = append(names, m.Name())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "SEED")
	for _, n := range names {
		fmt.Fprintf(w, "\t%s", n)
	}
	fmt.Fprintln(w)
	for i, r := range results {
		fmt.Fprintf(w, "%d", cfg.Seed+int64(i))
		for _, n := range names {
			fmt.Fprintf(w, "\t%.6f", r.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, sc, st, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tTURNS\tKE(MeV)\tSURVIVAL\tCAPTURED")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.3f\t%.3f\n",
			r.Name, id, r.Result.StepsTaken,
			r.Result.KineticEnergy[len(r.Result.KineticEnergy)-1]*1e-6,
			r.Result.Metrics["survival"], r.Result.Metrics["captured"])
	}
	return w.Flush()
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: scanParam,
		ParamMin:  scanMin,
		ParamMax:  scanMax,
		NumSteps:  scanSteps,
	}, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tKE(MeV)\tLOST\tCAPTURED\tDE_RMS(eV)\n", scanParam)
	captured := make([]float64, len(results))
	for i, r := range results {
		captured[i] = r.Metrics["captured"]
		fmt.Fprintf(w, "%.3f\t%.2f\t%d\t%.3f\t%.4g\n",
			r.ParamValue, r.KineticEnergy*1e-6, r.Lost, r.Metrics["captured"], r.Metrics["energy_spread_ev"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(captured) > 1 {
		fmt.Println()
		fmt.Println(render.Series(captured, "captured fraction vs "+scanParam, 60, 8))
	}
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	g := optim.NewGridSearch(
		[]string{"sync_phase_deg", "voltage_kv"},
		[][]float64{phaseGrid, voltageGrid},
	)
	if maximize {
		g.Maximize()
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("grid search", "metric", objective, "points", len(phaseGrid)*len(voltageGrid))
	params, best, err := g.Search(ctx, cfg, objective)
	if err != nil {
		return err
	}
	fmt.Printf("best %s: %.6f\n", objective, best)
	fmt.Printf("  phi_s: %.2f deg\n", params["sync_phase_deg"])
	fmt.Printf("  voltage: %.2f kV\n", params["voltage_kv"])
	return nil
}
