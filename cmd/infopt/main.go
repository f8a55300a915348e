package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/infopt/internal/config"
	"github.com/san-kum/infopt/internal/domain"
	"github.com/san-kum/infopt/internal/model"
	"github.com/san-kum/infopt/internal/pipeline"
	"github.com/san-kum/infopt/internal/problems"
	"github.com/san-kum/infopt/internal/result"
	"github.com/san-kum/infopt/internal/solver"
	"github.com/san-kum/infopt/internal/storage"
	"github.com/san-kum/infopt/internal/viz"
)

var (
	dataDir string

	gamma      float64
	beta       float64
	population float64
	xiMin      float64
	xiMax      float64
	iMax       float64
	epsilon    float64
	t0         float64
	tf         float64
	points     int
	nodes      int
	extraTs    []float64
	samples    int
	seed       int64
	uMin       float64
	uMax       float64

	configFile string
	preset     string
	live       bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "infopt",
		Short: "stochastic optimal control by transcription",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".infopt", "data directory")

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "transcribe and solve a problem",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	solveCmd.Flags().Float64Var(&gamma, "gamma", config.DefaultGamma, "recovery rate")
	solveCmd.Flags().Float64Var(&beta, "beta", config.DefaultBeta, "transmission rate")
	solveCmd.Flags().Float64Var(&population, "population", config.DefaultPopulation, "population size")
	solveCmd.Flags().Float64Var(&xiMin, "xi-min", config.DefaultXiMin, "uncertain rate lower bound")
	solveCmd.Flags().Float64Var(&xiMax, "xi-max", config.DefaultXiMax, "uncertain rate upper bound")
	solveCmd.Flags().Float64Var(&iMax, "i-max", config.DefaultIMax, "infectious fraction cap")
	solveCmd.Flags().Float64Var(&epsilon, "epsilon", config.DefaultEpsilon, "expectation budget")
	solveCmd.Flags().Float64Var(&t0, "t0", 0, "horizon start")
	solveCmd.Flags().Float64Var(&tf, "tf", config.DefaultTF, "horizon end")
	solveCmd.Flags().IntVar(&points, "points", config.DefaultPoints, "time grid points")
	solveCmd.Flags().IntVar(&nodes, "nodes", config.DefaultNodes, "intervals per collocation element")
	solveCmd.Flags().Float64SliceVar(&extraTs, "extra-ts", nil, "extra time supports")
	solveCmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "uncertainty samples")
	solveCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "sampling seed")
	solveCmd.Flags().Float64Var(&uMin, "u-min", 0, "control lower bound")
	solveCmd.Flags().Float64Var(&uMax, "u-max", config.DefaultUMax, "control upper bound")
	solveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	solveCmd.Flags().BoolVar(&live, "live", false, "live solve progress view")
	solveCmd.Flags().BoolVar(&verbose, "verbose", false, "structured stage logging")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run trajectories",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run mean trajectories as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "print realized supports for a discretization",
		RunE:  printGrid,
	}
	gridCmd.Flags().Float64Var(&t0, "t0", 0, "horizon start")
	gridCmd.Flags().Float64Var(&tf, "tf", config.DefaultTF, "horizon end")
	gridCmd.Flags().IntVar(&points, "points", config.DefaultPoints, "time grid points")
	gridCmd.Flags().IntVar(&nodes, "nodes", config.DefaultNodes, "intervals per collocation element")
	gridCmd.Flags().Float64SliceVar(&extraTs, "extra-ts", nil, "extra time supports")
	gridCmd.Flags().Float64Var(&xiMin, "xi-min", config.DefaultXiMin, "uncertain rate lower bound")
	gridCmd.Flags().Float64Var(&xiMax, "xi-max", config.DefaultXiMax, "uncertain rate upper bound")
	gridCmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "uncertainty samples")
	gridCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "sampling seed")

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list registered problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range problems.NewRegistry().List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, gridCmd, presetsCmd, problemsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildConfig(cmd *cobra.Command, problem string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Problem = problem

	if preset != "" {
		p := config.GetPreset(problem, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(problem))
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		*cfg = *loaded
		cfg.Problem = problem
	}

	// CLI flags override preset and config file.
	if cmd.Flags().Changed("gamma") {
		cfg.Epidemic.Gamma = gamma
	}
	if cmd.Flags().Changed("beta") {
		cfg.Epidemic.Beta = beta
	}
	if cmd.Flags().Changed("population") {
		cfg.Epidemic.Population = population
	}
	if cmd.Flags().Changed("xi-min") {
		cfg.Epidemic.XiMin = xiMin
	}
	if cmd.Flags().Changed("xi-max") {
		cfg.Epidemic.XiMax = xiMax
	}
	if cmd.Flags().Changed("i-max") {
		cfg.Epidemic.IMax = iMax
	}
	if cmd.Flags().Changed("epsilon") {
		cfg.Epidemic.Epsilon = epsilon
	}
	if cmd.Flags().Changed("t0") {
		cfg.Horizon.T0 = t0
	}
	if cmd.Flags().Changed("tf") {
		cfg.Horizon.TF = tf
	}
	if cmd.Flags().Changed("points") {
		cfg.Horizon.Points = points
	}
	if cmd.Flags().Changed("nodes") {
		cfg.Horizon.Nodes = nodes
	}
	if cmd.Flags().Changed("extra-ts") {
		cfg.Horizon.ExtraTs = extraTs
	}
	if cmd.Flags().Changed("samples") {
		cfg.Samples = samples
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("u-min") {
		cfg.Control.UMin = uMin
	}
	if cmd.Flags().Changed("u-max") {
		cfg.Control.UMax = uMax
	}

	return cfg, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	problem := args[0]

	cfg, err := buildConfig(cmd, problem)
	if err != nil {
		return err
	}

	prob, err := problems.NewRegistry().Get(problem, cfg.Params())
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cfg.SolverOptions()

	fmt.Printf("solving %s...\n", problem)
	start := time.Now()

	var res *result.Result
	var solveErr error
	if live {
		res, solveErr = solveLive(ctx, logger, opts, prob)
	} else {
		pl := pipeline.New(logger, solver.NewAugLag(opts))
		res, solveErr = pl.Run(ctx, prob)
	}
	if res == nil {
		return solveErr
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Seed, res)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("status: %s\n", res.Status)
	fmt.Printf("objective: %.6f\n", res.Objective)
	fmt.Printf("max violation: %.3e\n", res.MaxViolation)
	fmt.Printf("supports: %d time points x %d samples\n", len(res.Ts), len(res.Xis))

	if solveErr != nil {
		fmt.Printf("warning: %v\n", solveErr)
	}
	return nil
}

type solveOutcome struct {
	res *result.Result
	err error
}

// solveLive runs the pipeline in a goroutine and streams solver
// progress into a bubbletea view. The view exits when the solve
// finishes or the user quits; quitting cancels the solve context.
func solveLive(ctx context.Context, logger *zap.Logger, opts solver.Options, prob *model.Problem) (*result.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(viz.NewProgressModel(prob.Name))

	opts.OnProgress = func(p solver.Progress) {
		program.Send(viz.ProgressMsg(p))
	}

	outcome := make(chan solveOutcome, 1)
	go func() {
		pl := pipeline.New(logger, solver.NewAugLag(opts))
		res, err := pl.Run(ctx, prob)
		status := "error"
		if res != nil {
			status = res.Status
		}
		program.Send(viz.DoneMsg{Status: status, Objective: objectiveOf(res), Err: err})
		outcome <- solveOutcome{res: res, err: err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
	}
	cancel()

	o := <-outcome
	return o.res, o.err
}

func objectiveOf(res *result.Result) float64 {
	if res == nil {
		return 0
	}
	return res.Objective
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tTIME\tSTATUS\tOBJECTIVE\tPOINTS\tSAMPLES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%d\t%d\n",
			run.ID,
			run.Problem,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Status,
			run.Objective,
			run.TimePoints,
			run.Samples,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("status: %s\n", meta.Status)
	fmt.Printf("objective: %.6f\n\n", meta.Objective)

	captions := map[string]string{
		"s":  "susceptible fraction (mean)",
		"e":  "exposed fraction (mean)",
		"i":  "infectious fraction (mean)",
		"r":  "recovered fraction (mean)",
		"u":  "isolation control",
		"si": "s*i product (mean)",
	}

	for _, variable := range meta.Variables {
		_, _, mean, std, err := st.LoadSeries(runID, variable)
		if err != nil {
			return err
		}

		caption, ok := captions[variable]
		if !ok {
			caption = variable + " (mean)"
		}

		graph := asciigraph.Plot(mean,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)

		if variable == "i" && meta.Samples > 1 {
			upper := make([]float64, len(mean))
			for ti := range mean {
				upper[ti] = mean[ti] + std[ti]
			}
			graph := asciigraph.Plot(upper,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("infectious fraction (mean + std)"),
			)
			fmt.Println(graph)
		}
		fmt.Println()
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	var times []float64
	means := make(map[string][]float64, len(meta.Variables))
	for _, variable := range meta.Variables {
		ts, _, mean, _, err := st.LoadSeries(runID, variable)
		if err != nil {
			return err
		}
		times = ts
		means[variable] = mean
	}

	w := csv.NewWriter(os.Stdout)
	header := append([]string{"t"}, meta.Variables...)
	if err := w.Write(header); err != nil {
		return err
	}
	for ti, t := range times {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(t, 'g', 12, 64))
		for _, variable := range meta.Variables {
			row = append(row, strconv.FormatFloat(means[variable][ti], 'g', 12, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printGrid(cmd *cobra.Command, args []string) error {
	timeDom := domain.Interval("t", t0, tf)
	ts, err := timeDom.Grid(domain.GridSpec{Points: points, Nodes: nodes, Extra: extraTs})
	if err != nil {
		return err
	}

	xiDom := domain.Uniform("xi", xiMin, xiMax)
	xis, err := xiDom.Sample(domain.SampleSpec{Samples: samples, Seed: seed})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AXIS\tINDEX\tVALUE\tWEIGHT")
	for i, v := range ts.Values {
		fmt.Fprintf(w, "t\t%d\t%.6f\t%.6f\n", i, v, ts.Weights[i])
	}
	for k, v := range xis.Values {
		fmt.Fprintf(w, "xi\t%d\t%.6f\t%.6f\n", k, v, xis.Weights[k])
	}
	return w.Flush()
}
