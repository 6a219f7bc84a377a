package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"speciator/internal/config"
	"speciator/pkg/speciator"
)

var (
	storeKind  string
	dbPath     string
	configFile string
	runID      string
	objective  string
	population int
	gens       int
	dimensions int
	seed       int64
	threshold  float64
	maxSpecies int
	stagnation int
	sigma      float64
	survival   float64
	validation bool
	plot       bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "speciatorctl",
		Short:        "dynamic speciation runs and archives",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "memory", "store backend (memory|sqlite)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "speciator.db", "sqlite database path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "execute an evolutionary run",
		RunE:  runRun,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "YAML run configuration")
	runCmd.Flags().StringVar(&runID, "run-id", "run-1", "run identifier")
	runCmd.Flags().StringVar(&objective, "objective", "sphere", "objective function (sphere|flat)")
	runCmd.Flags().IntVar(&population, "population", config.DefaultPopulationSize, "target population size")
	runCmd.Flags().IntVar(&gens, "generations", config.DefaultGenerations, "generations to evolve")
	runCmd.Flags().IntVar(&dimensions, "dimensions", config.DefaultDimensions, "genome dimensionality")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	runCmd.Flags().Float64Var(&threshold, "threshold", config.DefaultThreshold, "initial compatibility threshold")
	runCmd.Flags().IntVar(&maxSpecies, "max-species", config.DefaultMaxSpecies, "species ceiling for threshold adjustment")
	runCmd.Flags().IntVar(&stagnation, "stagnation", config.DefaultStagnation, "generations without improvement before removal")
	runCmd.Flags().Float64Var(&sigma, "sigma", config.DefaultMutationSigma, "mutation deviation")
	runCmd.Flags().Float64Var(&survival, "survival", config.DefaultSurvivalRate, "surviving fraction per species")
	runCmd.Flags().BoolVar(&validation, "validate", false, "enable strict membership validation")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list archived runs",
		RunE:  runRuns,
	}

	historyCmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "show species history for a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}
	historyCmd.Flags().BoolVar(&plot, "plot", true, "render species count and threshold graphs")

	diagnosticsCmd := &cobra.Command{
		Use:   "diagnostics [run-id]",
		Short: "show per-generation diagnostics for a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiagnostics,
	}

	rootCmd.AddCommand(runCmd, runsCmd, historyCmd, diagnosticsCmd)
	return rootCmd
}

func newClient() (*speciator.Client, error) {
	return speciator.New(speciator.Options{StoreKind: storeKind, DBPath: dbPath})
}

func runRun(cmd *cobra.Command, _ []string) error {
	req := speciator.RunRequest{
		RunID:          runID,
		Objective:      objective,
		PopulationSize: population,
		Generations:    gens,
		Dimensions:     dimensions,
		Seed:           seed,
		Threshold:      threshold,
		MaxSpecies:     maxSpecies,
		Stagnation:     stagnation,
		MutationSigma:  sigma,
		SurvivalRate:   survival,
		Validation:     validation,
	}
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		req = speciator.RunRequest{
			RunID:          cfg.RunID,
			Objective:      cfg.Objective,
			PopulationSize: cfg.PopulationSize,
			Generations:    cfg.Generations,
			Dimensions:     cfg.Dimensions,
			Seed:           cfg.Seed,
			Threshold:      cfg.Speciation.Threshold,
			MaxSpecies:     cfg.Speciation.MaxSpecies,
			Stagnation:     cfg.Speciation.Stagnation,
			MutationSigma:  cfg.MutationSigma,
			SurvivalRate:   cfg.SurvivalRate,
			InitBound:      cfg.InitBound,
		}
		if req.RunID == "" {
			req.RunID = runID
		}
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Run(context.Background(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: best=%.6f genome=%s species=%d threshold=%.3f\n",
		summary.Run.ID, summary.Run.BestScore, summary.Run.BestGenomeID,
		summary.Run.FinalSpecies, summary.Run.FinalThreshold)

	if len(summary.Diagnostics) > 0 {
		series := make([]float64, len(summary.Diagnostics))
		for i, d := range summary.Diagnostics {
			series[i] = d.BestScore
		}
		fmt.Fprintln(out, "\nbest score by generation:")
		fmt.Fprintln(out, asciigraph.Plot(series, asciigraph.Height(10), asciigraph.Width(60)))
	}
	return nil
}

func runRuns(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	runs, err := client.Runs(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tOBJECTIVE\tPOP\tGENS\tBEST\tSPECIES\tTHRESHOLD")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.6f\t%d\t%.3f\n",
			run.ID, run.Objective, run.PopulationSize, run.Generations,
			run.BestScore, run.FinalSpecies, run.FinalThreshold)
	}
	return w.Flush()
}

func runHistory(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	history, ok, err := client.SpeciesHistory(context.Background(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no species history for run %s", args[0])
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GEN\tSPECIES\tNEW\tEXTINCT")
	for _, generation := range history {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n",
			generation.Generation, len(generation.Species),
			len(generation.NewSpecies), len(generation.ExtinctSpecies))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	last := history[len(history)-1]
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(out, "\ngeneration %d roster:\n", last.Generation)
	fmt.Fprintln(w, "KEY\tLEADER\tSIZE\tBEST\tSHARE\tOFFSPRING\tSTAGNATION\tSTATE")
	for _, sp := range last.Species {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.6f\t%.4f\t%d\t%d\t%s\n",
			sp.Key, sp.LeaderID, sp.Size, sp.BestScore, sp.Share,
			sp.Offspring, sp.Stagnation, sp.State)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if plot {
		counts := make([]float64, len(history))
		for i, generation := range history {
			counts[i] = float64(len(generation.Species))
		}
		fmt.Fprintln(out, "\nspecies count by generation:")
		fmt.Fprintln(out, asciigraph.Plot(counts, asciigraph.Height(8), asciigraph.Width(60)))
	}
	return nil
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	diagnostics, ok, err := client.Diagnostics(context.Background(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no diagnostics for run %s", args[0])
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GEN\tBEST\tMEAN\tSPECIES\tCREATED\tREMOVED\tTHRESHOLD\tEVEN")
	for _, d := range diagnostics {
		fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%d\t%d\t%d\t%.3f\t%t\n",
			d.Generation, d.BestScore, d.MeanScore, d.SpeciesCount,
			d.CreatedSpecies, d.RemovedSpecies, d.Threshold, d.EvenAllocation)
	}
	return w.Flush()
}
