// Package speciator exposes the client API: it owns a store and runs
// complete evolutionary runs on vector genomes, driving the speciation
// engine every generation and archiving the resulting history.
package speciator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"speciator/internal/evo"
	"speciator/internal/genotype"
	"speciator/internal/model"
	"speciator/internal/storage"
)

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

func New(opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

type RunRequest struct {
	RunID          string
	Objective      string
	PopulationSize int
	Generations    int
	Dimensions     int
	Seed           int64
	Threshold      float64
	MaxSpecies     int
	Stagnation     int
	MutationSigma  float64
	SurvivalRate   float64
	InitBound      float64
	Validation     bool
}

type RunSummary struct {
	Run            model.RunRecord
	SpeciesHistory []model.SpeciesGeneration
	Diagnostics    []model.GenerationDiagnostics
}

// runState implements evo.RunContext for one run.
type runState struct {
	population *evo.Population
	best       evo.Genome
	cmp        evo.GenomeComparator
	minimize   bool
	validation bool
}

func (r *runState) Population() *evo.Population               { return r.population }
func (r *runState) BestGenome() evo.Genome                    { return r.best }
func (r *runState) SelectionComparator() evo.GenomeComparator { return r.cmp }
func (r *runState) ShouldMinimize() bool                      { return r.minimize }
func (r *runState) ValidationMode() bool                      { return r.validation }

func objectiveFor(name string) (func(*genotype.VectorGenome) float64, bool, error) {
	switch name {
	case "", "sphere":
		return genotype.Sphere, true, nil
	case "flat":
		return func(*genotype.VectorGenome) float64 { return 0 }, false, nil
	default:
		return nil, false, fmt.Errorf("unknown objective: %s", name)
	}
}

// Run executes a full evolutionary run and persists its record,
// species history, and diagnostics under the request's run ID.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.RunID == "" {
		return RunSummary{}, fmt.Errorf("run id is required")
	}
	if req.PopulationSize <= 0 {
		return RunSummary{}, fmt.Errorf("population size must be > 0")
	}
	if req.Generations <= 0 {
		return RunSummary{}, fmt.Errorf("generations must be > 0")
	}
	if req.Dimensions <= 0 {
		req.Dimensions = 4
	}
	if req.MutationSigma <= 0 {
		req.MutationSigma = 0.1
	}
	if req.SurvivalRate <= 0 || req.SurvivalRate > 1 {
		req.SurvivalRate = 0.5
	}
	if req.InitBound <= 0 {
		req.InitBound = 5.0
	}

	objective, minimize, err := objectiveFor(req.Objective)
	if err != nil {
		return RunSummary{}, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	genomes := make([]*genotype.VectorGenome, req.PopulationSize)
	for i := range genomes {
		genomes[i] = genotype.RandomVectorGenome(fmt.Sprintf("%s-g0-i%d", req.RunID, i), req.Dimensions, req.InitBound, rng)
	}

	state := &runState{
		population: evo.NewPopulation(req.PopulationSize),
		cmp:        evo.ScoreComparator{Minimize: minimize},
		minimize:   minimize,
		validation: req.Validation,
	}
	engine := evo.NewThresholdSpeciation(genotype.EuclideanMetric{})
	if req.Threshold > 0 {
		engine.CompatibilityThreshold = req.Threshold
	}
	if req.MaxSpecies != 0 {
		engine.MaxSpecies = req.MaxSpecies
	}
	if req.Stagnation > 0 {
		engine.MaxStagnantGenerations = req.Stagnation
	}
	if err := engine.Init(state); err != nil {
		return RunSummary{}, err
	}

	speciesKeys := map[*evo.Species]string{}
	prevKeys := map[string]struct{}{}
	var history []model.SpeciesGeneration
	var diagnostics []model.GenerationDiagnostics

	for gen := 1; gen <= req.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}

		for _, g := range genomes {
			g.SetAdjustedScore(objective(g))
		}
		for _, g := range genomes {
			if state.best == nil || state.cmp.Compare(g, state.best) < 0 {
				state.best = g
			}
		}

		if len(state.population.Species) == 0 {
			// founding species; the engine redistributes everything
			state.population.Append(evo.NewSpecies(genomes[0]))
		}

		stats, err := engine.PerformSpeciation(asGenomes(genomes))
		if err != nil {
			return RunSummary{}, fmt.Errorf("generation %d: %w", gen, err)
		}

		generation, currentKeys := snapshotSpecies(state.population, speciesKeys, engine.MaxStagnantGenerations, gen, prevKeys)
		history = append(history, generation)
		prevKeys = currentKeys
		diagnostics = append(diagnostics, summarizeGeneration(gen, genomes, minimize, stats))

		if gen < req.Generations {
			genomes = reproduce(state.population, rng, req, gen)
		}
	}

	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:             req.RunID,
		Objective:      req.Objective,
		PopulationSize: req.PopulationSize,
		Generations:    req.Generations,
		Seed:           req.Seed,
		BestScore:      state.best.AdjustedScore(),
		BestGenomeID:   state.best.ID(),
		FinalThreshold: engine.CompatibilityThreshold,
		FinalSpecies:   len(state.population.Species),
	}
	if run.Objective == "" {
		run.Objective = "sphere"
	}

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveSpeciesHistory(ctx, req.RunID, history); err != nil {
		return RunSummary{}, fmt.Errorf("save species history: %w", err)
	}
	if err := c.store.SaveDiagnostics(ctx, req.RunID, diagnostics); err != nil {
		return RunSummary{}, fmt.Errorf("save diagnostics: %w", err)
	}

	return RunSummary{Run: run, SpeciesHistory: history, Diagnostics: diagnostics}, nil
}

func (c *Client) Runs(ctx context.Context) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx)
}

func (c *Client) SpeciesHistory(ctx context.Context, runID string) ([]model.SpeciesGeneration, bool, error) {
	return c.store.GetSpeciesHistory(ctx, runID)
}

func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	return c.store.GetDiagnostics(ctx, runID)
}

func asGenomes(genomes []*genotype.VectorGenome) []evo.Genome {
	out := make([]evo.Genome, len(genomes))
	for i, g := range genomes {
		out[i] = g
	}
	return out
}

// reproduce builds the next generation: each species carries its
// leader over unchanged and fills the rest of its offspring budget
// with mutated clones of parents drawn from its surviving top
// fraction. Offspring counts sum to the population target, so the new
// generation lands exactly on size.
func reproduce(population *evo.Population, rng *rand.Rand, req RunRequest, generation int) []*genotype.VectorGenome {
	next := make([]*genotype.VectorGenome, 0, population.TargetSize)
	for _, sp := range population.Species {
		if sp.OffspringCount <= 0 {
			continue
		}
		survivors := int(float64(len(sp.Members)) * req.SurvivalRate)
		if survivors < 1 {
			survivors = 1
		}

		produced := 0
		if leader, ok := sp.Leader.(*genotype.VectorGenome); ok {
			next = append(next, leader)
			produced++
		}
		for produced < sp.OffspringCount {
			parent := sp.Members[rng.Intn(survivors)].(*genotype.VectorGenome)
			child := parent.Clone(genotype.ChildID(req.RunID, generation, len(next)), generation)
			child.Mutate(rng, req.MutationSigma)
			next = append(next, child)
			produced++
		}
	}
	return next
}

func snapshotSpecies(population *evo.Population, keys map[*evo.Species]string, maxStagnant, generation int, prevKeys map[string]struct{}) (model.SpeciesGeneration, map[string]struct{}) {
	currentKeys := make(map[string]struct{}, len(population.Species))
	metrics := make([]model.SpeciesMetrics, 0, len(population.Species))
	for _, sp := range population.Species {
		key, ok := keys[sp]
		if !ok {
			key = fmt.Sprintf("sp-%03d", len(keys)+1)
			keys[sp] = key
		}
		currentKeys[key] = struct{}{}
		metrics = append(metrics, model.SpeciesMetrics{
			Key:        key,
			LeaderID:   sp.Leader.ID(),
			Size:       len(sp.Members),
			BestScore:  sp.BestScore,
			Share:      sp.OffspringShare,
			Offspring:  sp.OffspringCount,
			Stagnation: sp.GensNoImprovement,
			State:      string(sp.State(maxStagnant)),
		})
	}

	var newSpecies, extinctSpecies []string
	for key := range currentKeys {
		if _, ok := prevKeys[key]; !ok {
			newSpecies = append(newSpecies, key)
		}
	}
	for key := range prevKeys {
		if _, ok := currentKeys[key]; !ok {
			extinctSpecies = append(extinctSpecies, key)
		}
	}
	sort.Strings(newSpecies)
	sort.Strings(extinctSpecies)

	return model.SpeciesGeneration{
		Generation:     generation,
		Species:        metrics,
		NewSpecies:     newSpecies,
		ExtinctSpecies: extinctSpecies,
	}, currentKeys
}

func summarizeGeneration(generation int, genomes []*genotype.VectorGenome, minimize bool, stats evo.SpeciationStats) model.GenerationDiagnostics {
	best := math.NaN()
	worst := math.NaN()
	total := 0.0
	count := 0
	for _, g := range genomes {
		score := g.AdjustedScore()
		if !evo.IsValidScore(score) {
			continue
		}
		if count == 0 {
			best, worst = score, score
		} else {
			if (minimize && score < best) || (!minimize && score > best) {
				best = score
			}
			if (minimize && score > worst) || (!minimize && score < worst) {
				worst = score
			}
		}
		total += score
		count++
	}
	mean := math.NaN()
	if count > 0 {
		mean = total / float64(count)
	}

	return model.GenerationDiagnostics{
		Generation:         generation,
		BestScore:          best,
		MeanScore:          mean,
		WorstScore:         worst,
		SpeciesCount:       stats.SpeciesCount,
		CreatedSpecies:     stats.CreatedSpecies,
		RemovedSpecies:     stats.RemovedSpecies,
		Threshold:          stats.Threshold,
		TotalShare:         stats.TotalShare,
		EvenAllocation:     stats.EvenAllocation,
		MeanSpeciesSize:    stats.MeanSpeciesSize,
		LargestSpeciesSize: stats.LargestSpeciesSize,
	}
}
