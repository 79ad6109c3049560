// Package optimize implements a deterministic, derivative-free differential
// evolution driver used to minimize the penalty objective over box bounds.
package optimize

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/openfoodfacts/recipe-estimator-go/internal/model"
)

// Fitness scores one candidate quantity vector; lower is better.
type Fitness func(quantities []float64) float64

// Config controls the differential-evolution search.
type Config struct {
	MaxIterations         int     // generation cap
	PopulationMultiplier  int     // population size = PopulationMultiplier * dimensions
	Seed                  int64   // deterministic RNG seed
	ParallelLeafThreshold int     // above this many dimensions, evaluate the population concurrently
	ConvergenceTolerance  float64 // stop early once population fitness spread falls below this
	MutationFactor        float64 // DE/rand/1 scale factor F
	CrossoverProbability  float64 // DE crossover rate CR
}

// DefaultConfig mirrors the estimator's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:         5000,
		PopulationMultiplier:  15,
		Seed:                  42,
		ParallelLeafThreshold: 10,
		ConvergenceTolerance:  1e-6,
		MutationFactor:        0.8,
		CrossoverProbability:  0.9,
	}
}

// Result is the outcome of a differential-evolution run.
type Result struct {
	Best       []float64
	BestScore  float64
	Iterations int
	Converged  bool
}

// Run minimizes fitness over the box bounds in m.Bounds, seeding the initial
// population's first member with m.InitialGuess and the rest with uniform
// random draws inside each bound, using a deterministic RNG so repeated runs
// on the same model reproduce the same result.
func Run(ctx context.Context, m *model.Model, fitness Fitness, cfg Config) (Result, error) {
	dims := len(m.Bounds)
	if dims == 0 {
		return Result{}, nil
	}

	popSize := cfg.PopulationMultiplier * dims
	if popSize < 4 {
		popSize = 4
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	population := make([][]float64, popSize)
	scores := make([]float64, popSize)
	for p := 0; p < popSize; p++ {
		candidate := make([]float64, dims)
		for d := 0; d < dims; d++ {
			if p == 0 && d < len(m.InitialGuess) {
				candidate[d] = m.InitialGuess[d]
				continue
			}
			candidate[d] = m.Bounds[d].Min + rng.Float64()*(m.Bounds[d].Max-m.Bounds[d].Min)
		}
		population[p] = candidate
	}

	if err := evaluatePopulation(ctx, population, scores, fitness, dims, cfg.ParallelLeafThreshold); err != nil {
		return Result{}, err
	}

	iterations := 0
	converged := false

	for gen := 0; gen < cfg.MaxIterations; gen++ {
		select {
		case <-ctx.Done():
			return result(population, scores, iterations, false), ctx.Err()
		default:
		}

		trials := make([][]float64, popSize)
		for p := 0; p < popSize; p++ {
			trials[p] = mutateAndCross(rng, population, p, m.Bounds, cfg)
		}

		trialScores := make([]float64, popSize)
		if err := evaluatePopulation(ctx, trials, trialScores, fitness, dims, cfg.ParallelLeafThreshold); err != nil {
			return Result{}, err
		}

		for p := 0; p < popSize; p++ {
			if trialScores[p] <= scores[p] {
				population[p] = trials[p]
				scores[p] = trialScores[p]
			}
		}

		iterations = gen + 1

		if populationSpread(scores) < cfg.ConvergenceTolerance {
			converged = true
			break
		}
	}

	return result(population, scores, iterations, converged), nil
}

func result(population [][]float64, scores []float64, iterations int, converged bool) Result {
	bestIdx := 0
	for i, s := range scores {
		if s < scores[bestIdx] {
			bestIdx = i
		}
	}
	return Result{
		Best:       population[bestIdx],
		BestScore:  scores[bestIdx],
		Iterations: iterations,
		Converged:  converged,
	}
}

// mutateAndCross produces one DE/rand/1/bin trial vector for population
// member p, clamped to the box bounds.
func mutateAndCross(rng *rand.Rand, population [][]float64, p int, bounds []model.Bounds, cfg Config) []float64 {
	popSize := len(population)
	dims := len(bounds)

	a, b, c := distinctIndices(rng, popSize, p)
	trial := make([]float64, dims)
	forcedIdx := rng.Intn(dims)

	for d := 0; d < dims; d++ {
		if d == forcedIdx || rng.Float64() < cfg.CrossoverProbability {
			v := population[a][d] + cfg.MutationFactor*(population[b][d]-population[c][d])
			trial[d] = clamp(v, bounds[d].Min, bounds[d].Max)
		} else {
			trial[d] = population[p][d]
		}
	}
	return trial
}

func distinctIndices(rng *rand.Rand, n, exclude int) (int, int, int) {
	pick := func(avoid ...int) int {
		for {
			i := rng.Intn(n)
			clash := false
			for _, a := range avoid {
				if i == a {
					clash = true
					break
				}
			}
			if !clash {
				return i
			}
		}
	}
	a := pick(exclude)
	b := pick(exclude, a)
	c := pick(exclude, a, b)
	return a, b, c
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func populationSpread(scores []float64) float64 {
	min, max := scores[0], scores[0]
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return max - min
}

// evaluatePopulation scores every candidate. Above ParallelLeafThreshold
// dimensions, candidates are scored concurrently across GOMAXPROCS workers.
func evaluatePopulation(ctx context.Context, population [][]float64, scores []float64, fitness Fitness, dims, parallelThreshold int) error {
	if dims <= parallelThreshold {
		for i, candidate := range population {
			scores[i] = fitness(candidate)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	chunk := (len(population) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(population) {
			break
		}
		if end > len(population) {
			end = len(population)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				scores[i] = fitness(population[i])
			}
			return nil
		})
	}
	return g.Wait()
}
