// Command flood-sweep measures how the flood converges for a range of field
// sizes and seed positions by counting unreached pixels after each pass.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jumpflood/internal/app"
	"jumpflood/internal/core"
	"jumpflood/internal/gpu/soft"
	"jumpflood/internal/jfa"
	pcore "jumpflood/pkg/core"
)

type scenario struct {
	size core.Size
	seed core.Point
}

func (s scenario) String() string {
	return fmt.Sprintf("%dx%d seed=(%.1f,%.1f)", s.size.W, s.size.H, s.seed.X, s.seed.Y)
}

type scenarioResult struct {
	scenario
	derived int
	// unreached[n-1] counts sentinel pixels after n passes.
	unreached []int
	// coveredAt is the first pass count that reaches every pixel, or -1.
	coveredAt int
	elapsed   time.Duration
}

func main() {
	sizesFlag := flag.String("sizes", "64x64,256x256,300x200,1024x128", "comma separated WxH field sizes")
	seeds := flag.Int("seeds", 4, "random seeds per size, plus the origin corner")
	rngSeed := flag.Int64("seed", 42, "seed for random seed placement")
	workers := flag.Int("workers", runtime.NumCPU(), "number of scenarios run in parallel")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger, err := app.NewLogger(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	sizes, err := parseSizes(*sizesFlag)
	if err != nil {
		logger.Fatal("bad -sizes", zap.Error(err))
	}
	sets := buildScenarios(sizes, *seeds, pcore.NewRNG(*rngSeed))
	fmt.Printf("Sweeping %d scenarios (%d workers)\n", len(sets), *workers)

	results := make([]scenarioResult, len(sets))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*workers)
	start := time.Now()
	for i, sc := range sets {
		g.Go(func() error {
			res, err := runScenario(ctx, sc, logger)
			if err != nil {
				return fmt.Errorf("%s: %w", sc, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].size, results[j].size
		return a.Max() < b.Max() || (a.Max() == b.Max() && a.Area() < b.Area())
	})
	fmt.Printf("\n%-10s %-16s %7s %7s %10s  %s\n", "size", "seed", "derived", "covered", "time", "unreached after 1..n passes")
	for _, res := range results {
		fmt.Printf("%-10s %-16s %7d %7s %10s  %s\n",
			fmt.Sprintf("%dx%d", res.size.W, res.size.H),
			fmt.Sprintf("(%.1f,%.1f)", res.seed.X, res.seed.Y),
			res.derived, coveredLabel(res.coveredAt), res.elapsed.Round(time.Microsecond), joinInts(res.unreached))
	}
	fmt.Printf("\nElapsed %s\n", time.Since(start).Round(time.Millisecond))
}

func coveredLabel(n int) string {
	if n < 0 {
		return "never"
	}
	return strconv.Itoa(n)
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

func parseSizes(s string) ([]core.Size, error) {
	var out []core.Size
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, h, ok := strings.Cut(part, "x")
		if !ok {
			return nil, fmt.Errorf("size %q: want WxH", part)
		}
		width, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("size %q: %w", part, err)
		}
		height, err := strconv.Atoi(h)
		if err != nil {
			return nil, fmt.Errorf("size %q: %w", part, err)
		}
		size := core.Size{W: width, H: height}
		if size.Empty() {
			return nil, fmt.Errorf("size %q: must be positive", part)
		}
		out = append(out, size)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sizes")
	}
	return out, nil
}

func buildScenarios(sizes []core.Size, seeds int, rng *pcore.RNG) []scenario {
	var sets []scenario
	for _, size := range sizes {
		sets = append(sets, scenario{size: size})
		for i := 0; i < seeds; i++ {
			sets = append(sets, scenario{size: size, seed: rng.Point(size)})
		}
	}
	return sets
}

// runScenario renders the field once for every pass count from 1 to the
// derived count and records how many pixels the flood has not reached.
func runScenario(ctx context.Context, sc scenario, logger *zap.Logger) (scenarioResult, error) {
	res := scenarioResult{scenario: sc, derived: jfa.DerivePasses(sc.size), coveredAt: -1}
	seed := sc.seed
	pipeline, err := jfa.New(soft.New(soft.Options{Workers: 1}), jfa.Options{
		Size:   sc.size,
		Seed:   &seed,
		Passes: 1,
		Logger: logger.With(zap.Stringer("scenario", sc)),
	})
	if err != nil {
		return res, err
	}
	defer pipeline.Close()

	start := time.Now()
	if res.derived == 0 {
		// A single pixel is its own seed.
		pipeline.SetPassOverride(0)
		if err := pipeline.RenderFrame(ctx); err != nil {
			return res, err
		}
		res.coveredAt = 0
	}
	for n := 1; n <= res.derived; n++ {
		pipeline.SetPassOverride(n)
		if err := pipeline.RenderFrame(ctx); err != nil {
			return res, err
		}
		field, err := pipeline.ReadField()
		if err != nil {
			return res, err
		}
		u := field.Unreached()
		res.unreached = append(res.unreached, u)
		if u == 0 && res.coveredAt < 0 {
			res.coveredAt = n
		}
	}
	res.elapsed = time.Since(start)
	return res, nil
}
