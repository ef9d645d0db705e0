package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"etbd/internal/stats"
	"etbd/internal/storage"
	etbdapi "etbd/pkg/etbd"
)

const (
	artifactsDir = "runs"
	exportsDir   = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "events":
		return runEvents(ctx, args[1:])
	case "summary":
		return runSummary(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "sweep":
		return runSweep(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func newClient(storeKind, dbPath string) (*etbdapi.Client, error) {
	return etbdapi.New(etbdapi.Options{
		StoreKind:    storeKind,
		DBPath:       dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "etbd.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "etbd.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	if err := store.Init(ctx); err != nil {
		return err
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		if err := store.DeleteRun(ctx, r.ID); err != nil {
			return err
		}
	}

	fmt.Printf("reset store=%s deleted=%d\n", *storeKind, len(runs))
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config path (JSON or YAML)")
	seed := fs.Int64("seed", 1, "rng seed")
	population := fs.Int("pop", 100, "population size")
	mutationRate := fs.Float64("mutation-rate", 0.01, "per-bit mutation probability")
	densityMean := fs.Float64("density-mean", 20, "fitness density mean (selection pressure)")
	phenotypeRange := fs.Int("range", 1023, "phenotype upper bound")
	meanInterval := fs.Float64("mean-interval", 30, "random-interval schedule mean, seconds")
	scalingFactor := fs.Float64("scaling", 0.01, "behavior value to response rate scaling")
	timeStep := fs.Float64("time-step", 0.01, "simulation step, seconds")
	duration := fs.Float64("duration", 3600, "total simulated duration, seconds")
	mapping := fs.String("mapping", "identity", "phenotype mapping: identity|normalized")
	bitWidth := fs.Int("bit-width", 10, "genotype width in bits")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "etbd.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = etbdapi.RunRequest{
			Seed:               *seed,
			PopulationSize:     *population,
			MutationRate:       *mutationRate,
			FitnessDensityMean: *densityMean,
			PhenotypeRange:     *phenotypeRange,
			MeanInterval:       *meanInterval,
			ScalingFactor:      *scalingFactor,
			TimeStep:           *timeStep,
			TotalDuration:      *duration,
			Mapping:            *mapping,
			BitWidth:           *bitWidth,
		}
	} else {
		overrideFromFlags(fs, map[string]func(){
			"seed":          func() { req.Seed = *seed },
			"pop":           func() { req.PopulationSize = *population },
			"mutation-rate": func() { req.MutationRate = *mutationRate },
			"density-mean":  func() { req.FitnessDensityMean = *densityMean },
			"range":         func() { req.PhenotypeRange = *phenotypeRange },
			"mean-interval": func() { req.MeanInterval = *meanInterval },
			"scaling":       func() { req.ScalingFactor = *scalingFactor },
			"time-step":     func() { req.TimeStep = *timeStep },
			"duration":      func() { req.TotalDuration = *duration },
			"mapping":       func() { req.Mapping = *mapping },
			"bit-width":     func() { req.BitWidth = *bitWidth },
		})
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s seed=%d pop=%d duration=%.0f\n",
		summary.RunID, req.Seed, req.PopulationSize, req.TotalDuration)
	fmt.Printf("events=%d reinforcers=%d mean_phenotype=%.2f reinforcement_rate=%.4f\n",
		summary.Summary.EventCount, summary.ReinforcerCount,
		summary.Summary.MeanPhenotype, summary.Summary.ReinforcementRate)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "etbd.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, etbdapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	for _, item := range items {
		fmt.Printf("run_id=%s created=%s seed=%d pop=%d events=%d reinforcers=%d mean_phenotype=%.2f\n",
			item.RunID, item.CreatedAtUTC, item.Seed, item.PopulationSize,
			item.EventCount, item.ReinforcerCount, item.MeanPhenotype)
	}
	return nil
}

func runEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "max events to print (0 prints all)")
	jsonOut := fs.Bool("json", false, "emit events as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "etbd.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	events, err := client.Events(ctx, etbdapi.EventsRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("no reinforcement events recorded")
		return nil
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}
	for _, e := range events {
		fmt.Printf("generation=%d genotype=%d phenotype=%.2f fitness=%.2f reinforcer_count=%d\n",
			e.Generation, e.Genotype, e.Phenotype, e.Fitness, e.ReinforcerCount)
	}
	return nil
}

func runSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	jsonOut := fs.Bool("json", false, "emit summary as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "etbd.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Summary(ctx, etbdapi.SummaryRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Printf("events=%d reinforcers=%d\n", summary.EventCount, summary.ReinforcerCount)
	fmt.Printf("phenotype mean=%.2f std=%.2f min=%.0f max=%.0f\n",
		summary.MeanPhenotype, summary.StdPhenotype, summary.MinPhenotype, summary.MaxPhenotype)
	fmt.Printf("mean_fitness=%.2f reinforcement_rate=%.4f\n", summary.MeanFitness, summary.ReinforcementRate)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}
	if *latest {
		entries, err := stats.ListRunIndex(artifactsDir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errors.New("no runs available to export")
		}
		*runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(artifactsDir, *runID, *outDir)
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", *runID, filepath.Clean(exportedDir))
	return nil
}

func runSweep(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	seed := fs.Int64("seed", 1, "rng seed shared by every variation")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "etbd.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	results, err := client.Sweep(ctx, etbdapi.SweepRequest{Seed: *seed, Base: etbdapi.DefaultRunRequest()})
	if err != nil {
		return err
	}

	for _, result := range results {
		fmt.Printf("variation=%s run_id=%s events=%d mean_phenotype=%.2f reinforcement_rate=%.4f\n",
			result.Name, result.Run.RunID, result.Run.Summary.EventCount,
			result.Run.Summary.MeanPhenotype, result.Run.Summary.ReinforcementRate)
	}
	return nil
}

// overrideFromFlags applies only the flags the user actually set, so a
// config file keeps its values unless explicitly overridden.
func overrideFromFlags(fs *flag.FlagSet, apply map[string]func()) {
	fs.Visit(func(f *flag.Flag) {
		if fn, ok := apply[f.Name]; ok {
			fn()
		}
	})
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: etbdctl <init|reset|run|runs|events|summary|export|sweep> [flags]", msg)
}
