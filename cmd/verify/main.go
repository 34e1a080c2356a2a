// Package main provides the verification entry point. It loads stored
// continuous series and checks the build invariants, exiting non-zero when
// any series diverges.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/orchestrator"
	"futures-roll-lab/internal/pipeline"
	"futures-roll-lab/internal/roll"
	"futures-roll-lab/internal/storage"
	chstore "futures-roll-lab/internal/storage/clickhouse"
	"futures-roll-lab/internal/storage/memory"
	pgstore "futures-roll-lab/internal/storage/postgres"
	"futures-roll-lab/internal/verification"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	root := flag.String("root", "", "Contract root to verify")
	policy := flag.String("policy", "", "Verify a single series: policy name (generic or near_roll)")
	length := flag.Int("length", 0, "Verify a single series: length preference (with --policy)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useFixtures := flag.Bool("use-fixtures", false, "Verify the in-memory fixture build instead of the database")
	flag.Parse()

	logger := log.New(os.Stdout, "[verify] ", log.LstdFlags|log.Lshortfile)

	if *root == "" {
		fmt.Fprintln(os.Stderr, "Error: --root is required")
		os.Exit(1)
	}
	if !*useFixtures && (*postgresDSN == "" || *clickhouseDSN == "") {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn and --clickhouse-dsn are required when not using fixtures")
		os.Exit(1)
	}

	ctx := context.Background()

	// Create stores based on mode
	var (
		seriesStore storage.SeriesStore
		eventStore  storage.RollEventStore
	)

	if *useFixtures {
		seriesStore, eventStore = createFixtureStores(ctx, *root)
	} else {
		var cleanup func()
		var err error
		seriesStore, eventStore, cleanup, err = createDatabaseStores(ctx, *postgresDSN, *clickhouseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to databases: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
	}

	verifier := verification.NewSeriesVerifier(verification.SeriesVerifierOptions{
		SeriesStore: seriesStore,
		EventStore:  eventStore,
		Logger:      logger,
	})

	// Single-series mode when --policy is given, whole root otherwise
	var report *verification.Report
	if *policy != "" {
		key := domain.SeriesKey{Root: *root, Policy: *policy, Length: *length}
		result, err := verifier.VerifySeries(ctx, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error verifying %s: %v\n", key, err)
			os.Exit(1)
		}
		report = &verification.Report{TotalSeries: 1, Results: []verification.SeriesResult{*result}}
		if result.Passed {
			report.PassedSeries = 1
		} else {
			report.FailedSeries = 1
		}
	} else {
		var err error
		report, err = verifier.VerifyRoot(ctx, *root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error verifying %s: %v\n", *root, err)
			os.Exit(1)
		}
	}

	printReport(*root, report)
	if report.FailedSeries > 0 {
		os.Exit(1)
	}
}

// printReport prints per-series divergences and the overall summary.
func printReport(root string, report *verification.Report) {
	for _, res := range report.Results {
		if res.Passed {
			continue
		}
		fmt.Printf("FAIL %s (%d rows):\n", res.Key, res.RowsChecked)
		for _, d := range res.Divergences {
			if d.Date.IsZero() {
				fmt.Printf("  [%s] expected %v, got %v\n", d.Check, d.Expected, d.Actual)
				continue
			}
			fmt.Printf("  [%s] %s: expected %v, got %v\n",
				d.Check, d.Date.Format("2006-01-02"), d.Expected, d.Actual)
		}
	}

	fmt.Printf("Verification for %s: %d series, %d passed, %d failed\n",
		root, report.TotalSeries, report.PassedSeries, report.FailedSeries)
}

// createFixtureStores builds the demo series in memory.
func createFixtureStores(ctx context.Context, root string) (storage.SeriesStore, storage.RollEventStore) {
	barStore := memory.NewBarStore()
	seriesStore := memory.NewSeriesStore()
	eventStore := memory.NewRollEventStore()

	if err := pipeline.LoadFixtures(ctx, barStore); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
		os.Exit(1)
	}

	orch := orchestrator.New(orchestrator.Options{
		BarStore:    barStore,
		SeriesStore: seriesStore,
		EventStore:  eventStore,
		Configs: []roll.Config{
			{Policy: domain.PolicyGeneric, Length: 1},
			{Policy: domain.PolicyNearRoll},
		},
		DaysBeforeExpiry: 3,
	})
	if _, err := orch.Run(ctx, root); err != nil {
		fmt.Fprintf(os.Stderr, "Error building fixture series: %v\n", err)
		os.Exit(1)
	}

	return seriesStore, eventStore
}

// createDatabaseStores connects to PostgreSQL and ClickHouse and creates stores.
func createDatabaseStores(ctx context.Context, postgresDSN, clickhouseDSN string) (storage.SeriesStore, storage.RollEventStore, func(), error) {
	pgPool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pgPool.Close()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pgPool.Close()
	}

	return chstore.NewSeriesStore(chConn), pgstore.NewRollEventStore(pgPool), cleanup, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
