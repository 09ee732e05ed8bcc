// Package main provides a performance benchmarking tool for the Homerank CLI.
// It synthesizes housing datasets of increasing size from a seed CSV, ranks each
// one several times without a cache and with a SQLite cache, treating the first
// cached run as cold and averaging the rest as warm, and writes a CSV summary.
//
// Prerequisites:
// - homerank binary installed and available in PATH
//
// Usage: go run benchmark/main.go [seed-csv]
//
//	seed-csv: Housing dataset whose rows are replicated (default: database/dataset_properti_surabaya.csv)
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Rows        int
	Scenario    string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	SeedFile    string
	WorkDir     string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	Sizes       []int
	Scenarios   map[string][]string // scenario name -> extra rank flags
}

func main() {
	seed := "database/dataset_properti_surabaya.csv"
	if len(os.Args) == 2 {
		seed = os.Args[1]
	} else if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [seed-csv]\n", os.Args[0])
		os.Exit(1)
	}

	workDir, err := os.MkdirTemp("", "homerank-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	config := BenchmarkConfig{
		SeedFile:    seed,
		WorkDir:     workDir,
		Timeout:     2 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Sizes:       []int{1_000, 10_000, 100_000},
		Scenarios: map[string][]string{
			"rank":     nil,
			"shm-only": {"--certificate", "SHM"},
			"explain":  {"--explain", "--limit", "20"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the homerank binary and the seed dataset exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("homerank"); err != nil {
		return fmt.Errorf("homerank binary not found in PATH")
	}
	if _, err := os.Stat(config.SeedFile); err != nil {
		return fmt.Errorf("seed dataset not found at %s: %w", config.SeedFile, err)
	}
	return nil
}

// synthesizeDataset writes a dataset of n rows by cycling through the seed rows
// and giving every copy a unique property code.
func synthesizeDataset(seedFile, dir string, n int) (string, error) {
	f, err := os.Open(seedFile)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read seed dataset: %w", err)
	}
	if len(records) < 2 {
		return "", fmt.Errorf("seed dataset %s has no rows", seedFile)
	}
	header, rows := records[0], records[1:]

	path := filepath.Join(dir, fmt.Sprintf("housing_%d.csv", n))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = out.Close() }()

	writer := csv.NewWriter(out)
	if err := writer.Write(header); err != nil {
		return "", err
	}
	for i := range n {
		row := append([]string(nil), rows[i%len(rows)]...)
		row[0] = fmt.Sprintf("%s-%06d", row[0], i)
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return path, writer.Error()
}

// runBenchmarks executes all scenarios across the configured dataset sizes
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %d scenarios, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.Sizes), len(config.Scenarios), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, size := range config.Sizes {
		dataset, err := synthesizeDataset(config.SeedFile, config.WorkDir, size)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Benchmarking %d rows\n", size)

		for _, scenario := range []string{"rank", "shm-only", "explain"} {
			results = append(results, runBenchmarkSuite(config, size, dataset, scenario))
		}
	}

	return results, nil
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a scenario
func runBenchmarkSuite(config BenchmarkConfig, size int, dataset, scenario string) BenchmarkResult {
	fmt.Printf("Running %s on %d rows\n", scenario, size)
	cacheFile := filepath.Join(config.WorkDir, fmt.Sprintf("cache_%d_%s.db", size, scenario))

	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, dataset, scenario, cacheArgs, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs against a fresh SQLite file
	coldTime, warmAvg := runPhase([]string{"--cache-backend", "sqlite", "--cache-db-connect", cacheFile}, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Rows:        size,
		Scenario:    scenario,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark ranks the dataset numRuns times and returns the first run time and the remaining run times
func runBenchmark(config BenchmarkConfig, dataset, scenario string, cacheArgs []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{"rank", dataset}, cacheArgs...)
	args = append(args, config.Scenarios[scenario]...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("homerank", args...)
		cmd.Env = append(os.Environ(), "HOME="+config.WorkDir)

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "Ranking completed in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("homerank_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"rows", "scenario", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		record := []string{fmt.Sprint(result.Rows), result.Scenario, result.NoCacheTime, result.ColdTime, result.WarmTime}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by dataset size
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, size := range config.Sizes {
		fmt.Printf("%d rows:\n", size)
		for _, result := range results {
			if result.Rows == size {
				fmt.Printf("  %-10s: No-cache: %s, Cold: %s, Warm: %s\n", result.Scenario, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
