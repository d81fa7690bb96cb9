// Package main provides a performance benchmarking tool for the patchrisk CLI.
// It measures how long the verdict and methods passes take for a set of diffs,
// with and without the artifact cache. Each diff is run several times: the
// first successful cached run counts as cold and the rest are averaged as warm.
// Results are written as CSV for performance analysis and documentation.
//
// Prerequisites:
// - patchrisk binary installed and available in PATH
// - A patch file per diff named D<diff-id>.patch inside the patch directory
// - Network access to the artifact host (or PATCHRISK_ARTIFACT_URL set)
//
// Usage: go run benchmark/main.go [patch-dir] [diff-id...]
//
//	patch-dir: Directory containing the diff patches
//	diff-id:   Diffs to benchmark
package main

import (
	"context"
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
	DiffID      string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	PatchDir    string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	DiffIDs     []string
}

func main() {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: %s [patch-dir] [diff-id...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		PatchDir:    os.Args[1],
		Timeout:     2 * time.Minute,
		Workers:     4,
		NoCacheRuns: 3,
		CacheRuns:   4,
		DiffIDs:     os.Args[2:],
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("patchrisk", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the patchrisk binary and the patches exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("patchrisk"); err != nil {
		return fmt.Errorf("patchrisk binary not found in PATH")
	}

	for _, diffID := range config.DiffIDs {
		path := patchPath(config, diffID)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("patch for diff %s not found at %s", diffID, path)
		}
	}

	return nil
}

func patchPath(config BenchmarkConfig, diffID string) string {
	return filepath.Join(config.PatchDir, "D"+strings.TrimPrefix(diffID, "D")+".patch")
}

// runBenchmarks executes both passes for every configured diff
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d diffs, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.DiffIDs), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, diffID := range config.DiffIDs {
		fmt.Printf("Benchmarking diff %s\n", diffID)

		results = append(results, runBenchmarkSuite(config, diffID, "verdict", []string{diffID}))

		methodArgs := []string{diffID, "--patch", patchPath(config, diffID)}
		results = append(results, runBenchmarkSuite(config, diffID, "methods", methodArgs))
	}

	// All diffs at once exercises the worker pool of the overall pass.
	if len(config.DiffIDs) > 1 {
		results = append(results, runBenchmarkSuite(config, "all", "verdict", config.DiffIDs))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, diffID, command string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, diffID)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, command, args, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		DiffID:      diffID,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a patchrisk command multiple times with the given cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, command string, extraArgs []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{command, "--cache-backend", cacheBackend, "--workers", fmt.Sprint(config.Workers)}
	args = append(args, extraArgs...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "patchrisk", args...).CombinedOutput()
		if err == nil && isSuccess(output) {
			times = append(times, time.Since(start).Seconds())
		}
		cancel()
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Review completed in") &&
		strings.Contains(outputStr, "Cache backend")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/patchrisk_benchmark_%s.csv", timestamp)

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
	defer writer.Flush()

	if err := writer.Write([]string{"diff", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.DiffID, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "verdict", "Verdict Pass:")
	printCommandSummary(results, "methods", "Method Pass:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-12s: No-cache: %s, Cold: %s, Warm: %s\n", result.DiffID, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
