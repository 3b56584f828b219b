package lock

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/davLS/cmd/util"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for davLS servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfPathPrefix = "/__test"
	perfNumThreads = 10
	perfNumOps     = 10000
	perfPathSpread = 100
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. acquire-release,check)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per benchmark"))
	key = "paths"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different paths to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfNumOps = viper.GetInt("ops")
	perfPathSpread = viper.GetInt("paths")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for davLS servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Operations: %d\n", perfNumOps)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map, one latency timer per benchmark
	results := make(map[string]metrics.Timer)

	// acquire-release: exclusive lock plus release on distinct paths
	results["acquire-release"] = runBenchmark("acquire-release", func(i int, timer metrics.Timer) {
		path := perfPath("acquire-release", i)
		var token string

		timer.Time(func() {
			lock, err := rpcLockSys.Lock(path, nil, 0, false, false)
			if err != nil {
				log.Printf("(acquire-release) - error acquiring lock: %v\n", err)
				return
			}
			token = lock.Token
		})

		if token != "" {
			if err := rpcLockSys.Unlock(path, token); err != nil {
				log.Printf("(acquire-release) - error releasing lock: %v\n", err)
			}
		}
	})

	// shared: concurrent shared locks on the same small path set
	results["shared"] = runBenchmark("shared", func(i int, timer metrics.Timer) {
		path := perfPath("shared", i)

		var token string
		timer.Time(func() {
			lock, err := rpcLockSys.Lock(path, nil, 0, true, false)
			if err != nil {
				log.Printf("(shared) - error acquiring shared lock: %v\n", err)
				return
			}
			token = lock.Token
		})

		if token != "" {
			if err := rpcLockSys.Unlock(path, token); err != nil {
				log.Printf("(shared) - error releasing shared lock: %v\n", err)
			}
		}
	})

	// check: access checks against an unlocked subtree
	results["check"] = runBenchmark("check", func(i int, timer metrics.Timer) {
		path := perfPath("check", i)

		timer.Time(func() {
			if err := rpcLockSys.Check(path, nil); err != nil {
				log.Printf("(check) - error checking path: %v\n", err)
			}
		})
	})

	// discover: lock discovery along a path
	results["discover"] = runBenchmark("discover", func(i int, timer metrics.Timer) {
		path := perfPath("discover", i)

		timer.Time(func() {
			if _, err := rpcLockSys.Discover(path); err != nil {
				log.Printf("(discover) - error discovering locks: %v\n", err)
			}
		})
	})

	// Clean up all benchmark paths
	if err := rpcLockSys.Delete(perfPathPrefix); err != nil {
		log.Printf("error cleaning up benchmark paths: %v\n", err)
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// perfPath returns a benchmark path by index (with wraparound)
func perfPath(prefix string, i int) string {
	return fmt.Sprintf("%s/%s/res-%d", perfPathPrefix, prefix, i%perfPathSpread)
}

// runBenchmark runs one benchmark with perfNumThreads workers sharing
// perfNumOps operations and returns the latency timer
func runBenchmark(test string, op func(i int, timer metrics.Timer)) metrics.Timer {
	timer := metrics.NewTimer()

	if shouldSkip(test) {
		printResult(test, timer)
		return timer
	}

	var wg sync.WaitGroup
	opsPerThread := perfNumOps / perfNumThreads

	start := time.Now()
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			for i := 0; i < opsPerThread; i++ {
				op(thread*opsPerThread+i, timer)
			}
		}(t)
	}
	wg.Wait()
	elapsed := time.Since(start)

	printResult(test, timer)
	fmt.Printf("%-20swall time %s (%.0f ops/sec overall)\n", "",
		elapsed, float64(timer.Count())/elapsed.Seconds())

	return timer
}

// printResult prints the latency distribution of a benchmark test in a formatted way
func printResult(test string, timer metrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-20smean %s\tp50 %s\tp95 %s\tp99 %s\t%.0f ops/sec\n",
		test,
		time.Duration(int64(timer.Mean())),
		time.Duration(int64(ps[0])),
		time.Duration(int64(ps[1])),
		time.Duration(int64(ps[2])),
		timer.RateMean(),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]metrics.Timer) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"NamespaceID", "Serializer", "Transport",
		"Threads", "Paths Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, timer := range results {
		skipped := "false"
		if timer.Count() == 0 {
			skipped = "true"
		}

		ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})
		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			fmt.Sprintf("%.0f", timer.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			fmt.Sprintf("%.0f", timer.RateMean()),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetNamespaceID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfPathSpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
