// Command gosession-benchdiff compares two `go test -bench` outputs and exits
// non-zero when a tracked benchmark regressed past the threshold.
//
//	go test -run x -bench 'Gate|Metrics' -count 10 . > new.txt
//	gosession-benchdiff -baseline old.txt -candidate new.txt
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

const defaultThreshold = 0.30

// defaultTracked are the hot paths: the gate runs on every request and the
// counters on every operation.
var defaultTracked = map[string][]string{
	"BenchmarkGateProtected":      {"ns/op", "allocs/op"},
	"BenchmarkGatePublic":         {"ns/op", "allocs/op"},
	"BenchmarkMetricsIncParallel": {"ns/op"},
}

func main() {
	var (
		baselinePath  string
		candidatePath string
		threshold     float64
		benchmarks    string
	)

	flag.StringVar(&baselinePath, "baseline", "", "path to baseline benchmark output")
	flag.StringVar(&candidatePath, "candidate", "", "path to candidate benchmark output")
	flag.Float64Var(&threshold, "threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	flag.StringVar(&benchmarks, "bench", "", "comma-separated benchmark names to track (ns/op only); defaults to the gate and metrics benchmarks")
	flag.Parse()

	if baselinePath == "" || candidatePath == "" {
		fmt.Fprintln(os.Stderr, "-baseline and -candidate are required")
		os.Exit(2)
	}
	if threshold < 0 {
		fmt.Fprintln(os.Stderr, "-threshold must be >= 0")
		os.Exit(2)
	}

	tracked := defaultTracked
	if benchmarks != "" {
		tracked = map[string][]string{}
		for _, name := range strings.Split(benchmarks, ",") {
			if name = strings.TrimSpace(name); name != "" {
				tracked[name] = []string{"ns/op"}
			}
		}
	}

	baseline, err := parseFile(baselinePath, tracked)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse baseline: %v\n", err)
		os.Exit(1)
	}
	candidate, err := parseFile(candidatePath, tracked)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse candidate: %v\n", err)
		os.Exit(1)
	}

	rows, failures := compare(tracked, baseline, candidate, threshold)
	fmt.Println("benchmark metric baseline candidate delta")
	for _, r := range rows {
		fmt.Printf("%s %s %.3f %.3f %+0.2f%%\n", r.benchmark, r.metric, r.baseline, r.candidate, r.delta*100)
	}

	if len(failures) > 0 {
		fmt.Fprintln(os.Stderr, "performance regression threshold exceeded:")
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  - %s\n", f)
		}
		os.Exit(1)
	}
}
