package bench

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInsufficientTrials signals that fewer than two trials were available,
// so a standard error and confidence interval would be fabricated.
var ErrInsufficientTrials = errors.New("insufficient trials")

// TrialResult is the raw outcome of routing one generated workload: the
// elapsed time of the routing loop and per-server hit counts. The hit
// counts always sum to the request count of the trial.
type TrialResult struct {
	Elapsed time.Duration
	Hits    map[string]int64
}

// ConfigResult aggregates all trials for one (algorithm, configuration)
// pair. It is immutable once computed and maps one-to-one to a sink row.
type ConfigResult struct {
	Algorithm   string
	NumServers  int
	NumRequests int
	NumTrials   int

	// Throughput is the mean routed requests per second across trials.
	Throughput float64
	StdErr     float64
	CILow      float64
	CIHigh     float64

	// CoV is the coefficient of variation of per-server load, averaged
	// across trials. Zero means a perfectly even distribution.
	CoV float64
}

// aggregate reduces per-trial samples to one result. With fewer than two
// trials it returns the raw mean together with ErrInsufficientTrials
// instead of a zero standard error.
func aggregate(algorithm string, cfg Configuration, trials []TrialResult, confidence float64) (ConfigResult, error) {
	res := ConfigResult{
		Algorithm:   algorithm,
		NumServers:  cfg.NumServers,
		NumRequests: cfg.NumRequests,
		NumTrials:   len(trials),
	}
	if len(trials) == 0 {
		return res, fmt.Errorf("%w: no trials", ErrInsufficientTrials)
	}

	throughputs := make([]float64, len(trials))
	var mean float64
	for i, t := range trials {
		throughputs[i] = float64(cfg.NumRequests) / t.Elapsed.Seconds()
		mean += throughputs[i]
	}
	mean /= float64(len(trials))
	res.Throughput = mean
	res.CoV = loadVariation(trials)

	if len(trials) < 2 {
		return res, fmt.Errorf("%w: got %d trial, need at least 2 for a confidence interval",
			ErrInsufficientTrials, len(trials))
	}

	var sumSquares float64
	for _, v := range throughputs {
		sumSquares += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(sumSquares / float64(len(trials)-1))
	res.StdErr = stddev / math.Sqrt(float64(len(trials)))

	z := zScore(confidence)
	res.CILow = mean - z*res.StdErr
	res.CIHigh = mean + z*res.StdErr
	return res, nil
}

// zScore is the two-sided critical value of the standard normal
// distribution for the given confidence level (0.95 -> 1.96).
func zScore(confidence float64) float64 {
	return math.Sqrt2 * math.Erfinv(confidence)
}

// loadVariation computes the coefficient of variation of per-server hit
// counts summed across trials. Servers that received no hits still count:
// runTrial seeds every server with a zero entry.
func loadVariation(trials []TrialResult) float64 {
	totals := make(map[string]float64)
	for _, t := range trials {
		for id, hits := range t.Hits {
			totals[id] += float64(hits)
		}
	}
	if len(totals) == 0 {
		return 0
	}
	var mean float64
	for _, v := range totals {
		mean += v
	}
	mean /= float64(len(totals))
	if mean == 0 {
		return 0
	}
	var sumSquares float64
	for _, v := range totals {
		sumSquares += (v - mean) * (v - mean)
	}
	return math.Sqrt(sumSquares/float64(len(totals))) / mean
}
