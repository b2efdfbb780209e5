package bench

import (
	"errors"
	"math"
	"testing"
	"time"
)

func evenHits(numServers int, perServer int64) map[string]int64 {
	hits := make(map[string]int64, numServers)
	for _, s := range buildServers(numServers, nil) {
		hits[s.ID] = perServer
	}
	return hits
}

func TestAggregate(t *testing.T) {
	cfg := Configuration{NumServers: 4, NumRequests: 1000}
	trials := []TrialResult{
		{Elapsed: 10 * time.Millisecond, Hits: evenHits(4, 250)},
		{Elapsed: 10 * time.Millisecond, Hits: evenHits(4, 250)},
		{Elapsed: 20 * time.Millisecond, Hits: evenHits(4, 250)},
		{Elapsed: 20 * time.Millisecond, Hits: evenHits(4, 250)},
	}
	res, err := aggregate("consistent_hashing", cfg, trials, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	// Samples are 100k, 100k, 50k, 50k requests per second.
	if want := 75000.0; math.Abs(res.Throughput-want) > 1 {
		t.Errorf("mean throughput: want %f, got %f", want, res.Throughput)
	}
	// Sample stddev is sqrt(sum((x-mean)^2)/3), stderr divides by sqrt(4).
	wantStdErr := math.Sqrt(2.5e9/3.0) / 2
	if math.Abs(res.StdErr-wantStdErr) > 1 {
		t.Errorf("standard error: want %f, got %f", wantStdErr, res.StdErr)
	}
	if res.CILow >= res.Throughput || res.CIHigh <= res.Throughput {
		t.Errorf("confidence interval [%f, %f] must straddle the mean %f",
			res.CILow, res.CIHigh, res.Throughput)
	}
	if res.CoV != 0 {
		t.Errorf("perfectly even load must have zero coefficient of variation, got %f", res.CoV)
	}
}

func TestAggregateInsufficientTrials(t *testing.T) {
	cfg := Configuration{NumServers: 2, NumRequests: 100}
	trials := []TrialResult{
		{Elapsed: time.Millisecond, Hits: evenHits(2, 50)},
	}
	res, err := aggregate("jump_hashing", cfg, trials, 0.95)
	if !errors.Is(err, ErrInsufficientTrials) {
		t.Fatalf("expected ErrInsufficientTrials, got %v", err)
	}
	// The raw mean is still reported, never a fabricated interval.
	if res.Throughput <= 0 {
		t.Errorf("raw mean must be reported, got %f", res.Throughput)
	}
	if res.StdErr != 0 || res.CILow != 0 || res.CIHigh != 0 {
		t.Error("no interval may be fabricated from a single trial")
	}
}

func TestZScore(t *testing.T) {
	if z := zScore(0.95); math.Abs(z-1.96) > 0.001 {
		t.Errorf("z(0.95): want 1.96, got %f", z)
	}
	if z := zScore(0.99); math.Abs(z-2.576) > 0.001 {
		t.Errorf("z(0.99): want 2.576, got %f", z)
	}
}

func TestLoadVariationCountsSilentServers(t *testing.T) {
	hits := evenHits(4, 0)
	hits["server-0"] = 100
	cov := loadVariation([]TrialResult{{Elapsed: time.Millisecond, Hits: hits}})
	// One loaded server out of four: stddev/mean = sqrt(3).
	if math.Abs(cov-math.Sqrt(3)) > 0.001 {
		t.Errorf("want cov sqrt(3), got %f", cov)
	}
}
