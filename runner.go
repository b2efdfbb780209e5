package bench

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bitleak/go-hash-bench/hashkit"
)

// buildServers constructs the trial server set. Weights cycle through the
// configured list; an empty list yields uniform weights.
func buildServers(n int, weights []float64) []hashkit.Server {
	servers := make([]hashkit.Server, n)
	for i := range servers {
		weight := 1.0
		if len(weights) > 0 {
			weight = weights[i%len(weights)]
		}
		servers[i] = hashkit.Server{
			ID:     "server-" + strconv.Itoa(i),
			Weight: weight,
		}
	}
	return servers
}

// runTrial routes every key through the router and measures the routing
// loop only; router construction is excluded from the measurement.
func runTrial(router hashkit.Router, servers []hashkit.Server, keys []uint64) TrialResult {
	hits := make(map[string]int64, len(servers))
	for _, s := range servers {
		hits[s.ID] = 0
	}

	start := time.Now()
	for _, key := range keys {
		hits[router.Route(key)]++
	}
	elapsed := time.Since(start)

	return TrialResult{Elapsed: elapsed, Hits: hits}
}

// runConfiguration executes all trials for one (algorithm, configuration)
// pair. Every trial builds a fresh router so no state is shared between
// trials, and draws its workload from its own seed.
func (b *Bench) runConfiguration(algorithm string, cfg Configuration) (ConfigResult, error) {
	if cfg.NumServers <= 0 {
		return ConfigResult{}, fmt.Errorf("%w: num_servers=%d",
			hashkit.ErrInvalidConfiguration, cfg.NumServers)
	}
	if cfg.NumRequests <= 0 {
		return ConfigResult{}, fmt.Errorf("%w: num_requests=%d",
			hashkit.ErrInvalidConfiguration, cfg.NumRequests)
	}

	var weights []float64
	if isWeighted(algorithm) {
		weights = b.config.Weights
	}
	servers := buildServers(cfg.NumServers, weights)

	trials := make([]TrialResult, 0, b.config.NumTrials)
	for trial := 0; trial < b.config.NumTrials; trial++ {
		router, err := hashkit.New(algorithm, servers, b.config.routerOptions())
		if err != nil {
			return ConfigResult{}, err
		}
		keys := NewKeyGenerator(b.config.Distribution, b.trialSeed(trial)).NextN(cfg.NumRequests)
		trials = append(trials, runTrial(router, servers, keys))
	}
	return aggregate(algorithm, cfg, trials, b.config.Confidence)
}

func (b *Bench) trialSeed(trial int) int64 {
	if b.config.SeedMode == SeedFixed {
		return b.config.Seed
	}
	return b.config.Seed + int64(trial)
}

func isWeighted(algorithm string) bool {
	switch algorithm {
	case hashkit.AlgorithmWeightedRendezvous, hashkit.AlgorithmCarp:
		return true
	}
	return false
}
