package bench

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"runtime"

	"github.com/bitleak/go-hash-bench/hashkit"
)

type SeedMode string

const (
	// SeedPerTrial derives an independent seed for every trial, which the
	// standard-error estimate requires.
	SeedPerTrial SeedMode = "per-trial-independent"
	// SeedFixed reuses the base seed for every trial, making all trials of
	// a configuration route the exact same workload.
	SeedFixed SeedMode = "fixed"
)

const (
	DefaultNumTrials  = 5
	DefaultConfidence = 0.95
)

// Configuration is one benchmark point: a server count and a request count.
type Configuration struct {
	NumServers  int `json:"num_servers"`
	NumRequests int `json:"num_requests"`
}

// Config carries the run parameters supplied by the external orchestrator.
// Zero values are filled with defaults by Validate.
type Config struct {
	// Algorithms to run; defaults to the six base algorithms. CARP is
	// opt-in.
	Algorithms     []string        `json:"algorithms"`
	Configurations []Configuration `json:"configurations"`

	NumTrials  int     `json:"num_trials"`
	Confidence float64 `json:"confidence"`

	VirtualNodes    int `json:"virtual_nodes"`
	Probes          int `json:"probes"`
	MaglevTableSize int `json:"maglev_table_size"`

	Seed         int64        `json:"seed"`
	SeedMode     SeedMode     `json:"seed_mode"`
	Distribution Distribution `json:"distribution"`

	// Weights are cycled over the server set for the weighted variants;
	// empty means uniform weights everywhere.
	Weights []float64 `json:"weights"`

	Parallelism int `json:"parallelism"`
}

// NewConfigFromFile loads a run config from a JSON file.
func NewConfigFromFile(file string) (*Config, error) {
	content, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return NewConfigFromJSON(content)
}

// NewConfigFromJSON creates a run config from a JSON document.
func NewConfigFromJSON(content []byte) (*Config, error) {
	config := &Config{}
	if err := json.Unmarshal(content, config); err != nil {
		return nil, fmt.Errorf("%w: %v", hashkit.ErrInvalidConfiguration, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate fills defaults and rejects malformed global parameters.
// Per-configuration parameters (server and request counts) are checked at
// run time so one bad configuration only skips itself.
func (c *Config) Validate() error {
	if len(c.Configurations) == 0 {
		return fmt.Errorf("%w: no configurations", hashkit.ErrInvalidConfiguration)
	}
	if len(c.Algorithms) == 0 {
		c.Algorithms = []string{
			hashkit.AlgorithmConsistent,
			hashkit.AlgorithmJump,
			hashkit.AlgorithmMultiProbe,
			hashkit.AlgorithmMaglev,
			hashkit.AlgorithmRendezvous,
			hashkit.AlgorithmWeightedRendezvous,
		}
	}
	known := make(map[string]struct{})
	for _, name := range hashkit.Algorithms() {
		known[name] = struct{}{}
	}
	for _, name := range c.Algorithms {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%w: unknown algorithm %q", hashkit.ErrInvalidConfiguration, name)
		}
	}
	if c.NumTrials == 0 {
		c.NumTrials = DefaultNumTrials
	}
	if c.NumTrials < 0 {
		return fmt.Errorf("%w: num_trials must be positive", hashkit.ErrInvalidConfiguration)
	}
	if c.Confidence == 0 {
		c.Confidence = DefaultConfidence
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("%w: confidence must be in (0, 1)", hashkit.ErrInvalidConfiguration)
	}
	switch c.SeedMode {
	case "":
		c.SeedMode = SeedPerTrial
	case SeedPerTrial, SeedFixed:
	default:
		return fmt.Errorf("%w: unknown seed mode %q", hashkit.ErrInvalidConfiguration, c.SeedMode)
	}
	switch c.Distribution {
	case "":
		c.Distribution = DistributionUniform
	case DistributionUniform, DistributionNormal, DistributionLogNormal:
	default:
		return fmt.Errorf("%w: unknown distribution %q", hashkit.ErrInvalidConfiguration, c.Distribution)
	}
	for _, w := range c.Weights {
		if w <= 0 {
			return fmt.Errorf("%w: weights must be positive", hashkit.ErrInvalidConfiguration)
		}
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	return nil
}

func (c *Config) routerOptions() hashkit.Options {
	return hashkit.Options{
		VirtualNodes:    c.VirtualNodes,
		Probes:          c.Probes,
		MaglevTableSize: c.MaglevTableSize,
	}
}
