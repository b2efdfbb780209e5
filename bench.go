package bench

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// ConfigError records one configuration that could not produce a result.
type ConfigError struct {
	Algorithm string
	Config    Configuration
	Err       error
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s num_servers=%d num_requests=%d: %v",
		e.Algorithm, e.Config.NumServers, e.Config.NumRequests, e.Err)
}

func (e ConfigError) Unwrap() error { return e.Err }

// Summary is the outcome of a full run: every successful result plus every
// skipped configuration with its reason.
type Summary struct {
	Results  []ConfigResult
	Failures []ConfigError
}

// Bench drives the selected algorithms through every configuration and
// owns the lifetime of the collected results.
type Bench struct {
	config *Config
	logger *logrus.Entry
}

func New(config *Config) (*Bench, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Bench{
		config: config,
		logger: logrus.WithField("component", "bench"),
	}, nil
}

type workItem struct {
	algorithm string
	config    Configuration
}

type outcome struct {
	item   workItem
	result ConfigResult
	err    error
}

// Run fans (algorithm, configuration) pairs out over a fixed-size worker
// pool and writes one row per successful pair to the sink. A failing
// configuration is recorded in the summary and never aborts its siblings.
// Cancelling the context stops scheduling new configurations; in-flight
// trials finish and their results are kept.
func (b *Bench) Run(ctx context.Context, sink Sink) (*Summary, error) {
	items := make([]workItem, 0, len(b.config.Algorithms)*len(b.config.Configurations))
	for _, algorithm := range b.config.Algorithms {
		for _, cfg := range b.config.Configurations {
			items = append(items, workItem{algorithm: algorithm, config: cfg})
		}
	}

	work := make(chan workItem)
	outcomes := make(chan outcome, len(items))

	var wg sync.WaitGroup
	for i := 0; i < b.config.Parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				result, err := b.runConfiguration(item.algorithm, item.config)
				outcomes <- outcome{item: item, result: result, err: err}
			}
		}()
	}
	go func() {
		defer close(work)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case work <- item:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	summary := &Summary{}
	for o := range outcomes {
		logger := b.logger.WithFields(logrus.Fields{
			"algorithm":    o.item.algorithm,
			"num_servers":  o.item.config.NumServers,
			"num_requests": o.item.config.NumRequests,
		})
		if o.err != nil {
			if errors.Is(o.err, ErrInsufficientTrials) {
				// The raw mean is still worth surfacing, just never as a row.
				logger.WithField("throughput", o.result.Throughput).
					WithError(o.err).Warn("configuration skipped")
			} else {
				logger.WithError(o.err).Warn("configuration skipped")
			}
			summary.Failures = append(summary.Failures, ConfigError{
				Algorithm: o.item.algorithm,
				Config:    o.item.config,
				Err:       o.err,
			})
			continue
		}
		summary.Results = append(summary.Results, o.result)
		if sink != nil {
			if err := sink.Write(o.result); err != nil {
				return summary, err
			}
		}
		logger.WithFields(logrus.Fields{
			"throughput": o.result.Throughput,
			"cov":        o.result.CoV,
		}).Info("configuration completed")
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		x, y := summary.Results[i], summary.Results[j]
		if x.Algorithm != y.Algorithm {
			return x.Algorithm < y.Algorithm
		}
		if x.NumServers != y.NumServers {
			return x.NumServers < y.NumServers
		}
		return x.NumRequests < y.NumRequests
	})
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}
