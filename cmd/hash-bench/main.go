package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	bench "github.com/bitleak/go-hash-bench"
	"github.com/bitleak/go-hash-bench/hashkit"
)

func main() {
	var (
		servers      string
		requests     string
		algorithms   string
		weights      string
		trials       int
		confidence   float64
		vnodes       int
		probes       int
		maglevTable  int
		seed         int64
		seedMode     string
		distribution string
		out          string
		parallelism  int
		verbose      bool
	)
	flag.StringVar(&servers, "servers", "10", "comma-separated server counts")
	flag.StringVar(&requests, "requests", "100000", "comma-separated request counts")
	flag.StringVar(&algorithms, "algorithms", "", "comma-separated algorithm names (default: all but carp)")
	flag.StringVar(&weights, "weights", "", "comma-separated server weights, cycled for weighted variants")
	flag.IntVar(&trials, "trials", bench.DefaultNumTrials, "trials per configuration")
	flag.Float64Var(&confidence, "confidence", bench.DefaultConfidence, "confidence level in (0,1)")
	flag.IntVar(&vnodes, "vnodes", hashkit.DefaultVirtualNodes, "virtual nodes per server (consistent hashing)")
	flag.IntVar(&probes, "probes", hashkit.DefaultProbes, "probe count (multi-probe hashing)")
	flag.IntVar(&maglevTable, "maglev-table", hashkit.DefaultMaglevTableSize, "maglev lookup table size hint")
	flag.Int64Var(&seed, "seed", 1, "base random seed")
	flag.StringVar(&seedMode, "seed-mode", string(bench.SeedPerTrial), "per-trial-independent or fixed")
	flag.StringVar(&distribution, "distribution", string(bench.DistributionUniform), "key distribution: uniform, normal or lognormal")
	flag.StringVar(&out, "out", "results", "output directory for per-algorithm CSV files")
	flag.IntVar(&parallelism, "parallelism", 0, "worker count (default: number of CPUs)")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logger := logrus.WithField("component", "main")

	serverCounts, err := parseInts(servers)
	if err != nil {
		logger.WithError(err).Fatal("bad -servers")
	}
	requestCounts, err := parseInts(requests)
	if err != nil {
		logger.WithError(err).Fatal("bad -requests")
	}
	weightList, err := parseFloats(weights)
	if err != nil {
		logger.WithError(err).Fatal("bad -weights")
	}

	config := &bench.Config{
		Algorithms:      parseNames(algorithms),
		NumTrials:       trials,
		Confidence:      confidence,
		VirtualNodes:    vnodes,
		Probes:          probes,
		MaglevTableSize: maglevTable,
		Seed:            seed,
		SeedMode:        bench.SeedMode(seedMode),
		Distribution:    bench.Distribution(distribution),
		Weights:         weightList,
		Parallelism:     parallelism,
	}
	for _, n := range serverCounts {
		for _, r := range requestCounts {
			config.Configurations = append(config.Configurations, bench.Configuration{
				NumServers:  n,
				NumRequests: r,
			})
		}
	}

	b, err := bench.New(config)
	if err != nil {
		logger.WithError(err).Fatal("invalid run config")
	}
	sink, err := bench.NewCSVSink(out)
	if err != nil {
		logger.WithError(err).Fatal("cannot open result sink")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := b.Run(ctx, sink)
	if closeErr := sink.Close(); closeErr != nil {
		logger.WithError(closeErr).Error("flushing result sink failed")
	}
	if err != nil {
		logger.WithError(err).Error("run aborted")
	}
	logger.WithFields(logrus.Fields{
		"results":  len(summary.Results),
		"failures": len(summary.Failures),
	}).Info("run finished")
	for _, failure := range summary.Failures {
		logger.Warn(failure.Error())
	}
	if err != nil || len(summary.Failures) > 0 {
		os.Exit(1)
	}
}

func parseNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

func parseInts(s string) ([]int, error) {
	var values []int
	for _, part := range parseNames(s) {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func parseFloats(s string) ([]float64, error) {
	var values []float64
	for _, part := range parseNames(s) {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
