package bench

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
)

// Sink consumes finished rows, one per (algorithm, configuration) pair.
// Rows are only ever written from fully-computed results.
type Sink interface {
	Write(result ConfigResult) error
	Close() error
}

var resultColumns = []string{
	"num_requests",
	"num_servers",
	"requests_per_server",
	"distribution",
	"throughput",
	"standard_error",
	"confidence_interval",
}

// CSVSink appends one CSV file per algorithm under a directory, writing the
// header only when the file is empty. Rows are buffered and flushed on
// Close.
type CSVSink struct {
	dir     string
	files   map[string]*os.File
	writers map[string]*csv.Writer
}

func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &CSVSink{
		dir:     dir,
		files:   make(map[string]*os.File),
		writers: make(map[string]*csv.Writer),
	}, nil
}

func (s *CSVSink) Write(result ConfigResult) error {
	w, err := s.writer(result.Algorithm)
	if err != nil {
		return err
	}
	return w.Write([]string{
		strconv.Itoa(result.NumRequests),
		strconv.Itoa(result.NumServers),
		formatFloat(float64(result.NumRequests) / float64(result.NumServers)),
		formatFloat(result.CoV),
		formatFloat(result.Throughput),
		formatFloat(result.StdErr),
		// Half-width of the interval; the bounds are mean +- this value.
		formatFloat(result.CIHigh - result.Throughput),
	})
}

func (s *CSVSink) Close() error {
	var firstErr error
	for _, w := range s.writers {
		w.Flush()
		if err := w.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *CSVSink) writer(algorithm string) (*csv.Writer, error) {
	if w, ok := s.writers[algorithm]; ok {
		return w, nil
	}
	f, err := os.OpenFile(filepath.Join(s.dir, algorithm+".csv"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(resultColumns); err != nil {
			f.Close()
			return nil, err
		}
	}
	s.files[algorithm] = f
	s.writers[algorithm] = w
	return w, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
