package hashkit

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrServerNotFound       = errors.New("server not found")
)

// Algorithm names accepted by New.
const (
	AlgorithmConsistent         = "consistent_hashing"
	AlgorithmJump               = "jump_hashing"
	AlgorithmMultiProbe         = "mpc_hashing"
	AlgorithmMaglev             = "maglev_hashing"
	AlgorithmRendezvous         = "rendezvous_hashing"
	AlgorithmWeightedRendezvous = "weighted_rendezvous_hashing"
	AlgorithmCarp               = "carp_hashing"
)

// Server is a routing destination. Weight is used by the weighted variants
// and defaults to 1.0 when left zero.
type Server struct {
	ID     string
	Weight float64
}

// Router maps 64-bit request keys to servers. A Router is deterministic:
// the same key always routes to the same server until the server set changes.
// Routers are not safe for concurrent mutation; each benchmark trial owns
// its Router exclusively.
type Router interface {
	Name() string
	Route(key uint64) string
	AddServer(server Server) error
	RemoveServer(id string) error
}

// HashFunc hashes a byte slice into 64 bits. Passing a nil HashFunc to a
// constructor selects Xxh3.
type HashFunc func(key []byte) uint64

// Options carries the per-algorithm tunables. Zero values select defaults.
type Options struct {
	VirtualNodes    int
	Probes          int
	MaglevTableSize int
	Hash            HashFunc
}

// New constructs the named routing algorithm over the given server set.
func New(algorithm string, servers []Server, opts Options) (Router, error) {
	switch algorithm {
	case AlgorithmConsistent:
		return NewConsistent(servers, opts.VirtualNodes, opts.Hash)
	case AlgorithmJump:
		return NewJump(servers, opts.Hash)
	case AlgorithmMultiProbe:
		return NewMultiProbe(servers, opts.Probes, opts.Hash)
	case AlgorithmMaglev:
		return NewMaglev(servers, opts.MaglevTableSize, opts.Hash)
	case AlgorithmRendezvous:
		return NewRendezvous(servers, opts.Hash)
	case AlgorithmWeightedRendezvous:
		return NewWeightedRendezvous(servers, opts.Hash)
	case AlgorithmCarp:
		return NewCarp(servers, opts.Hash)
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfiguration, algorithm)
	}
}

// Algorithms returns every algorithm name New accepts, in a stable order.
func Algorithms() []string {
	return []string{
		AlgorithmConsistent,
		AlgorithmJump,
		AlgorithmMultiProbe,
		AlgorithmMaglev,
		AlgorithmRendezvous,
		AlgorithmWeightedRendezvous,
		AlgorithmCarp,
	}
}

func normalizeServers(servers []Server) ([]Server, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: empty server set", ErrInvalidConfiguration)
	}
	out := make([]Server, len(servers))
	seen := make(map[string]struct{}, len(servers))
	for i, s := range servers {
		s, err := normalizeServer(s)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[s.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate server %q", ErrInvalidConfiguration, s.ID)
		}
		seen[s.ID] = struct{}{}
		out[i] = s
	}
	return out, nil
}

func normalizeServer(s Server) (Server, error) {
	if s.ID == "" {
		return s, fmt.Errorf("%w: empty server id", ErrInvalidConfiguration)
	}
	if s.Weight == 0 {
		s.Weight = 1
	}
	if s.Weight < 0 {
		return s, fmt.Errorf("%w: weight of %q must be positive", ErrInvalidConfiguration, s.ID)
	}
	return s, nil
}

func orDefaultHash(fn HashFunc) HashFunc {
	if fn == nil {
		return Xxh3
	}
	return fn
}

func hashUint64(fn HashFunc, v uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return fn(b[:])
}

func combineHash(fn HashFunc, a, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], a)
	binary.LittleEndian.PutUint64(buf[8:], b)
	return fn(buf[:])
}
