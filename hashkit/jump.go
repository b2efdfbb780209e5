package hashkit

import (
	"fmt"
)

// Jump implements jump consistent hashing. It keeps no ring at all: the key
// hash seeds a linear-congruential generator that jumps an index forward
// until it would pass the server count, in O(log n) expected steps.
//
// Servers occupy a dense index range, so only the highest-indexed server can
// be removed without renumbering the whole set.
type Jump struct {
	hashFn HashFunc
	ids    []string
}

func NewJump(servers []Server, hashFn HashFunc) (*Jump, error) {
	servers, err := normalizeServers(servers)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(servers))
	for i, s := range servers {
		ids[i] = s.ID
	}
	return &Jump{hashFn: orDefaultHash(hashFn), ids: ids}, nil
}

func (j *Jump) Name() string { return AlgorithmJump }

func (j *Jump) Route(key uint64) string {
	return j.ids[jump(hashUint64(j.hashFn, key), int32(len(j.ids)))]
}

func (j *Jump) AddServer(server Server) error {
	server, err := normalizeServer(server)
	if err != nil {
		return err
	}
	for _, id := range j.ids {
		if id == server.ID {
			return fmt.Errorf("%w: duplicate server %q", ErrInvalidConfiguration, server.ID)
		}
	}
	j.ids = append(j.ids, server.ID)
	return nil
}

func (j *Jump) RemoveServer(id string) error {
	index := -1
	for i, known := range j.ids {
		if known == id {
			index = i
			break
		}
	}
	if index == -1 {
		return fmt.Errorf("%w: %q", ErrServerNotFound, id)
	}
	if len(j.ids) == 1 {
		return fmt.Errorf("%w: cannot remove the last server", ErrInvalidConfiguration)
	}
	if index != len(j.ids)-1 {
		return fmt.Errorf("%w: jump hashing only removes the highest-indexed server", ErrInvalidConfiguration)
	}
	j.ids = j.ids[:index]
	return nil
}

// jump is the Lamport-Veach loop from "A Fast, Minimal Memory, Consistent
// Hash Algorithm".
func jump(key uint64, buckets int32) int32 {
	var b, j int64 = -1, 0
	for j < int64(buckets) {
		b = j
		key = key*2862933555777941757 + 1
		j = int64(float64(b+1) * (float64(int64(1)<<31) / float64((key>>33)+1)))
	}
	return int32(b)
}
