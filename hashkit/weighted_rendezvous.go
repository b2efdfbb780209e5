package hashkit

import (
	"fmt"
	"math"
	"sort"
)

// WeightedRendezvous is rendezvous hashing with weight-proportional
// selection. The combined hash is mapped to a uniform value in (0, 1] and
// scored as -weight / ln(u), so a server's share of keys converges to its
// share of the total weight.
type WeightedRendezvous struct {
	hashFn  HashFunc
	entries []wrEntry
}

type wrEntry struct {
	id     string
	weight float64
	hash   uint64
}

func NewWeightedRendezvous(servers []Server, hashFn HashFunc) (*WeightedRendezvous, error) {
	servers, err := normalizeServers(servers)
	if err != nil {
		return nil, err
	}
	w := &WeightedRendezvous{
		hashFn:  orDefaultHash(hashFn),
		entries: make([]wrEntry, 0, len(servers)),
	}
	for _, s := range servers {
		w.entries = append(w.entries, wrEntry{
			id:     s.ID,
			weight: s.Weight,
			hash:   w.hashFn([]byte(s.ID)),
		})
	}
	sort.Slice(w.entries, func(i, j int) bool { return w.entries[i].id < w.entries[j].id })
	return w, nil
}

func (w *WeightedRendezvous) Name() string { return AlgorithmWeightedRendezvous }

func (w *WeightedRendezvous) Route(key uint64) string {
	point := hashUint64(w.hashFn, key)
	var (
		best      string
		bestScore float64
	)
	for _, e := range w.entries {
		u := (float64(combineHash(w.hashFn, e.hash, point)) + 1) / twoTo64
		score := -e.weight / math.Log(u)
		if best == "" || score > bestScore {
			best, bestScore = e.id, score
		}
	}
	return best
}

func (w *WeightedRendezvous) AddServer(server Server) error {
	server, err := normalizeServer(server)
	if err != nil {
		return err
	}
	if w.find(server.ID) != -1 {
		return fmt.Errorf("%w: duplicate server %q", ErrInvalidConfiguration, server.ID)
	}
	w.entries = append(w.entries, wrEntry{
		id:     server.ID,
		weight: server.Weight,
		hash:   w.hashFn([]byte(server.ID)),
	})
	sort.Slice(w.entries, func(i, j int) bool { return w.entries[i].id < w.entries[j].id })
	return nil
}

func (w *WeightedRendezvous) RemoveServer(id string) error {
	index := w.find(id)
	if index == -1 {
		return fmt.Errorf("%w: %q", ErrServerNotFound, id)
	}
	if len(w.entries) == 1 {
		return fmt.Errorf("%w: cannot remove the last server", ErrInvalidConfiguration)
	}
	w.entries = append(w.entries[:index], w.entries[index+1:]...)
	return nil
}

func (w *WeightedRendezvous) find(id string) int {
	for i, e := range w.entries {
		if e.id == id {
			return i
		}
	}
	return -1
}

const twoTo64 = 1 << 64
