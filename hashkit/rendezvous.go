package hashkit

import (
	"fmt"
	"sort"
)

// Rendezvous implements highest-random-weight hashing. A key routes to the
// server with the maximum combined hash of (server, key); no structure is
// kept beyond the server list, so a route is O(n). Adding or removing a
// server only moves the keys that score highest on that server.
type Rendezvous struct {
	hashFn  HashFunc
	servers []string
	hashes  map[string]uint64
}

func NewRendezvous(servers []Server, hashFn HashFunc) (*Rendezvous, error) {
	servers, err := normalizeServers(servers)
	if err != nil {
		return nil, err
	}
	r := &Rendezvous{
		hashFn:  orDefaultHash(hashFn),
		servers: make([]string, 0, len(servers)),
		hashes:  make(map[string]uint64, len(servers)),
	}
	for _, s := range servers {
		r.servers = append(r.servers, s.ID)
		r.hashes[s.ID] = r.hashFn([]byte(s.ID))
	}
	sort.Strings(r.servers)
	return r, nil
}

func (r *Rendezvous) Name() string { return AlgorithmRendezvous }

func (r *Rendezvous) Route(key uint64) string {
	point := hashUint64(r.hashFn, key)
	var (
		best      string
		bestScore uint64
	)
	for _, id := range r.servers {
		score := combineHash(r.hashFn, r.hashes[id], point)
		if best == "" || score > bestScore {
			best, bestScore = id, score
		}
	}
	return best
}

func (r *Rendezvous) AddServer(server Server) error {
	server, err := normalizeServer(server)
	if err != nil {
		return err
	}
	if _, ok := r.hashes[server.ID]; ok {
		return fmt.Errorf("%w: duplicate server %q", ErrInvalidConfiguration, server.ID)
	}
	r.hashes[server.ID] = r.hashFn([]byte(server.ID))
	r.servers = append(r.servers, server.ID)
	sort.Strings(r.servers)
	return nil
}

func (r *Rendezvous) RemoveServer(id string) error {
	if _, ok := r.hashes[id]; !ok {
		return fmt.Errorf("%w: %q", ErrServerNotFound, id)
	}
	if len(r.servers) == 1 {
		return fmt.Errorf("%w: cannot remove the last server", ErrInvalidConfiguration)
	}
	delete(r.hashes, id)
	for i, known := range r.servers {
		if known == id {
			r.servers = append(r.servers[:i], r.servers[i+1:]...)
			break
		}
	}
	return nil
}
