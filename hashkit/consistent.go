package hashkit

import (
	"fmt"
	"sort"
)

// DefaultVirtualNodes is the number of ring points placed per unit of
// server weight.
const DefaultVirtualNodes = 100

type continuumPoint struct {
	server string
	point  uint64
}

// Consistent is a hashing ring with virtual nodes. Every server is hashed
// into multiple positions on a 64-bit ring and a key routes to the owner of
// the first position at or after the key hash, wrapping around at the end.
//
// Removing a server only remaps the keys that were owned by its own points,
// roughly 1/N of the key space for N servers of equal weight.
type Consistent struct {
	hashFn       HashFunc
	virtualNodes int
	servers      map[string]float64
	ring         []continuumPoint
}

func NewConsistent(servers []Server, virtualNodes int, hashFn HashFunc) (*Consistent, error) {
	servers, err := normalizeServers(servers)
	if err != nil {
		return nil, err
	}
	if virtualNodes <= 0 {
		virtualNodes = DefaultVirtualNodes
	}
	c := &Consistent{
		hashFn:       orDefaultHash(hashFn),
		virtualNodes: virtualNodes,
		servers:      make(map[string]float64, len(servers)),
	}
	for _, s := range servers {
		c.servers[s.ID] = s.Weight
	}
	c.rebuild()
	return c, nil
}

func (c *Consistent) Name() string { return AlgorithmConsistent }

func (c *Consistent) Route(key uint64) string {
	h := hashUint64(c.hashFn, key)
	i := sort.Search(len(c.ring), func(i int) bool { return c.ring[i].point >= h })
	if i == len(c.ring) {
		i = 0
	}
	return c.ring[i].server
}

func (c *Consistent) AddServer(server Server) error {
	server, err := normalizeServer(server)
	if err != nil {
		return err
	}
	if _, ok := c.servers[server.ID]; ok {
		return fmt.Errorf("%w: duplicate server %q", ErrInvalidConfiguration, server.ID)
	}
	c.servers[server.ID] = server.Weight
	c.rebuild()
	return nil
}

func (c *Consistent) RemoveServer(id string) error {
	if _, ok := c.servers[id]; !ok {
		return fmt.Errorf("%w: %q", ErrServerNotFound, id)
	}
	if len(c.servers) == 1 {
		return fmt.Errorf("%w: cannot remove the last server", ErrInvalidConfiguration)
	}
	delete(c.servers, id)
	c.rebuild()
	return nil
}

// rebuild recomputes the sorted point continuum. Point positions depend only
// on the (server, replica) pair, so rebuilding after a membership change
// leaves the surviving servers' points in place.
func (c *Consistent) rebuild() {
	ring := make([]continuumPoint, 0, len(c.servers)*c.virtualNodes)
	for id, weight := range c.servers {
		points := int(float64(c.virtualNodes)*weight + 0.5)
		if points < 1 {
			points = 1
		}
		base := c.hashFn([]byte(id))
		for i := 0; i < points; i++ {
			ring = append(ring, continuumPoint{
				server: id,
				point:  combineHash(c.hashFn, base, hashUint64(c.hashFn, uint64(i))),
			})
		}
	}
	sort.Slice(ring, func(i, j int) bool {
		if ring[i].point != ring[j].point {
			return ring[i].point < ring[j].point
		}
		return ring[i].server < ring[j].server
	})
	c.ring = ring
}
