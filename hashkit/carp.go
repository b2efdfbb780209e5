package hashkit

import (
	"fmt"
	"math"
	"sort"
)

// Carp implements the Cache Array Routing Protocol. Servers are assigned a
// relative weight derived from their configured weights so that the product
// of score and relative weight distributes keys proportionally. Like
// rendezvous hashing, a route scores every server and picks the maximum.
type Carp struct {
	hashFn HashFunc
	nodes  []carpNode
}

type carpNode struct {
	id             string
	hash           uint64
	weight         float64
	relativeWeight float64
}

func NewCarp(servers []Server, hashFn HashFunc) (*Carp, error) {
	servers, err := normalizeServers(servers)
	if err != nil {
		return nil, err
	}
	c := &Carp{
		hashFn: orDefaultHash(hashFn),
		nodes:  make([]carpNode, 0, len(servers)),
	}
	for _, s := range servers {
		c.nodes = append(c.nodes, carpNode{
			id:     s.ID,
			hash:   c.hashFn([]byte(s.ID)),
			weight: s.Weight,
		})
	}
	c.sortNodes()
	c.rebalance()
	return c, nil
}

func (c *Carp) Name() string { return AlgorithmCarp }

func (c *Carp) Route(key uint64) string {
	point := hashUint64(c.hashFn, key)
	var (
		best      string
		bestScore float64
	)
	for i := range c.nodes {
		n := &c.nodes[i]
		score := float64(combineHash(c.hashFn, n.hash, point)) * n.relativeWeight
		if best == "" || score > bestScore || (score == bestScore && n.id < best) {
			best, bestScore = n.id, score
		}
	}
	return best
}

func (c *Carp) AddServer(server Server) error {
	server, err := normalizeServer(server)
	if err != nil {
		return err
	}
	for i := range c.nodes {
		if c.nodes[i].id == server.ID {
			return fmt.Errorf("%w: duplicate server %q", ErrInvalidConfiguration, server.ID)
		}
	}
	c.nodes = append(c.nodes, carpNode{
		id:     server.ID,
		hash:   c.hashFn([]byte(server.ID)),
		weight: server.Weight,
	})
	c.sortNodes()
	c.rebalance()
	return nil
}

func (c *Carp) RemoveServer(id string) error {
	index := -1
	for i := range c.nodes {
		if c.nodes[i].id == id {
			index = i
			break
		}
	}
	if index == -1 {
		return fmt.Errorf("%w: %q", ErrServerNotFound, id)
	}
	if len(c.nodes) == 1 {
		return fmt.Errorf("%w: cannot remove the last server", ErrInvalidConfiguration)
	}
	c.nodes = append(c.nodes[:index], c.nodes[index+1:]...)
	c.rebalance()
	return nil
}

// sortNodes orders by ascending weight, which the relative-weight recurrence
// below requires, with the id as a deterministic tie-break.
func (c *Carp) sortNodes() {
	sort.Slice(c.nodes, func(i, j int) bool {
		if c.nodes[i].weight != c.nodes[j].weight {
			return c.nodes[i].weight < c.nodes[j].weight
		}
		return c.nodes[i].id < c.nodes[j].id
	})
}

// rebalance computes the CARP relative weights. The recurrence follows the
// load factor derivation in the CARP draft: each node's multiplier corrects
// for the probability mass already granted to lighter nodes.
func (c *Carp) rebalance() {
	product := 1.0
	count := float64(len(c.nodes))
	for i := range c.nodes {
		var res float64
		if i == 0 {
			res = math.Pow(count*c.nodes[i].weight, 1/count)
		} else {
			index := float64(i)
			res = (count - index) * (c.nodes[i].weight - c.nodes[i-1].weight) / product
			res += math.Pow(c.nodes[i-1].relativeWeight, count-index)
			res = math.Pow(res, 1/(count-index))
		}
		product *= res
		c.nodes[i].relativeWeight = res
	}
	max := c.nodes[len(c.nodes)-1].relativeWeight
	if max > 0 {
		for i := range c.nodes {
			c.nodes[i].relativeWeight /= max
		}
	}
}
