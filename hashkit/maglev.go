package hashkit

import (
	"fmt"
)

// DefaultMaglevTableSize is the default lookup table size. It is prime, as
// the permutation fill requires, and large enough to keep the per-server
// slot share within a fraction of a percent for hundreds of servers.
const DefaultMaglevTableSize = 65537

const (
	maglevOffsetSalt = 0xB492B66FBE98F273
	maglevSkipSalt   = 0x9AE16A3B2F90404F
)

// Maglev builds a fixed-size lookup table by walking a per-server slot
// permutation derived from two salted hashes and round-robin filling empty
// slots. Routing is a single table index; any membership change rebuilds
// the table with the same size.
type Maglev struct {
	hashFn  HashFunc
	m       uint64
	servers []Server
	lookup  []int32
}

func NewMaglev(servers []Server, tableSize int, hashFn HashFunc) (*Maglev, error) {
	servers, err := normalizeServers(servers)
	if err != nil {
		return nil, err
	}
	if tableSize <= 0 {
		tableSize = DefaultMaglevTableSize
	}
	m := nextPrime(uint64(tableSize))
	if uint64(len(servers)) >= m {
		return nil, fmt.Errorf("%w: table size %d not greater than server count %d",
			ErrInvalidConfiguration, m, len(servers))
	}
	g := &Maglev{
		hashFn:  orDefaultHash(hashFn),
		m:       m,
		servers: servers,
	}
	g.populate()
	return g, nil
}

func (g *Maglev) Name() string { return AlgorithmMaglev }

// TableSize returns the actual lookup table size, the next prime at or
// above the configured hint.
func (g *Maglev) TableSize() int { return int(g.m) }

func (g *Maglev) Route(key uint64) string {
	index := hashUint64(g.hashFn, key) % g.m
	return g.servers[g.lookup[index]].ID
}

func (g *Maglev) AddServer(server Server) error {
	server, err := normalizeServer(server)
	if err != nil {
		return err
	}
	for _, s := range g.servers {
		if s.ID == server.ID {
			return fmt.Errorf("%w: duplicate server %q", ErrInvalidConfiguration, server.ID)
		}
	}
	if uint64(len(g.servers)+1) >= g.m {
		return fmt.Errorf("%w: table size %d not greater than server count %d",
			ErrInvalidConfiguration, g.m, len(g.servers)+1)
	}
	g.servers = append(g.servers, server)
	g.populate()
	return nil
}

func (g *Maglev) RemoveServer(id string) error {
	index := -1
	for i, s := range g.servers {
		if s.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return fmt.Errorf("%w: %q", ErrServerNotFound, id)
	}
	if len(g.servers) == 1 {
		return fmt.Errorf("%w: cannot remove the last server", ErrInvalidConfiguration)
	}
	g.servers = append(g.servers[:index], g.servers[index+1:]...)
	g.populate()
	return nil
}

func (g *Maglev) populate() {
	m := g.m
	n := len(g.servers)

	offset := make([]uint64, n)
	skip := make([]uint64, n)
	next := make([]uint64, n)
	for i, s := range g.servers {
		base := g.hashFn([]byte(s.ID))
		offset[i] = combineHash(g.hashFn, base, maglevOffsetSalt) % m
		skip[i] = combineHash(g.hashFn, base, maglevSkipSalt)%(m-1) + 1
	}

	lookup := make([]int32, m)
	for i := range lookup {
		lookup[i] = -1
	}
	var filled uint64
	for {
		for j := 0; j < n; j++ {
			c := (offset[j] + next[j]*skip[j]) % m
			for lookup[c] >= 0 {
				next[j]++
				c = (offset[j] + next[j]*skip[j]) % m
			}
			lookup[c] = int32(j)
			next[j]++
			filled++
			if filled == m {
				g.lookup = lookup
				return
			}
		}
	}
}

func nextPrime(n uint64) uint64 {
	if n <= 2 {
		return 2
	}
	if n%2 == 0 {
		n++
	}
	for !isPrime(n) {
		n += 2
	}
	return n
}

func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := uint64(3); d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}
