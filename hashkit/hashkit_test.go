package hashkit

import (
	"errors"
	"fmt"
	"testing"
)

func testServers(n int) []Server {
	servers := make([]Server, n)
	for i := 0; i < n; i++ {
		servers[i] = Server{ID: fmt.Sprintf("server-%d", i)}
	}
	return servers
}

// routeCounts routes n sequential keys and tallies per-server hits.
func routeCounts(r Router, n int) map[string]int {
	counts := make(map[string]int)
	for key := 0; key < n; key++ {
		counts[r.Route(uint64(key))]++
	}
	return counts
}

func TestNewEmptyServerSet(t *testing.T) {
	for _, algorithm := range Algorithms() {
		if _, err := New(algorithm, nil, Options{}); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration for empty server set, got %v", algorithm, err)
		}
	}
}

func TestNewUnknownAlgorithm(t *testing.T) {
	if _, err := New("md5_modulo", testServers(3), Options{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestNewDuplicateServer(t *testing.T) {
	servers := []Server{{ID: "a"}, {ID: "b"}, {ID: "a"}}
	for _, algorithm := range Algorithms() {
		if _, err := New(algorithm, servers, Options{}); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration for duplicate id, got %v", algorithm, err)
		}
	}
}

func TestNewNegativeWeight(t *testing.T) {
	servers := []Server{{ID: "a"}, {ID: "b", Weight: -1}}
	for _, algorithm := range Algorithms() {
		if _, err := New(algorithm, servers, Options{}); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration for negative weight, got %v", algorithm, err)
		}
	}
}

func TestRouteDeterministic(t *testing.T) {
	servers := testServers(7)
	for _, algorithm := range Algorithms() {
		first, err := New(algorithm, servers, Options{MaglevTableSize: 503})
		if err != nil {
			t.Fatalf("%s: %v", algorithm, err)
		}
		second, err := New(algorithm, servers, Options{MaglevTableSize: 503})
		if err != nil {
			t.Fatalf("%s: %v", algorithm, err)
		}
		for key := uint64(0); key < 1000; key++ {
			got := first.Route(key)
			if again := first.Route(key); again != got {
				t.Fatalf("%s: key %d routed to %s then %s", algorithm, key, got, again)
			}
			if other := second.Route(key); other != got {
				t.Fatalf("%s: key %d routed to %s on a rebuilt instance, expected %s",
					algorithm, key, other, got)
			}
		}
	}
}

func TestRemoveUnknownServer(t *testing.T) {
	for _, algorithm := range Algorithms() {
		r, err := New(algorithm, testServers(3), Options{MaglevTableSize: 503})
		if err != nil {
			t.Fatalf("%s: %v", algorithm, err)
		}
		if err := r.RemoveServer("no-such-server"); !errors.Is(err, ErrServerNotFound) {
			t.Errorf("%s: expected ErrServerNotFound, got %v", algorithm, err)
		}
	}
}

func TestRemoveLastServer(t *testing.T) {
	for _, algorithm := range Algorithms() {
		r, err := New(algorithm, testServers(1), Options{MaglevTableSize: 503})
		if err != nil {
			t.Fatalf("%s: %v", algorithm, err)
		}
		if err := r.RemoveServer("server-0"); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration removing the only server, got %v", algorithm, err)
		}
	}
}

func TestAddDuplicateServer(t *testing.T) {
	for _, algorithm := range Algorithms() {
		r, err := New(algorithm, testServers(3), Options{MaglevTableSize: 503})
		if err != nil {
			t.Fatalf("%s: %v", algorithm, err)
		}
		if err := r.AddServer(Server{ID: "server-1"}); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration for duplicate add, got %v", algorithm, err)
		}
	}
}

func TestWeightDefaultsToOne(t *testing.T) {
	servers, err := normalizeServers([]Server{{ID: "a"}, {ID: "b", Weight: 2.5}})
	if err != nil {
		t.Fatal(err)
	}
	if servers[0].Weight != 1 {
		t.Errorf("expected default weight 1, got %f", servers[0].Weight)
	}
	if servers[1].Weight != 2.5 {
		t.Errorf("expected weight 2.5, got %f", servers[1].Weight)
	}
}
