package hashkit

import (
	"math"
	"testing"
)

func TestWeightedRendezvousShareFollowsWeight(t *testing.T) {
	const numKeys = 100000
	servers := []Server{
		{ID: "heavy", Weight: 3},
		{ID: "light", Weight: 1},
	}
	w, err := NewWeightedRendezvous(servers, nil)
	if err != nil {
		t.Fatal(err)
	}
	counts := routeCounts(w, numKeys)
	share := float64(counts["heavy"]) / numKeys
	if math.Abs(share-0.75) > 0.02 {
		t.Errorf("expected the weight-3 server to take ~0.75 of keys, got %f", share)
	}
}

func TestWeightedRendezvousUniformWeights(t *testing.T) {
	w, err := NewWeightedRendezvous(testServers(10), nil)
	if err != nil {
		t.Fatal(err)
	}
	counts := routeCounts(w, 100000)
	if cov := loadCoV(counts, 10); cov > 0.05 {
		t.Errorf("uniform weights should spread load evenly, got cov %f", cov)
	}
}

func TestWeightedRendezvousRemovalRemapsOnlyRemovedServer(t *testing.T) {
	const numKeys = 50000
	servers := []Server{
		{ID: "a", Weight: 1},
		{ID: "b", Weight: 2},
		{ID: "c", Weight: 3},
	}
	w, err := NewWeightedRendezvous(servers, nil)
	if err != nil {
		t.Fatal(err)
	}
	before := make([]string, numKeys)
	for key := 0; key < numKeys; key++ {
		before[key] = w.Route(uint64(key))
	}
	if err := w.RemoveServer("b"); err != nil {
		t.Fatal(err)
	}
	for key := 0; key < numKeys; key++ {
		after := w.Route(uint64(key))
		if before[key] != "b" && after != before[key] {
			t.Fatalf("key %d moved from surviving server %s to %s", key, before[key], after)
		}
	}
}
