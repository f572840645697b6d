package parallel

import "testing"

func TestStripeRoundRobin(t *testing.T) {
	offsets := []int64{10, 20, 30, 40, 50}
	shards := stripe(offsets, 2)
	if len(shards) != 2 {
		t.Fatalf("got %d shards, want 2", len(shards))
	}
	want0 := []int64{10, 30, 50}
	want1 := []int64{20, 40}
	if !equalInt64(shards[0], want0) {
		t.Fatalf("shard 0: got %v, want %v", shards[0], want0)
	}
	if !equalInt64(shards[1], want1) {
		t.Fatalf("shard 1: got %v, want %v", shards[1], want1)
	}
}

func TestStripeEmpty(t *testing.T) {
	shards := stripe(nil, 3)
	if len(shards) != 3 {
		t.Fatalf("got %d shards, want 3", len(shards))
	}
	for i, s := range shards {
		if len(s) != 0 {
			t.Fatalf("shard %d: got %v, want empty", i, s)
		}
	}
}

func equalInt64(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
