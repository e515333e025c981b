package reconcile

import "testing"

// TestBinarySearchResumeBlockScenarioS5 is the spec's literal scenario:
// inbound nonce 0 at block 0, 5 at block 10, 7 at block 20 (and already 7
// from block 11 on, so block 10 is the last block at 5); L1 nonce 5 should
// resolve to block 10.
func TestBinarySearchResumeBlockScenarioS5(t *testing.T) {
	nonceAt := func(block uint64) (uint64, error) {
		switch {
		case block < 10:
			return 0, nil
		case block == 10:
			return 5, nil
		default:
			return 7, nil
		}
	}

	got, err := binarySearchResumeBlock(20, 5, nonceAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10 {
		t.Fatalf("binarySearchResumeBlock() = %d, want 10", got)
	}
}

func TestBinarySearchResumeBlockAllBelowReturnsHead(t *testing.T) {
	nonceAt := func(block uint64) (uint64, error) { return 3, nil }
	got, err := binarySearchResumeBlock(50, 10, nonceAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 50 {
		t.Fatalf("binarySearchResumeBlock() = %d, want 50", got)
	}
}

func TestBinarySearchResumeBlockFindsExactBoundary(t *testing.T) {
	nonceAt := func(block uint64) (uint64, error) {
		if block >= 42 {
			return 100, nil
		}
		return 1, nil
	}
	got, err := binarySearchResumeBlock(1000, 1, nonceAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 41 {
		t.Fatalf("binarySearchResumeBlock() = %d, want 41", got)
	}
}
