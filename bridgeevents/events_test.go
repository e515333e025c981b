package bridgeevents

import "testing"

func TestEventLessOrdersByBlockThenLogIndex(t *testing.T) {
	a := Event{BlockNumber: 10, LogIndex: 3}
	b := Event{BlockNumber: 10, LogIndex: 4}
	c := Event{BlockNumber: 11, LogIndex: 0}

	if !a.Less(b) {
		t.Fatalf("expected %v to sort before %v", a, b)
	}
	if !b.Less(c) {
		t.Fatalf("expected %v to sort before %v", b, c)
	}
	if c.Less(a) {
		t.Fatalf("expected %v not to sort before %v", c, a)
	}
}

func TestIsActionable(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindReceived, true},
		{KindSent, true},
		{KindOperatorUpdated, false},
		{KindUpgraded, false},
	}
	for _, tc := range cases {
		ev := Event{Kind: tc.kind}
		if got := ev.IsActionable(); got != tc.want {
			t.Errorf("Kind %v: IsActionable() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}
