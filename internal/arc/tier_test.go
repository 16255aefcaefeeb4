package arc

import (
	"testing"
)

func TestProportional_Boundaries(t *testing.T) {
	sel := Proportional{N: 10}
	tests := []struct {
		progress float64
		want     int
	}{
		{0, 1},
		{0.01, 1},
		{10, 1},
		{10.01, 2},
		{39.99, 4},
		{40, 4}, // last warning-palette value stays in tier 4
		{40.01, 5},
		{75, 8},
		{99.99, 10},
		{100, 10},
		{250, 10},
		{-5, 1},
	}
	for _, tt := range tests {
		got := sel.Select(tt.progress)
		if got.Index != tt.want {
			t.Errorf("Select(%v) = %d, want %d", tt.progress, got.Index, tt.want)
		}
		if got.Count != 10 {
			t.Errorf("Select(%v).Count = %d, want 10", tt.progress, got.Count)
		}
	}
}

func TestProportional_ArbitraryN(t *testing.T) {
	for n := 1; n <= 12; n++ {
		sel := Proportional{N: n}
		for p := 0.0; p <= 100; p += 0.25 {
			got := sel.Select(p)
			if got.Index < 1 || got.Index > n {
				t.Fatalf("N=%d: Select(%v) = %d, outside [1,%d]", n, p, got.Index, n)
			}
		}
		if got := sel.Select(100).Index; got != n {
			t.Errorf("N=%d: Select(100) = %d, want %d", n, got, n)
		}
	}
}

func TestProportional_ZeroNFallsBack(t *testing.T) {
	got := Proportional{}.Select(55)
	if got.Count != DefaultTierCount {
		t.Fatalf("Count = %d, want %d", got.Count, DefaultTierCount)
	}
}

func TestBreakpoints_Legacy(t *testing.T) {
	tests := []struct {
		progress float64
		want     int
	}{
		{0, 1},
		{19.99, 1},
		{20, 2},
		{39.99, 2},
		{40, 3},
		{60, 4},
		{79.99, 4},
		{80, 5},
		{100, 5},
	}
	for _, tt := range tests {
		got := LegacyBreakpoints.Select(tt.progress)
		if got.Index != tt.want || got.Count != 5 {
			t.Errorf("Select(%v) = %d/%d, want %d/5", tt.progress, got.Index, got.Count, tt.want)
		}
	}
}

func TestTierNames(t *testing.T) {
	if got := (Proportional{N: 10}).Select(0).Name; got != "Dead Tree" {
		t.Errorf("lowest name = %q", got)
	}
	if got := (Proportional{N: 10}).Select(100).Name; got != "Legendary Tree" {
		t.Errorf("highest name = %q", got)
	}
	if got := (Proportional{N: 4}).Select(60).Name; got != "Stage 3 of 4" {
		t.Errorf("generic name = %q", got)
	}
}

func TestParseTierStrategy(t *testing.T) {
	sel, err := ParseTierStrategy("", 6)
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := sel.(Proportional); !ok || p.N != 6 {
		t.Fatalf("got %#v, want Proportional{6}", sel)
	}

	sel, err = ParseTierStrategy(StrategyBreakpoints, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sel.Select(100).Count != 5 {
		t.Fatalf("breakpoints count = %d, want 5", sel.Select(100).Count)
	}

	if _, err := ParseTierStrategy(StrategyProportional, 0); err == nil {
		t.Error("expected error for zero tier count")
	}
	if _, err := ParseTierStrategy("fibonacci", 5); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
