package domain

import (
	"math/rand"
	"testing"
)

func TestLineAmountRoundsHalfUp(t *testing.T) {
	cases := []struct {
		quantity float64
		price    int64
		want     int64
	}{
		{1, 10000, 10000},
		{0.5, 333, 167},  // 166.5 rounds up
		{1.5, 333, 500},  // 499.5 rounds up
		{3, 3333, 9999},
		{0.1, 1, 0},      // 0.1 rounds down
		{0, 9999, 0},
	}
	for _, tc := range cases {
		if got := LineAmount(tc.quantity, tc.price); got != tc.want {
			t.Fatalf("LineAmount(%v, %d) = %d, want %d", tc.quantity, tc.price, got, tc.want)
		}
	}
}

func TestTotalsNoDriftOverIterations(t *testing.T) {
	// 100.00 + 8.25% tax must stay exactly 108.25 no matter how many times
	// the calculation is repeated.
	for i := 0; i < 1000; i++ {
		line := LineAmount(1, 10000)
		tax := TaxAmount(line, 8.25)
		totals := Totals([]int64{line}, tax)
		if totals.SubtotalCents != 10000 {
			t.Fatalf("iteration %d: subtotal = %d, want 10000", i, totals.SubtotalCents)
		}
		if totals.TaxCents != 825 {
			t.Fatalf("iteration %d: tax = %d, want 825", i, totals.TaxCents)
		}
		if totals.TotalCents != 10825 {
			t.Fatalf("iteration %d: total = %d, want 10825", i, totals.TotalCents)
		}
	}
}

func TestTotalsOrderIndependent(t *testing.T) {
	amounts := []int64{12345, 678, 99999, 1, 5000, 333}
	want := Totals(amounts, 1234)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]int64(nil), amounts...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := Totals(shuffled, 1234); got != want {
			t.Fatalf("totals changed with order: %+v vs %+v", got, want)
		}
	}
}

func TestTaxAmountZeroRate(t *testing.T) {
	if got := TaxAmount(10000, 0); got != 0 {
		t.Fatalf("TaxAmount(10000, 0) = %d, want 0", got)
	}
}

func TestTotalsEmptyLines(t *testing.T) {
	got := Totals(nil, 0)
	if got.SubtotalCents != 0 || got.TaxCents != 0 || got.TotalCents != 0 {
		t.Fatalf("empty invoice should total zero, got %+v", got)
	}
}
