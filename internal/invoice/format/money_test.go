package format

import "testing"

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents    int64
		currency string
		want     string
	}{
		{10825, "USD", "$108.25"},
		{5, "USD", "$0.05"},
		{0, "USD", "$0.00"},
		{-1250, "USD", "-$12.50"},
		{9900, "EUR", "€99.00"},
		{1234, "AUD", "AUD 12.34"},
		{1234, "", "12.34"},
		{1234, "usd", "$12.34"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.cents, tc.currency); got != tc.want {
			t.Fatalf("FormatCents(%d, %q) = %q, want %q", tc.cents, tc.currency, got, tc.want)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	cases := []struct {
		quantity float64
		want     string
	}{
		{1, "1"},
		{2.5, "2.5"},
		{0.25, "0.25"},
		{10.10, "10.1"},
		{0, "0"},
	}
	for _, tc := range cases {
		if got := FormatQuantity(tc.quantity); got != tc.want {
			t.Fatalf("FormatQuantity(%v) = %q, want %q", tc.quantity, got, tc.want)
		}
	}
}
