package domain

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsDue(t *testing.T) {
	asOf := date(2026, 3, 15)
	cases := []struct {
		name     string
		template RecurringInvoice
		want     bool
	}{
		{"due today", RecurringInvoice{IsActive: true, NextDueDate: asOf}, true},
		{"past due", RecurringInvoice{IsActive: true, NextDueDate: date(2026, 1, 1)}, true},
		{"future", RecurringInvoice{IsActive: true, NextDueDate: date(2026, 4, 1)}, false},
		{"inactive past due", RecurringInvoice{IsActive: false, NextDueDate: date(2025, 1, 1)}, false},
	}
	for _, tc := range cases {
		if got := IsDue(tc.template, asOf); got != tc.want {
			t.Fatalf("%s: IsDue = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAdvanceWeekly(t *testing.T) {
	got, err := Advance(FrequencyWeekly, date(2026, 2, 25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2026, 3, 4); !got.Equal(want) {
		t.Fatalf("weekly advance = %v, want %v", got, want)
	}
}

func TestAdvanceMonthlyClampsToShortMonth(t *testing.T) {
	got, err := Advance(FrequencyMonthly, date(2026, 1, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2026, 2, 28); !got.Equal(want) {
		t.Fatalf("Jan 31 + 1 month = %v, want %v", got, want)
	}
}

func TestAdvanceMonthlyClampsToLeapDay(t *testing.T) {
	got, err := Advance(FrequencyMonthly, date(2028, 1, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2028, 2, 29); !got.Equal(want) {
		t.Fatalf("Jan 31 + 1 month (leap year) = %v, want %v", got, want)
	}
}

func TestAdvanceMonthlyMidMonthKeepsDay(t *testing.T) {
	got, err := Advance(FrequencyMonthly, date(2026, 4, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2026, 5, 15); !got.Equal(want) {
		t.Fatalf("Apr 15 + 1 month = %v, want %v", got, want)
	}
}

func TestAdvanceQuarterly(t *testing.T) {
	got, err := Advance(FrequencyQuarterly, date(2026, 11, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2027, 2, 28); !got.Equal(want) {
		t.Fatalf("Nov 30 + 3 months = %v, want %v", got, want)
	}
}

func TestAdvanceAnnuallyLeapDay(t *testing.T) {
	got, err := Advance(FrequencyAnnually, date(2028, 2, 29))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2029, 2, 28); !got.Equal(want) {
		t.Fatalf("Feb 29 + 12 months = %v, want %v", got, want)
	}
}

func TestAdvanceUnknownFrequency(t *testing.T) {
	_, err := Advance(Frequency("biweekly"), date(2026, 1, 1))
	if !errors.Is(err, ErrUnknownFrequency) {
		t.Fatalf("expected ErrUnknownFrequency, got %v", err)
	}
}
