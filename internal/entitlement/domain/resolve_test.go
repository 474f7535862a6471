package domain

import (
	"testing"

	subscriptiondomain "github.com/smallbiznis/billfold/internal/subscription/domain"
)

func statusPtr(s subscriptiondomain.Status) *subscriptiondomain.Status { return &s }

func TestResolveProfileTierAlone(t *testing.T) {
	cases := []struct {
		tier  PlanTier
		isPro bool
	}{
		{TierFree, false},
		{TierPro, true},
		{TierEnterprise, true},
	}
	for _, tc := range cases {
		got := Resolve(tc.tier, nil)
		if got.IsPro != tc.isPro {
			t.Fatalf("Resolve(%s, nil).IsPro = %v, want %v", tc.tier, got.IsPro, tc.isPro)
		}
		if got.Tier != tc.tier {
			t.Fatalf("Resolve(%s, nil).Tier = %s, want %s", tc.tier, got.Tier, tc.tier)
		}
	}
}

func TestResolveSubscriptionGrantsPro(t *testing.T) {
	for _, status := range []subscriptiondomain.Status{
		subscriptiondomain.StatusActive,
		subscriptiondomain.StatusTrialing,
	} {
		got := Resolve(TierFree, statusPtr(status))
		if !got.IsPro {
			t.Fatalf("free profile with %s subscription should be pro", status)
		}
		if got.Tier != TierFree {
			t.Fatalf("subscription must not relabel the profile tier, got %s", got.Tier)
		}
	}
}

func TestResolveDeadSubscriptionNeverGrantsPro(t *testing.T) {
	for _, status := range []subscriptiondomain.Status{
		subscriptiondomain.StatusNotStarted,
		subscriptiondomain.StatusIncomplete,
		subscriptiondomain.StatusIncompleteExpired,
		subscriptiondomain.StatusPastDue,
		subscriptiondomain.StatusCanceled,
		subscriptiondomain.StatusUnpaid,
		subscriptiondomain.StatusPaused,
	} {
		got := Resolve(TierFree, statusPtr(status))
		if got.IsPro {
			t.Fatalf("free profile with %s subscription must not be pro", status)
		}
	}
}

func TestResolveProProfileSurvivesDeadSubscription(t *testing.T) {
	got := Resolve(TierPro, statusPtr(subscriptiondomain.StatusCanceled))
	if !got.IsPro {
		t.Fatalf("pro profile keeps access regardless of subscription state")
	}
}

func TestResolveUnknownTierFallsBackToFree(t *testing.T) {
	got := Resolve(PlanTier("gold"), nil)
	if got.Tier != TierFree || got.IsPro {
		t.Fatalf("unknown tier should resolve as free, got %+v", got)
	}
}
