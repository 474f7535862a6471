package domain

import (
	"context"
	"errors"

	subscriptiondomain "github.com/smallbiznis/billfold/internal/subscription/domain"
)

// PlanTier is the plan stored on the user profile.
type PlanTier string

const (
	TierFree       PlanTier = "free"
	TierPro        PlanTier = "pro"
	TierEnterprise PlanTier = "enterprise"
)

func (t PlanTier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierEnterprise:
		return true
	default:
		return false
	}
}

// Access is the resolved entitlement decision for a user.
type Access struct {
	Tier  PlanTier `json:"tier"`
	IsPro bool     `json:"is_pro"`
}

type Service interface {
	// AccessForUser resolves the acting user's entitlement from their profile
	// tier and most recent subscription row.
	AccessForUser(ctx context.Context) (Access, error)
	// RequirePro returns ErrProRequired when the acting user is not entitled
	// to premium features.
	RequirePro(ctx context.Context, feature string) error
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrProRequired  = errors.New("pro_required")
)

// Resolve computes the entitlement decision. The displayed tier is always the
// profile tier; a live subscription grants the pro capability without
// relabeling the profile.
func Resolve(profileTier PlanTier, subStatus *subscriptiondomain.Status) Access {
	tier := profileTier
	if !tier.Valid() {
		tier = TierFree
	}

	isPro := tier == TierPro || tier == TierEnterprise
	if !isPro && subStatus != nil {
		switch *subStatus {
		case subscriptiondomain.StatusActive, subscriptiondomain.StatusTrialing:
			isPro = true
		}
	}

	return Access{Tier: tier, IsPro: isPro}
}
