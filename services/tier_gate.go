package services

import (
	"context"
	"fmt"
	"log"

	"tradeCraftAPI/internal/types/challenge"
)

// TierSource provides a read-only snapshot of the tiers a user has unlocked.
type TierSource interface {
	GetUnlockedTiers(ctx context.Context, userID string) (map[string]bool, error)
}

// TierGate decides whether a user may enter a challenge of a given type.
// SOLO, DAILY, WEEKLY and SKILL challenges are always open; TRADE and
// COLLABORATION require the matching tier.
//
// When enforcement is off the tier lookup is still attempted so a broken
// progression service shows up in the logs, but nothing can block the join.
// When enforcement is on, a failed lookup DENIES the join: we fail closed
// rather than inherit the fail-open behavior this gate historically had.
type TierGate struct {
	tiers   TierSource
	enforce bool
}

func NewTierGate(tiers TierSource, enforce bool) *TierGate {
	return &TierGate{tiers: tiers, enforce: enforce}
}

type GateDecision struct {
	Allowed bool
	Reason  string
}

func requiredTier(challengeType challenge.ChallengeType) string {
	switch challengeType {
	case challenge.TypeTrade:
		return "TRADE"
	case challenge.TypeCollaboration:
		return "COLLABORATION"
	}
	return ""
}

func (g *TierGate) Check(ctx context.Context, userID string, challengeType challenge.ChallengeType) GateDecision {
	tier := requiredTier(challengeType)
	if tier == "" {
		return GateDecision{Allowed: true}
	}

	unlocked, err := g.tiers.GetUnlockedTiers(ctx, userID)
	if err != nil {
		log.Printf("tier gate: tier lookup failed for user %s: %v", userID, err)
		if !g.enforce {
			return GateDecision{Allowed: true}
		}
		return GateDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("tier verification unavailable for %s challenges", tier),
		}
	}

	if !g.enforce || unlocked[tier] {
		return GateDecision{Allowed: true}
	}
	return GateDecision{
		Allowed: false,
		Reason:  fmt.Sprintf("requires the %s tier to be unlocked first", tier),
	}
}
