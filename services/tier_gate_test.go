package services

import (
	"context"
	"errors"
	"testing"

	"tradeCraftAPI/internal/types/challenge"
)

type stubTierSource struct {
	tiers map[string]bool
	err   error
}

func (s *stubTierSource) GetUnlockedTiers(ctx context.Context, userID string) (map[string]bool, error) {
	return s.tiers, s.err
}

func TestTierGateOpenTypes(t *testing.T) {
	// Even with enforcement on and no tiers unlocked, non-gated types pass.
	gate := NewTierGate(&stubTierSource{tiers: map[string]bool{}}, true)

	for _, typ := range []challenge.ChallengeType{
		challenge.TypeDaily, challenge.TypeWeekly, challenge.TypeSolo, challenge.TypeSkill,
	} {
		if d := gate.Check(context.Background(), "u1", typ); !d.Allowed {
			t.Errorf("%s should never be gated, denied with %q", typ, d.Reason)
		}
	}
}

func TestTierGateDeniesLockedTier(t *testing.T) {
	gate := NewTierGate(&stubTierSource{tiers: map[string]bool{"TRADE": false}}, true)

	d := gate.Check(context.Background(), "u1", challenge.TypeTrade)
	if d.Allowed {
		t.Fatal("TRADE join should be denied without the TRADE tier")
	}
	if d.Reason == "" {
		t.Error("denial should carry a reason")
	}
}

func TestTierGateAllowsUnlockedTier(t *testing.T) {
	gate := NewTierGate(&stubTierSource{tiers: map[string]bool{"COLLABORATION": true}}, true)

	if d := gate.Check(context.Background(), "u1", challenge.TypeCollaboration); !d.Allowed {
		t.Errorf("COLLABORATION join should pass with the tier unlocked, denied with %q", d.Reason)
	}
}

func TestTierGateEnforcementOff(t *testing.T) {
	gate := NewTierGate(&stubTierSource{tiers: map[string]bool{}}, false)

	if d := gate.Check(context.Background(), "u1", challenge.TypeTrade); !d.Allowed {
		t.Errorf("enforcement off should allow everything, denied with %q", d.Reason)
	}
}

func TestTierGateLookupFailure(t *testing.T) {
	src := &stubTierSource{err: errors.New("connection refused")}

	// Enforcement on: fail closed.
	if d := NewTierGate(src, true).Check(context.Background(), "u1", challenge.TypeTrade); d.Allowed {
		t.Error("lookup failure with enforcement on should deny")
	}

	// Enforcement off: fail open.
	if d := NewTierGate(src, false).Check(context.Background(), "u1", challenge.TypeTrade); !d.Allowed {
		t.Error("lookup failure with enforcement off should allow")
	}
}
