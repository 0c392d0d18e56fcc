package services

import (
	"regexp"
	"strconv"
	"strings"

	"tradeCraftAPI/internal/types/challenge"
)

// XP constants. All rewards are non-negative integers; nothing here rounds.
const (
	JoinXP                 = 10
	ProgressThresholdXP    = 5
	EarlyCompletionBonusXP = 25
)

// completionXP is the organic completion table. manualCompletionXP is the
// separate, simpler table used by the administrative path; the two are
// deliberately not unified because they serve different call sites with
// different contracts.
var completionXP = map[challenge.Difficulty]int{
	challenge.DifficultyBeginner:     25,
	challenge.DifficultyIntermediate: 50,
	challenge.DifficultyAdvanced:     100,
	challenge.DifficultyExpert:       200,
}

var manualCompletionXP = map[challenge.Difficulty]int{
	challenge.DifficultyBeginner:     15,
	challenge.DifficultyIntermediate: 30,
	challenge.DifficultyAdvanced:     60,
	challenge.DifficultyExpert:       120,
}

// JoinReward is the fixed XP granted once per successful join.
func JoinReward() int {
	return JoinXP
}

// ProgressReward awards the 25/50/75% threshold bonuses for one progress
// update. The 25% bonus fires when the cumulative progress counter equals
// exactly 1, a proxy for "the very first progress tick"; the 50% and 75%
// bonuses fire when this update crosses the threshold. An update jumping
// several thresholds at once collects each bonus it crossed.
func ProgressReward(oldPct, newPct float64, progressCount int) int {
	xp := 0
	if progressCount == 1 {
		xp += ProgressThresholdXP
	}
	if oldPct < 50 && newPct >= 50 {
		xp += ProgressThresholdXP
	}
	if oldPct < 75 && newPct >= 75 {
		xp += ProgressThresholdXP
	}
	return xp
}

// CompletionBreakdown is the organic completion reward, kept split so the
// completed notification can carry the full breakdown.
type CompletionBreakdown struct {
	DifficultyXP int `json:"difficultyXp"`
	EarlyBonus   int `json:"earlyBonus"`
	BaseXP       int `json:"baseXp"`
}

func (b CompletionBreakdown) Total() int {
	return b.DifficultyXP + b.EarlyBonus + b.BaseXP
}

// CompletionReward computes the reward for an organically completed
// challenge. The early bonus applies when the completion time beat 75% of the
// parsed estimate; an unparseable estimate skips the bonus rather than
// treating the estimate as zero.
func CompletionReward(difficulty challenge.Difficulty, baseXP, completionMinutes int, timeEstimate string) CompletionBreakdown {
	b := CompletionBreakdown{
		DifficultyXP: difficultyXP(completionXP, difficulty),
		BaseXP:       baseXP,
	}
	if estimate, ok := EstimatedMinutes(timeEstimate); ok {
		if float64(completionMinutes) < 0.75*float64(estimate) {
			b.EarlyBonus = EarlyCompletionBonusXP
		}
	}
	return b
}

// ManualCompletionReward is the administrative completion reward. No early
// bonus and no base reward, only the simpler difficulty table.
func ManualCompletionReward(difficulty challenge.Difficulty) int {
	return difficultyXP(manualCompletionXP, difficulty)
}

func difficultyXP(table map[challenge.Difficulty]int, difficulty challenge.Difficulty) int {
	if xp, ok := table[difficulty]; ok {
		return xp
	}
	// Unknown difficulty falls back to the beginner row.
	return table[challenge.DifficultyBeginner]
}

var durationPattern = regexp.MustCompile(`^\s*(\d+)\s*(minute|min|hour|hr|day)s?\s*$`)

// EstimatedMinutes parses a free-text duration like "30 minutes", "1 hour" or
// "2 days". The second return is false for anything it cannot parse.
func EstimatedMinutes(estimate string) (int, bool) {
	m := durationPattern.FindStringSubmatch(strings.ToLower(estimate))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "minute", "min":
		return n, true
	case "hour", "hr":
		return n * 60, true
	case "day":
		return n * 24 * 60, true
	}
	return 0, false
}
