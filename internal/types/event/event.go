package event

import (
	"time"
)

type Type string

const (
	ChallengeStarted   Type = "CHALLENGE_STARTED"
	ChallengeProgress  Type = "CHALLENGE_PROGRESS"
	ChallengeSubmitted Type = "CHALLENGE_SUBMITTED"
	ChallengeCompleted Type = "CHALLENGE_COMPLETED"
	ChallengeAbandoned Type = "CHALLENGE_ABANDONED"
)

// ChallengeEvent is a transient value delivered through the dispatcher. It
// lives for the duration of one Publish call and is never persisted.
type ChallengeEvent struct {
	UserID         string         `json:"userId"`
	Type           Type           `json:"type"`
	ChallengeID    string         `json:"challengeId"`
	ChallengeTitle string         `json:"challengeTitle"`
	Progress       *int           `json:"progress,omitempty"`
	MaxProgress    *int           `json:"maxProgress,omitempty"`
	XPAwarded      *int           `json:"xpAwarded,omitempty"`
	Badges         []string       `json:"badges,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}
