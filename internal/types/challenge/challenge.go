package challenge

import (
	"time"
)

type ChallengeType string
type Difficulty string
type ChallengeStatus string
type UserChallengeStatus string

const (
	TypeDaily         ChallengeType = "DAILY"
	TypeWeekly        ChallengeType = "WEEKLY"
	TypeSolo          ChallengeType = "SOLO"
	TypeTrade         ChallengeType = "TRADE"
	TypeCollaboration ChallengeType = "COLLABORATION"
	TypeSkill         ChallengeType = "SKILL"

	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
	DifficultyExpert       Difficulty = "EXPERT"

	StatusDraft     ChallengeStatus = "DRAFT"
	StatusActive    ChallengeStatus = "ACTIVE"
	StatusCompleted ChallengeStatus = "COMPLETED"
	StatusArchived  ChallengeStatus = "ARCHIVED"

	UserChallengeActive    UserChallengeStatus = "ACTIVE"
	UserChallengeSubmitted UserChallengeStatus = "SUBMITTED"
	UserChallengeCompleted UserChallengeStatus = "COMPLETED"
	UserChallengeAbandoned UserChallengeStatus = "ABANDONED"
)

// Reward is the challenge's own declared reward. XP here is additive on top of
// the difficulty table, not a replacement for it.
type Reward struct {
	XP     int      `json:"xp"`
	Badges []string `json:"badges,omitempty"`
}

type Challenge struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Type             ChallengeType   `json:"type"`
	Category         string          `json:"category"`
	Difficulty       Difficulty      `json:"difficulty"`
	Status           ChallengeStatus `json:"status"`
	Requirements     []string        `json:"requirements"`
	Reward           Reward          `json:"reward"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	ParticipantCount int             `json:"participantCount"`
	CompletionCount  int             `json:"completionCount"`
	// MaxParticipants of 0 means unlimited.
	MaxParticipants int       `json:"maxParticipants,omitempty"`
	TimeEstimate    string    `json:"timeEstimate,omitempty"` // free text, e.g. "1 hour"
	CreatedAt       time.Time `json:"createdAt"`
}

// UserChallenge is the join record for one (user, challenge) pair. The
// lifecycle manager is its only writer.
type UserChallenge struct {
	UserID                string              `json:"userId"`
	ChallengeID           string              `json:"challengeId"`
	Status                UserChallengeStatus `json:"status"`
	Progress              int                 `json:"progress"`
	MaxProgress           int                 `json:"maxProgress"`
	StartedAt             time.Time           `json:"startedAt"`
	LastActivityAt        time.Time           `json:"lastActivityAt"`
	CompletedAt           *time.Time          `json:"completedAt,omitempty"`
	AbandonedAt           *time.Time          `json:"abandonedAt,omitempty"`
	CompletionTimeMinutes *int                `json:"completionTimeMinutes,omitempty"`
}

// Terminal reports whether no further transitions are permitted.
func (uc *UserChallenge) Terminal() bool {
	return uc.Status == UserChallengeCompleted || uc.Status == UserChallengeAbandoned
}

func (uc *UserChallenge) ProgressPercent() float64 {
	if uc.MaxProgress <= 0 {
		return 0
	}
	return float64(uc.Progress) / float64(uc.MaxProgress) * 100
}

// ChallengeSubmission is append-only evidence attached to a user challenge.
// Created on submit, never mutated afterwards.
type ChallengeSubmission struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	ChallengeID string         `json:"challengeId"`
	Data        map[string]any `json:"data,omitempty"`
	Note        string         `json:"note,omitempty"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// Document keys. The user challenge key is deterministic so "already joined"
// is a point lookup inside the join transaction, not a query.
func ChallengeKey(challengeID string) string {
	return "challenges/" + challengeID
}

func UserChallengeKey(userID, challengeID string) string {
	return "userChallenges/" + userID + "_" + challengeID
}

func SubmissionKey(submissionID string) string {
	return "submissions/" + submissionID
}
