package utils

import (
	"strings"
)

// skillByCategory maps catalog categories onto the skill tree names the
// skill-XP subsystem knows about.
var skillByCategory = map[string]string{
	"woodworking":   "Woodworking",
	"metalworking":  "Metalworking",
	"electronics":   "Electronics",
	"textiles":      "Textiles",
	"leathercraft":  "Leathercraft",
	"ceramics":      "Ceramics",
	"finishing":     "Finishing",
	"design":        "Design",
	"collaboration": "Collaboration",
	"trading":       "Trading",
}

// SkillNameForCategory derives the skill to credit for a completed challenge.
// Unknown categories get title-cased as their own skill so XP is never lost.
func SkillNameForCategory(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if skill, ok := skillByCategory[key]; ok {
		return skill
	}
	if key == "" {
		return "General"
	}
	return strings.ToUpper(key[:1]) + key[1:]
}
