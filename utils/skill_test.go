package utils

import "testing"

func TestSkillNameForCategory(t *testing.T) {
	cases := []struct {
		category string
		want     string
	}{
		{"woodworking", "Woodworking"},
		{"Metalworking", "Metalworking"},
		{"  ceramics ", "Ceramics"},
		{"glassblowing", "Glassblowing"},
		{"", "General"},
	}
	for _, c := range cases {
		if got := SkillNameForCategory(c.category); got != c.want {
			t.Errorf("SkillNameForCategory(%q) = %q, want %q", c.category, got, c.want)
		}
	}
}
