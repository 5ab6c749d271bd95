// Package privilege holds the client-side copy of the backend group
// hierarchy and the single comparison used to gate features.
//
// The checks here only decide what the client offers to show or call. The
// backend authorizes every request on its own.
package privilege

import (
	"fmt"
	"strings"
)

// Group is a named rank assigned to every account by the backend.
type Group string

const (
	BasicPlan     Group = "Basic Plan"
	PremiumPlan   Group = "Premium Plan"
	JuniorSupport Group = "Junior Support"
	Support       Group = "Support"
	SeniorSupport Group = "Senior Support"
	Admin         Group = "Admin"
	Owner         Group = "Owner"
)

// UnknownRank is returned by Rank for names missing from the hierarchy.
const UnknownRank = -1

var hierarchy = map[Group]int{
	BasicPlan:     0,
	PremiumPlan:   1,
	JuniorSupport: 2,
	Support:       3,
	SeniorSupport: 4,
	Admin:         5,
	Owner:         6,
}

var ordered = []Group{BasicPlan, PremiumPlan, JuniorSupport, Support, SeniorSupport, Admin, Owner}

// AllGroups returns every known group from lowest to highest rank.
func AllGroups() []Group {
	out := make([]Group, len(ordered))
	copy(out, ordered)
	return out
}

// Rank returns the position of g in the hierarchy, or UnknownRank.
func Rank(g Group) int {
	if r, ok := hierarchy[g]; ok {
		return r
	}
	return UnknownRank
}

// Known reports whether g is part of the hierarchy.
func Known(g Group) bool {
	_, ok := hierarchy[g]
	return ok
}

// Meets reports whether have ranks at or above at least one of required.
//
// Unknown names rank -1 on both sides: an unknown have never meets a known
// requirement, while an unknown requirement is met by any known group.
// Callers must only pass known required groups.
func Meets(have Group, required ...Group) bool {
	rank := Rank(have)
	for _, g := range required {
		if rank >= Rank(g) {
			return true
		}
	}
	return false
}

// ParseGroup resolves s to a known group, ignoring case and surrounding
// whitespace. Underscores and dashes may stand in for spaces.
func ParseGroup(s string) (Group, error) {
	norm := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))
	for _, g := range ordered {
		if strings.EqualFold(string(g), norm) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown group %q", s)
}

func (g Group) String() string {
	return string(g)
}
