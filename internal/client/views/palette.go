package views

import "github.com/dmitrijs2005/hubcli/internal/client/privilege"

// Palette is the two-stop colour of a group badge, as hex RGB.
type Palette struct {
	From string
	To   string
}

// GroupColor returns the badge colours of g. Unknown groups get grey.
func GroupColor(g privilege.Group) Palette {
	switch g {
	case privilege.Owner:
		return Palette{From: "#EF4444", To: "#F97316"}
	case privilege.Admin:
		return Palette{From: "#A855F7", To: "#EC4899"}
	case privilege.SeniorSupport:
		return Palette{From: "#3B82F6", To: "#06B6D4"}
	case privilege.Support:
		return Palette{From: "#22C55E", To: "#10B981"}
	case privilege.JuniorSupport:
		return Palette{From: "#EAB308", To: "#F97316"}
	case privilege.PremiumPlan:
		return Palette{From: "#6366F1", To: "#A855F7"}
	default:
		return Palette{From: "#6B7280", To: "#4B5563"}
	}
}
