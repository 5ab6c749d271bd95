package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/client/views"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// badge renders g in its group colours.
func badge(g privilege.Group) string {
	if g == "" {
		return ""
	}
	p := views.GroupColor(g)
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(p.From)).
		BorderForeground(lipgloss.Color(p.To)).
		Padding(0, 1).
		Render(string(g))
}

func renderNotice(n views.Notice) string {
	switch n.Kind {
	case views.NoticeSuccess:
		return okStyle.Render(n.Text)
	case views.NoticeError:
		return errStyle.Render(n.Text)
	default:
		return ""
	}
}

// field renders one "label: value" line, or nothing for an empty value.
func field(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s %s\n", dimStyle.Render(label+":"), value)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func renderIdentity(u models.Identity, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(u.Handle()), badge(u.Group))
	field(&b, "ID", fmt.Sprint(u.ID))
	field(&b, "Name", u.Name)
	field(&b, "Email", u.Email)
	if u.Verified() {
		field(&b, "Verified", formatTime(u.EmailVerifiedAt))
	} else {
		field(&b, "Verified", "no")
	}
	field(&b, "Bio", models.Deref(u.Bio))
	field(&b, "Nationality", models.Deref(u.Nationality))
	field(&b, "Picture", models.Deref(u.ProfilePictureURL))
	field(&b, "Public profile", yesNo(u.IsProfilePublic))
	if u.IsBannedAt(now) {
		b.WriteString(renderBan(u.BannedUntil, u.BanReason))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderProfile prints p. Name and email are only printed with full info.
func renderProfile(p models.Profile, fullInfo, banned bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(p.Username), badge(p.Group))
	field(&b, "ID", fmt.Sprint(p.ID))
	if fullInfo {
		field(&b, "Name", models.Deref(p.Name))
		field(&b, "Email", models.Deref(p.Email))
	}
	field(&b, "Bio", models.Deref(p.Bio))
	field(&b, "Nationality", models.Deref(p.Nationality))
	field(&b, "Picture", models.Deref(p.ProfilePictureURL))
	if banned {
		b.WriteString(renderBan(p.BannedUntil, p.BanReason))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBan(until *time.Time, reason *string) string {
	line := "Banned until " + formatTime(until)
	if r := models.Deref(reason); r != "" {
		line += ". Reason: " + r
	}
	return "  " + errStyle.Render(line) + "\n"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
