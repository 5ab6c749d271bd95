package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hubcli/internal/client/views"
)

// clearValue is the answer that empties an optional field.
const clearValue = "-"

// prompt asks for a value showing the current one; an empty answer keeps it.
func (a *App) prompt(label, current string) (string, error) {
	p := label
	if current != "" {
		p += " [" + current + "]"
	}
	v, err := getSimpleText(a.reader, p, a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	return v, nil
}

// promptOptional is prompt for a field that may be emptied with clearValue.
func (a *App) promptOptional(label, current string) (string, error) {
	v, err := a.prompt(label+" ('"+clearValue+"' to clear)", current)
	if err != nil {
		return "", err
	}
	if v == clearValue {
		return "", nil
	}
	return v, nil
}

// EditProfile walks through the own-profile form and saves it.
func (a *App) EditProfile(ctx context.Context) error {
	v := views.NewEditProfile(a.session, a.profiles)
	defer v.Close()

	if v.Redirect() {
		fmt.Fprintln(a.out, "Please log in first.")
		return nil
	}

	var err error
	if v.Name, err = a.prompt("Full name", v.Name); err != nil {
		return err
	}
	if v.Username, err = a.prompt("Username", v.Username); err != nil {
		return err
	}
	if v.Bio, err = a.promptOptional("Bio", v.Bio); err != nil {
		return err
	}
	if v.Nationality, err = a.promptOptional("Nationality", v.Nationality); err != nil {
		return err
	}

	public, err := a.prompt("Public profile (y/n)", yesNo(v.Public))
	if err != nil {
		return err
	}
	v.Public = strings.HasPrefix(strings.ToLower(public), "y")

	picture, err := getSimpleText(a.reader, "Profile picture file (empty to keep, '"+clearValue+"' to remove)", a.out)
	if err != nil {
		return err
	}
	switch picture {
	case "":
	case clearValue:
		v.RemoveAvatar()
	default:
		if err := v.LoadAvatar(picture); err != nil {
			fmt.Fprintln(a.out, errStyle.Render(err.Error()))
			return err
		}
	}

	v.Submit(ctx)
	if n := renderNotice(v.Notice); n != "" {
		fmt.Fprintln(a.out, n)
	}
	return nil
}

// ShowProfile prints the public profile of a user given by id or username.
func (a *App) ShowProfile(ctx context.Context, key string) error {
	v := views.NewPublicProfile(a.session, a.profiles)
	defer v.Close()

	v.Load(ctx, key)

	switch {
	case v.Error != "":
		fmt.Fprintln(a.out, errStyle.Render(v.Error))
	case v.BanOnly:
		fmt.Fprintln(a.out, titleStyle.Render("This user is banned."))
		fmt.Fprint(a.out, renderBan(v.Profile.BannedUntil, v.Profile.BanReason))
	case v.Profile != nil:
		fmt.Fprintln(a.out, renderProfile(*v.Profile, v.CanSeeFullInfo(), v.Banned))
		if v.IsOwner() {
			fmt.Fprintln(a.out, dimStyle.Render("This is your profile. Use 'profile edit' to change it."))
		}
	}
	return nil
}
