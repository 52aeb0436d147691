package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kurbezz/shared-lists/internal/cli/api"
)

// JSON prints v as indented JSON to stdout.
func JSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func PageTable(pages []api.Page) {
	if len(pages) == 0 {
		fmt.Println("No pages found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tACCESS\tPUBLIC\tMODIFIED")
	for _, p := range pages {
		public := "-"
		if p.PublicSlug != nil {
			public = *p.PublicSlug
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Title, Access(p), public, RelativeTime(p.UpdatedAt))
	}
	w.Flush()
}

func PageDetail(p api.Page, lists []api.List) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Title:\t%s\n", p.Title)
	fmt.Fprintf(w, "ID:\t%s\n", p.ID)
	if p.Description != nil {
		fmt.Fprintf(w, "Description:\t%s\n", *p.Description)
	}
	fmt.Fprintf(w, "Access:\t%s\n", Access(p))
	if p.PublicSlug != nil {
		fmt.Fprintf(w, "Public slug:\t%s\n", *p.PublicSlug)
	}
	fmt.Fprintf(w, "Created:\t%s\n", p.CreatedAt.Format(time.RFC3339))
	w.Flush()

	for _, l := range lists {
		fmt.Println()
		fmt.Printf("%s  %s\n", l.Title, Progress(l))
		for _, item := range l.Items {
			fmt.Printf("  %s %s\n", Checkbox(l, item), item.Content)
		}
	}
}

func ListTable(lists []api.List) {
	if len(lists) == 0 {
		fmt.Println("No lists found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tID\tTITLE\tCHECKBOXES\tPROGRESS")
	for _, l := range lists {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", l.Position, l.ID, l.Title, yesNo(l.ShowCheckboxes), yesNo(l.ShowProgress))
	}
	w.Flush()
}

func ItemTable(items []api.Item) {
	if len(items) == 0 {
		fmt.Println("No items found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tID\tDONE\tCONTENT")
	for _, item := range items {
		done := " "
		if item.Checked {
			done = "x"
		}
		fmt.Fprintf(w, "%d\t%s\t[%s]\t%s\n", item.Position, item.ID, done, item.Content)
	}
	w.Flush()
}

func PermissionTable(permissions []api.Permission) {
	if len(permissions) == 0 {
		fmt.Println("Not shared with anyone.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tACCESS\tGRANTED")
	for _, p := range permissions {
		user := p.UserID
		if p.User != nil {
			user = p.User.Username
		}
		access := "view"
		if p.CanEdit {
			access = "edit"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, user, access, RelativeTime(p.CreatedAt))
	}
	w.Flush()
}

func KeyTable(keys []api.APIKey) {
	if len(keys) == 0 {
		fmt.Println("No API keys.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPREFIX\tSCOPES\tSTATUS\tLAST USED")
	for _, k := range keys {
		name := "-"
		if k.Name != nil {
			name = *k.Name
		}
		status := "active"
		if k.Revoked {
			status = "revoked"
		}
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = RelativeTime(*k.LastUsedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", k.ID, name, k.Prefix, strings.Join(k.Scopes, ","), status, lastUsed)
	}
	w.Flush()
}

func UserInfo(u api.User) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Username:\t%s\n", u.Username)
	if u.DisplayName != nil {
		fmt.Fprintf(w, "Display name:\t%s\n", *u.DisplayName)
	}
	if u.Email != nil {
		fmt.Fprintf(w, "Email:\t%s\n", *u.Email)
	}
	fmt.Fprintf(w, "Twitch ID:\t%s\n", u.TwitchID)
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	w.Flush()
}

// Access describes the caller's relationship to a page.
func Access(p api.Page) string {
	switch {
	case p.IsCreator:
		return "owner"
	case p.CanEdit:
		return "edit"
	default:
		return "view"
	}
}

// Checkbox renders an item marker honouring the list's checkbox setting.
func Checkbox(l api.List, item api.Item) string {
	if !l.ShowCheckboxes {
		return "-"
	}
	if item.Checked {
		return "[x]"
	}
	return "[ ]"
}

// Progress renders "checked/total" or an empty string when the list hides it.
func Progress(l api.List) string {
	if !l.ShowProgress {
		return ""
	}
	checked := 0
	for _, item := range l.Items {
		if item.Checked {
			checked++
		}
	}
	return fmt.Sprintf("(%d/%d)", checked, len(l.Items))
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago", "3d ago").
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
