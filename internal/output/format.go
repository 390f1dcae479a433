// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"todo/internal/service"
)

const (
	// AppTitle is printed in the header line.
	AppTitle = "TodoApp"

	// Separator is the rule printed under headers and between tasks.
	Separator = "------------"

	// DisplayDateLayout is the short date form used for due and created dates.
	DisplayDateLayout = "Jan 2, 2006"
)

// FormatDate formats t for display. The zero time formats as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// FormatHeader writes the app header, with the user's name when logged in.
func FormatHeader(w io.Writer, user *service.User) {
	if user == nil {
		fmt.Fprintln(w, AppTitle)
	} else {
		fmt.Fprintf(w, "%s  %s\n", AppTitle, normalizeTitle(user.Name))
	}
	fmt.Fprintln(w, Separator)
}

// FormatTask writes one task block:
//
//	Buy milk [Pending]
//	    two litres
//	    Due: Jan 5, 2024
//	    Created: Jan 1, 2024
func FormatTask(w io.Writer, task service.Task) {
	status := "Pending"
	if task.IsCompleted {
		status = "Completed"
	}
	fmt.Fprintf(w, "%s [%s]\n", normalizeTitle(task.Title), status)

	if desc := strings.TrimSpace(task.Description); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "    %s\n", strings.TrimRight(line, "\r"))
		}
	}
	if task.HasDueDate() {
		fmt.Fprintf(w, "    Due: %s\n", FormatDate(task.DueDate.Time))
	}
	if created := FormatDate(task.CreatedAt); created != "" {
		fmt.Fprintf(w, "    Created: %s\n", created)
	}
}

// FormatUser writes a user record for the whoami and user commands.
func FormatUser(w io.Writer, user service.User) {
	fmt.Fprintf(w, "id:    %s\n", user.ID)
	fmt.Fprintf(w, "name:  %s\n", user.Name)
	fmt.Fprintf(w, "email: %s\n", user.Email)
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
