package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/quickqr/internal/client/api"
	"github.com/dmitrijs2005/quickqr/internal/client/records"
	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
)

var (
	headColor = color.New(color.FgCyan, color.Bold)
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
	noteColor = color.New(color.FgYellow)
)

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) success(format string, args ...any) {
	okColor.Fprintf(a.out, format+"\n", args...)
}

// fail prints the user-facing description of err and returns err.
func (a *App) fail(err error) error {
	errColor.Fprintln(a.out, "Error: "+describe(err))
	return err
}

// describe turns a store or validation error into a message for the user.
func describe(err error) string {
	var prefix string
	switch {
	case errors.Is(err, api.ErrDeleteFailed):
		prefix = "could not delete the QR code: "
	case errors.Is(err, api.ErrLoadFailed):
		prefix = "could not load history: "
	}
	return prefix + reason(err)
}

func reason(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}

	var he *api.HTTPError
	switch {
	case errors.Is(err, api.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, api.ErrUsernameTaken):
		return "username is already taken"
	case errors.Is(err, api.ErrEmailTaken):
		return "email is already registered"
	case errors.Is(err, api.ErrConflict):
		return "already exists"
	case errors.Is(err, api.ErrAuthRejected):
		return "session expired, please sign in again"
	case errors.Is(err, api.ErrValidation) && errors.As(err, &he) && he.Message != "":
		return "rejected by server: " + he.Message
	case errors.Is(err, api.ErrValidation):
		return "rejected by server"
	case errors.Is(err, api.ErrNetwork):
		return "cannot reach the server"
	case errors.Is(err, api.ErrOperationInProgress):
		return "another sign-in is already in progress"
	case errors.Is(err, api.ErrNoSession):
		return "sign in first"
	case errors.Is(err, api.ErrNotFound):
		return "not found"
	default:
		return "unexpected error: " + err.Error()
	}
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return "email must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "eqfield":
		return "passwords do not match"
	case "url":
		return "url must be an absolute URL, for example https://example.com"
	default:
		return name + " is invalid"
	}
}

// printRecords renders rs as a table. Estimated creation times are marked
// with "~".
func printRecords(w io.Writer, rs []records.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCREATED\tSCANS\tURL")
	for _, r := range rs {
		created := r.CreatedAt.In(time.Local).Format("2006-01-02 15:04")
		if r.CreatedAtEstimated {
			created = "~" + created
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Type, created, r.Scans, r.URL)
	}
	tw.Flush()
}
