package cli

import (
	"context"

	"github.com/dmitrijs2005/quickqr/internal/client/api"
	"github.com/dmitrijs2005/quickqr/internal/client/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username, email, password and its confirmation,
// checks them locally and creates the account. On success the new user is
// signed in.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password (at least 6 characters)", a.out)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Confirm password", a.out)
	if err != nil {
		return err
	}

	form := registerForm{Username: username, Email: email, Password: password, Confirm: confirm}
	if err := a.check(form); err != nil {
		return a.fail(err)
	}

	if err := a.sessions.Register(ctx, api.Profile{Username: username, Email: email, Password: form.Password}); err != nil {
		return a.fail(err)
	}

	a.success("Welcome, %s!", username)
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	form := loginForm{Email: email, Password: password}
	if err := a.check(form); err != nil {
		return a.fail(err)
	}

	if err := a.sessions.Login(ctx, email, form.Password); err != nil {
		return a.fail(err)
	}

	name := email
	if u := a.sessions.Snapshot().User; u != nil && u.Username != "" {
		name = u.Username
	}
	a.success("Signed in as %s", name)
	return nil
}

// Logout ends the session locally.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		noteColor.Fprintln(a.out, "Not signed in")
		return nil
	}
	a.sessions.Logout(ctx)
	a.success("Signed out")
	return nil
}

// WhoAmI prints the current user.
func (a *App) WhoAmI(ctx context.Context) error {
	st := a.sessions.Snapshot()
	switch st.Status {
	case session.StatusAuthenticated:
		a.printf("%s <%s> (id %s)\n", st.User.Username, st.User.Email, st.User.ID)
	case session.StatusAnonymous:
		a.printf("Not signed in\n")
	default:
		a.printf("Session is still being restored\n")
	}
	return nil
}
