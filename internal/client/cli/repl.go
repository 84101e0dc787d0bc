package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	navigate(ctx context.Context, r route) bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Generate(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
	History(ctx context.Context, args []string) error
	Today(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Reload(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
}

// runREPL starts a read–eval–print loop for the QuickQR client.
//
// It reads a line from in, parses the first token as the command, and
// dispatches to methods on a. Commands bound to a view in routes run only
// when the view's guard renders. The loop exits on EOF or when the user
// types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "qr %s> ", statusFn())
		parts, err := readCommand(in)
		if err != nil {
			fmt.Fprintln(out)
			return
		}
		cmd, args := parts[0], parts[1:]

		if r, ok := routes[cmd]; ok && !a.navigate(ctx, r) {
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, "Available commands: generate [url] [name], stats, history [tag], today, delete <id>, download <id> [path], reload, whoami, logout, exit")
			} else {
				fmt.Fprintln(out, "Available commands: register, login, whoami, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "generate":
			_ = a.Generate(ctx, args)

		case "stats":
			_ = a.Stats(ctx)

		case "history":
			_ = a.History(ctx, args)

		case "today":
			_ = a.Today(ctx)

		case "delete":
			_ = a.Delete(ctx, args)

		case "download":
			_ = a.Download(ctx, args)

		case "reload":
			_ = a.Reload(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}
	}
}
