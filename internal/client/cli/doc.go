// Package cli provides the interactive QuickQR terminal client.
//
// It wires configuration, the local credential database, the REST backend
// client and the session and records stores, then runs a REPL on top of
// them. Every command belongs to a view, and every view sits behind a guard:
// commands of a protected view only run for a signed-in user, commands of a
// guest view only for an anonymous one. A protected view stays mounted
// between commands and reacts immediately when the session ends.
//
// Commands:
//   - register, login            (guest)
//   - generate, stats            (dashboard, protected)
//   - history [tag], today       (history, protected)
//   - delete <id>, reload        (history, protected)
//   - logout, whoami, help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
