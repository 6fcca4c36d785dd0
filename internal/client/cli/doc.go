// Package cli provides the interactive jobportal command-line client.
//
// It wires configuration, the SQLite-backed session store, the API client and
// an interactive REPL. Typical flow: restore the previous session, start a
// background connectivity watcher, and execute user commands.
//
// Key features:
//   - Signup and account verification for seekers and employers
//   - Login with a password step followed by a one-time code
//   - Forgotten password request and reset from the emailed token
//   - Whoami / Logout
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
