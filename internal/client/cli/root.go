package cli

import (
	"bufio"
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if u := a.store.User(); u != nil {
		s = u.Email + " "
	} else if a.isLoggedIn() {
		s = "signed in "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s) ", s)
	}
	return s + string(a.Route()) + " "
}

// Root prints the welcome banner, starts the connectivity watcher and runs
// the REPL on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to the jobportal CLI (type 'help' for commands)")
	if u := a.store.User(); u != nil {
		fmt.Fprintf(a.out, "Resumed session for %s (%s)\n", u.DisplayName(), u.Role)
	}

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
