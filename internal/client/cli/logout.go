package cli

import (
	"context"
	"fmt"
)

// Logout ends the session on the server and locally. Safe to call when not
// logged in.
func (a *App) Logout(ctx context.Context) {
	if err := a.session.Logout(ctx); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Logged out.")
}
