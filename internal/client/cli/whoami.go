package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authbridge/internal/common"
)

// Whoami prints the cached user id. It never touches the network.
func (a *App) Whoami(ctx context.Context) {
	userID, err := a.session.UserID()
	if err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			fmt.Fprintln(a.out, "Not logged in.")
			return
		}
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, userID)
}
