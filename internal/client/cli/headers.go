package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/authbridge/internal/common"
)

// Headers prints the current authorization header set, refreshing the
// bearer token first when it is near expiry.
func (a *App) Headers(ctx context.Context) {
	headers, err := a.session.AuthHeaders(ctx)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotAuthenticated):
			fmt.Fprintln(a.out, "Not logged in.")
		case errors.Is(err, common.ErrRefreshFailed):
			fmt.Fprintln(a.out, "Session expired and could not be refreshed; run 'login' again.")
		default:
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
		return
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.out, "%s: %s\n", name, headers[name])
	}
}
