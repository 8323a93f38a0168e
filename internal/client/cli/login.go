package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authbridge/internal/common"
)

// openBrowserFn is a test seam for openBrowser.
var openBrowserFn = openBrowser

// Login drives the full handshake: initiate, send the human to the approval
// page, collect the code they read there, and complete the login.
func (a *App) Login(ctx context.Context) {

	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	info, err := a.session.Login(ctx, username, email)
	if err != nil {
		fmt.Fprintf(a.out, "Login failed: %v\n", err)
		return
	}

	fmt.Fprintf(a.out, "Approve this login at: %s\n", info.ApprovalURL)
	fmt.Fprintf(a.out, "The request expires at %s.\n", info.ExpiresAt.Format("15:04:05"))
	if err := openBrowserFn(info.ApprovalURL); err == nil {
		fmt.Fprintln(a.out, "(opened in your browser)")
	}

	code, err := GetOneTimeCode(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	defer common.WipeByteArray(code)

	if err := a.session.CompleteLogin(ctx, info.RequestID, string(code)); err != nil {
		switch {
		case errors.Is(err, common.ErrVerificationFailed):
			// surfaced verbatim: a mismatch here may be an attack, not a typo
			fmt.Fprintf(a.out, "SECURITY: %v\n", err)
		case errors.Is(err, common.ErrApprovalTimeout):
			fmt.Fprintln(a.out, "Approval timed out; run 'login' to try again.")
		default:
			fmt.Fprintf(a.out, "Login failed: %v\n", err)
		}
		return
	}

	userID, err := a.session.UserID()
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", userID)
}
