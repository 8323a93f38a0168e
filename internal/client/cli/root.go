package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	userID, err := a.session.UserID()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("(%s)", userID)
}

func (a *App) Root(ctx context.Context) {

	fmt.Fprintln(a.out, "Welcome to AuthBridge CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "abr %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			fmt.Fprintln(a.out, "Available commands: login, whoami, headers, logout, exit")
		case "login":
			a.Login(ctx)
		case "whoami":
			a.Whoami(ctx)
		case "headers":
			a.Headers(ctx)
		case "logout":
			a.Logout(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}

}
