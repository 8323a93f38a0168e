// Package cli implements the interactive AuthBridge client: a small REPL
// that drives the login handshake, shows the current session, and ends it.
package cli
