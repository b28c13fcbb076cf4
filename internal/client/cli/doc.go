// Package cli provides the interactive shopkeeper command-line client.
//
// It wires configuration and the AuthService client into a small REPL:
// register, login, whoami, verify, logout. The REPL is started via
// App.Run(ctx), which blocks until the user exits or stdin closes.
package cli
