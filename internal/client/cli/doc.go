// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration, the gRPC identity client and a small REPL. Users
// can register, log in and manage their own profile; holders of the
// administrator permissions can also list users, toggle their status and
// edit their roles.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
