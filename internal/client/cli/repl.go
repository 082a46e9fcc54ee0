package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Refresh(ctx context.Context) error
	Profile(ctx context.Context) error
	Passwd(ctx context.Context) error
	Users(ctx context.Context) error
	User(ctx context.Context, id string) error
	Roles(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, active bool) error
	SetRoles(ctx context.Context, id string, names []string) error
	AddClaim(ctx context.Context, id, claimType, value string) error
	Logout(ctx context.Context) error
}

var usage = map[string]string{
	"user":       "Usage: user <id>",
	"roles":      "Usage: roles <id>",
	"activate":   "Usage: activate <id>",
	"deactivate": "Usage: deactivate <id>",
	"setroles":   "Usage: setroles <id> <role>[,<role>...]",
	"addclaim":   "Usage: addclaim <id> <type> <value>",
}

// arity lists commands that take more than one argument.
var arity = map[string]int{
	"setroles": 2,
	"addclaim": 3,
}

// runREPL starts a read-eval-print loop over reader.
//
// The first word of a line selects the command, the remaining words are its
// arguments. Prompts issued by commands read from the same reader. The loop
// exits on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - register, login, help, exit | quit
//
//	Logged in:
//	  - profile       : change own name and phone
//	  - passwd        : change own password
//	  - refresh       : rotate the token pair
//	  - users         : list users
//	  - user <id>     : show a single user
//	  - roles <id>    : show a user's role matrix
//	  - activate <id> | deactivate <id>
//	  - setroles <id> <role>[,<role>...]
//	  - addclaim <id> <type> <value>
//	  - logout, help, exit | quit
//
// Rejections are reported by the commands themselves; other errors are
// printed here and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ga %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if want, ok := usage[cmd]; ok {
			n, ok := arity[cmd]
			if !ok {
				n = 1
			}
			if len(args) != n {
				printlnFn(want)
				continue
			}
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: profile, passwd, refresh, users, user, roles, activate, deactivate, setroles, addclaim, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "refresh":
			cmdErr = a.Refresh(ctx)

		case "profile":
			cmdErr = a.Profile(ctx)

		case "passwd":
			cmdErr = a.Passwd(ctx)

		case "users":
			cmdErr = a.Users(ctx)

		case "user":
			cmdErr = a.User(ctx, args[0])

		case "roles":
			cmdErr = a.Roles(ctx, args[0])

		case "activate", "deactivate":
			cmdErr = a.SetStatus(ctx, args[0], cmd == "activate")

		case "setroles":
			cmdErr = a.SetRoles(ctx, args[0], strings.Split(args[1], ","))

		case "addclaim":
			cmdErr = a.AddClaim(ctx, args[0], args[1], args[2])

		case "logout":
			cmdErr = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil && !errors.Is(cmdErr, errRejected) {
			printlnFn("error:", cmdErr)
		}
	}
}
