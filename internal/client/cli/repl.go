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
	verificationPending() bool
	canModerate() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Resend(ctx context.Context) error
	Verified(ctx context.Context, status string) error
	EditProfile(ctx context.Context) error
	ShowProfile(ctx context.Context, key string) error
	AdminSearch(ctx context.Context, query string) error
	AdminBan(ctx context.Context, id string) error
	AdminUnban(ctx context.Context, id string) error
	AdminGroup(ctx context.Context, id, group string) error
}

// Commands accepted while the verification prompt is open. "verified"
// stands for following the emailed link, which reloads the account.
var verifyCommands = map[string]bool{
	"resend": true, "verified": true, "logout": true, "whoami": true, "help": true, "exit": true, "quit": true,
}

// runREPL starts a simple read–eval–print loop for the hub CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                       show available commands
//	  - register                   create an account
//	  - login                      authenticate
//	  - verified <status>          show the result of a verification link
//	  - profile show <id|username> show a public profile
//	  - exit | quit                leave the program
//
//	Logged in:
//	  - whoami                     show the signed-in account
//	  - profile edit               edit the own profile
//	  - profile show <id|username> show a public profile
//	  - logout                     log out
//
//	Staff:
//	  - admin search <id|username>
//	  - admin ban <id>
//	  - admin unban <id>
//	  - admin group <id> <group>
//
// While the email address is unverified only resend, verified, logout,
// whoami, help and exit are accepted.
//
// Any errors returned by command handlers are ignored here; handlers print
// their own messages. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("hub %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if a.verificationPending() && !verifyCommands[cmd] {
			printlnFn("Please verify your email address first. Available commands: resend, verified <status>, logout, whoami, help, exit")
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpText(a))

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "verified":
			if len(args) != 1 {
				printlnFn("Usage: verified <status>")
				continue
			}
			_ = a.Verified(ctx, args[0])

		case "profile":
			switch {
			case len(args) == 1 && args[0] == "edit":
				_ = a.EditProfile(ctx)
			case len(args) == 2 && args[0] == "show":
				_ = a.ShowProfile(ctx, args[1])
			default:
				printlnFn("Usage: profile edit | profile show <id|username>")
			}

		case "admin":
			runAdmin(ctx, a, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func runAdmin(ctx context.Context, a execIface, args []string) {
	if len(args) == 0 {
		printlnFn(adminUsage)
		return
	}
	sub, rest := args[0], args[1:]

	switch {
	case sub == "search" && len(rest) > 0:
		_ = a.AdminSearch(ctx, strings.Join(rest, " "))
	case sub == "ban" && len(rest) == 1:
		_ = a.AdminBan(ctx, rest[0])
	case sub == "unban" && len(rest) == 1:
		_ = a.AdminUnban(ctx, rest[0])
	case sub == "group" && len(rest) >= 2:
		// group names contain spaces: "admin group 7 Senior Support"
		_ = a.AdminGroup(ctx, rest[0], strings.Join(rest[1:], " "))
	default:
		printlnFn(adminUsage)
	}
}

const adminUsage = "Usage: admin search <id|username> | admin ban <id> | admin unban <id> | admin group <id> <group>"

func helpText(a execIface) string {
	switch {
	case a.verificationPending():
		return "Available commands: resend, verified <status>, logout, whoami, exit"
	case !a.isLoggedIn():
		return "Available commands: register, login, verified <status>, profile show <id|username>, exit"
	case a.canModerate():
		return "Available commands: whoami, profile edit, profile show <id|username>, admin search|ban|unban|group, logout, exit"
	default:
		return "Available commands: whoami, profile edit, profile show <id|username>, logout, exit"
	}
}
