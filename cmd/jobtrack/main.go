// Command jobtrack is the terminal client for the jobtrack API.
//
//	jobtrack login -email you@example.com -password secret
//	jobtrack add -company Stripe -position "Backend Engineer"
//	jobtrack list -status interview -sort company
//	jobtrack list -toggle date
//	jobtrack board
//	jobtrack move 12 offer
//	jobtrack stats
//
// JOBTRACK_API_URL points at the API (default http://localhost:8080/api).
// JOBTRACK_SESSION overrides where tokens are kept.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"

	"github.com/sakif/jobtrack/internal/apperror"
	"github.com/sakif/jobtrack/internal/apiclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

const usage = `usage: jobtrack <command> [flags]

commands:
  register   create an account
  login      sign in and remember the session
  logout     revoke the session
  whoami     show the signed-in user
  list       list applications (-search, -status, -sort, -dir, -toggle)
  board      show the kanban board
  stats      show analytics
  show <id>  show one application and its pipeline progress
  add        add an application
  edit <id>  change fields of an application
  move <id> <status>
  rm <id>    delete an application
`

// errUsage is returned for a malformed command line; main prints usage.
var errUsage = errors.New("usage")

// run is main without the process: every dependency it needs from the
// environment is passed in so tests can drive it.
func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	path, err := sessionPath(getenv)
	if err != nil {
		return err
	}
	sess, err := loadSession(path)
	if err != nil {
		return err
	}

	baseURL := getenv("JOBTRACK_API_URL")
	if baseURL == "" {
		baseURL = apiclient.DefaultBaseURL
	}

	a := newApp(baseURL, sess, path, stdout, stderr, getenv("JOBTRACK_DEBUG") != "")

	cmd, rest := args[0], args[1:]
	handler, ok := a.commands()[cmd]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
	return handler(ctx, rest)
}

// printError renders validation failures field by field and everything
// else on one line.
func printError(w io.Writer, err error) {
	if errors.Is(err, errUsage) {
		return
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		fmt.Fprintf(w, "error: %s\n", apiErr.Message)
		printFields(w, apiErr.Fields)
		return
	}
	if fields := apperror.Fields(err); len(fields) > 0 {
		fmt.Fprintln(w, "error: invalid input")
		printFields(w, fields)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

func printFields(w io.Writer, fields map[string]string) {
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(w, "  %s: %s\n", field, fields[field])
	}
}
