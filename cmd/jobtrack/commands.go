package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/sakif/jobtrack/internal/apiclient"
	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/tracker"
	"github.com/sakif/jobtrack/internal/view"
)

// app holds what every command needs: the API client, the store in front
// of it, and the session file to keep in sync.
type app struct {
	client      *apiclient.Client
	store       *tracker.Store
	session     session
	sessionPath string
	stdout      io.Writer
	stderr      io.Writer
}

func newApp(baseURL string, sess session, path string, stdout, stderr io.Writer, debug bool) *app {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a := &app{
		session:     sess,
		sessionPath: path,
		stdout:      stdout,
		stderr:      stderr,
	}
	a.client = apiclient.New(baseURL,
		apiclient.WithTokens(sess.Tokens),
		apiclient.OnTokenRefresh(a.rememberTokens),
	)
	a.store = tracker.New(a.client, terminalNotifier{w: stderr}, logger)
	return a
}

// rememberTokens persists tokens whenever the client refreshes or clears
// them. A write failure only costs a re-login, so it is reported and
// otherwise ignored.
func (a *app) rememberTokens(t model.TokenPair) {
	a.session.Tokens = t
	if err := a.session.save(a.sessionPath); err != nil {
		fmt.Fprintf(a.stderr, "warning: %v\n", err)
	}
}

type command func(ctx context.Context, args []string) error

func (a *app) commands() map[string]command {
	return map[string]command{
		"register": a.register,
		"login":    a.login,
		"logout":   a.logout,
		"whoami":   a.whoami,
		"list":     a.list,
		"board":    a.board,
		"stats":    a.stats,
		"add":      a.add,
		"edit":     a.edit,
		"show":     a.show,
		"move":     a.move,
		"rm":       a.remove,
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse parses args and checks the number of positional arguments.
func parse(fs *flag.FlagSet, args []string, positional int) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != positional {
		fmt.Fprintf(fs.Output(), "%s: expected %d argument(s), got %d\n", fs.Name(), positional, fs.NArg())
		return errUsage
	}
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid application id %q", raw)
	}
	return id, nil
}

// =========================================================================
// SESSION
// =========================================================================

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	var req apiclient.RegisterRequest
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.Password, "password", "", "password")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	req.Password2 = req.Password

	user, err := a.client.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "registered %s, now run: jobtrack login -email %s\n", user.Email, user.Email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	// The client reports the new tokens to rememberTokens.
	if _, err := a.client.Login(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "signed in as %s\n", *email)
	return nil
}

func (a *app) logout(ctx context.Context, args []string) error {
	if err := parse(a.flags("logout"), args, 0); err != nil {
		return err
	}
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "signed out")
	return nil
}

func (a *app) whoami(ctx context.Context, args []string) error {
	if err := parse(a.flags("whoami"), args, 0); err != nil {
		return err
	}
	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s %s <%s>, joined %s\n",
		user.FirstName, user.LastName, user.Email, user.DateJoined.Format("Jan 2, 2006"))
	return nil
}

// =========================================================================
// VIEWS
// =========================================================================

// listFilter applies the list flags on top of the previous filter. Only
// flags that were set override it; -toggle applies the column-header rule.
func listFilter(prev view.FilterState, args []string, output io.Writer) (view.FilterState, error) {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.String("search", "", "match company or position")
	fs.String("status", "", "all or one status")
	fs.String("sort", "", "date, company or status")
	fs.String("dir", "", "asc or desc")
	toggle := fs.String("toggle", "", "toggle sort on date, company or status")
	reset := fs.Bool("reset", false, "start from the default filter")
	if err := parse(fs, args, 0); err != nil {
		return view.FilterState{}, err
	}

	base := prev
	if *reset || base.SortKey == "" {
		base = view.DefaultFilter()
	}
	q := base.Values()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "search", "status", "sort", "dir":
			q.Set(f.Name, f.Value.String())
		}
	})

	f, err := view.ParseFilter(q)
	if err != nil {
		return view.FilterState{}, err
	}
	if *toggle != "" {
		key := view.SortKey(*toggle)
		if !key.Valid() {
			return view.FilterState{}, fmt.Errorf("cannot toggle %q: sort must be one of date, company, status", *toggle)
		}
		f = f.ToggleSort(key)
	}
	return f, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	f, err := listFilter(a.session.Filter, args, a.stderr)
	if err != nil {
		return err
	}
	if err := a.store.Load(ctx); err != nil {
		return err
	}

	a.session.Filter = f
	if err := a.session.save(a.sessionPath); err != nil {
		fmt.Fprintf(a.stderr, "warning: %v\n", err)
	}

	renderList(a.stdout, a.store.View(f), f, len(a.store.Snapshot()))
	return nil
}

func (a *app) board(ctx context.Context, args []string) error {
	if err := parse(a.flags("board"), args, 0); err != nil {
		return err
	}
	if err := a.store.Load(ctx); err != nil {
		return err
	}
	renderBoard(a.stdout, a.store.Board(view.DefaultFilter()))
	return nil
}

func (a *app) stats(ctx context.Context, args []string) error {
	if err := parse(a.flags("stats"), args, 0); err != nil {
		return err
	}
	if err := a.store.Load(ctx); err != nil {
		return err
	}
	renderStats(a.stdout, a.store.Analytics())
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := a.flags("show")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := a.store.Load(ctx); err != nil {
		return err
	}
	rec, ok := a.store.Get(id)
	if !ok {
		return fmt.Errorf("application %d not found", id)
	}
	renderApplication(a.stdout, rec)
	return nil
}

// =========================================================================
// MUTATIONS
// =========================================================================

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.flags("add")
	var in model.ApplicationInput
	var status string
	fs.StringVar(&in.Company, "company", "", "company name")
	fs.StringVar(&in.Position, "position", "", "position title")
	fs.StringVar(&status, "status", string(model.StatusApplied), "initial status")
	fs.StringVar(&in.AppliedDate, "date", time.Now().Format(model.DateLayout), "applied date, YYYY-MM-DD")
	fs.StringVar(&in.URL, "url", "", "job posting URL")
	fs.StringVar(&in.Notes, "notes", "", "free-form notes")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	in.Status = model.Status(status)

	created, err := a.store.Create(ctx, in)
	if err != nil {
		return err
	}
	renderApplication(a.stdout, *created)
	return nil
}

// editPatch builds a patch from the flags that were set; unset flags leave
// their field unchanged.
func editPatch(args []string, output io.Writer) (int64, model.ApplicationPatch, error) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.String("company", "", "company name")
	fs.String("position", "", "position title")
	fs.String("status", "", "status")
	fs.String("date", "", "applied date, YYYY-MM-DD")
	fs.String("url", "", "job posting URL")
	fs.String("notes", "", "free-form notes")

	// Accept the id before or after the flags.
	var idArg string
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		idArg, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return 0, model.ApplicationPatch{}, errUsage
	}
	if idArg == "" && fs.NArg() == 1 {
		idArg = fs.Arg(0)
	} else if fs.NArg() != 0 || idArg == "" {
		fmt.Fprintln(output, "edit: expected exactly one application id")
		return 0, model.ApplicationPatch{}, errUsage
	}
	id, err := parseID(idArg)
	if err != nil {
		return 0, model.ApplicationPatch{}, err
	}

	var patch model.ApplicationPatch
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "company":
			patch.Company = &v
		case "position":
			patch.Position = &v
		case "status":
			s := model.Status(v)
			patch.Status = &s
		case "date":
			patch.AppliedDate = &v
		case "url":
			patch.URL = &v
		case "notes":
			patch.Notes = &v
		}
	})
	if patch.Empty() {
		return 0, model.ApplicationPatch{}, errors.New("edit: nothing to change, pass at least one flag")
	}
	return id, patch, nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	id, patch, err := editPatch(args, a.stderr)
	if err != nil {
		return err
	}
	updated, err := a.store.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	renderApplication(a.stdout, *updated)
	return nil
}

// move runs a full kanban drag of one card onto a column.
func (a *app) move(ctx context.Context, args []string) error {
	fs := a.flags("move")
	if err := parse(fs, args, 2); err != nil {
		return err
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	target, err := model.ParseStatus(fs.Arg(1))
	if err != nil {
		return err
	}

	if err := a.store.Load(ctx); err != nil {
		return err
	}
	current, ok := a.store.Get(id)
	if !ok {
		return fmt.Errorf("application %d not found", id)
	}

	moved, err := a.store.DragSession().Move(ctx, id, target)
	if err != nil {
		return err
	}
	if moved == nil {
		fmt.Fprintf(a.stdout, "%s is already in %s\n", current.Company, target.Info().Label)
		return nil
	}
	fmt.Fprintf(a.stdout, "%s: %s → %s\n", moved.Company, current.Status.Info().Label, moved.Status.Info().Label)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := a.flags("rm")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "deleted application %d\n", id)
	return nil
}
