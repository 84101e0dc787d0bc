package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/quickqr/internal/client/api"
	"github.com/dmitrijs2005/quickqr/internal/client/config"
	"github.com/dmitrijs2005/quickqr/internal/client/guard"
	"github.com/dmitrijs2005/quickqr/internal/client/records"
	"github.com/dmitrijs2005/quickqr/internal/client/session"
	"github.com/dmitrijs2005/quickqr/internal/client/storage"
	"github.com/dmitrijs2005/quickqr/internal/logging"
	"github.com/go-playground/validator/v10"
)

// sessionService is the session store surface used by the commands.
type sessionService interface {
	session.Reader
	Authenticated() bool
	Restore(ctx context.Context)
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, profile api.Profile) error
	Logout(ctx context.Context)
}

// recordService is the records store surface used by the commands.
type recordService interface {
	State() records.State
	Load(ctx context.Context) error
	Create(ctx context.Context, req api.GenerateRequest) (records.Record, error)
	Delete(ctx context.Context, id string) error
	Counts() records.Counts
	Filtered(tag string) []records.Record
	Today() []records.Record
}

// imageSource fetches QR images by URL.
type imageSource interface {
	Image(ctx context.Context, url string) ([]byte, error)
}

type App struct {
	sessions sessionService
	records  recordService
	images   imageSource
	reader   *bufio.Reader
	out      io.Writer
	log      logging.Logger
	validate *validator.Validate
	policy   guard.Policy

	mu   sync.Mutex
	path string
	view *guard.View

	closers []func() error
}

// NewApp opens the credential database and builds the stores from c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	log = logging.OrDiscard(log)

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	backend := api.NewRESTClient(c.ServerBaseURL, c.RequestTimeout)
	sessions := session.NewStore(backend, storage.NewSQLiteCredentialStore(db), log)
	backend.SetTokenSource(sessions.TokenSource())

	recs := records.NewStore(backend, sessions, log)
	unbind := records.BindSession(ctx, sessions, recs)

	a := newApp(sessions, recs, bufio.NewReader(os.Stdin), os.Stdout, log)
	a.images = backend
	a.closers = append(a.closers,
		func() error { unbind(); return nil },
		db.Close,
	)
	return a, nil
}

func newApp(sessions sessionService, recs recordService, in *bufio.Reader, out io.Writer, log logging.Logger) *App {
	return &App{
		sessions: sessions,
		records:  recs,
		reader:   in,
		out:      out,
		log:      logging.OrDiscard(log).With("component", "cli"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		policy:   guard.DefaultPolicy,
	}
}

// Run restores the previous session and serves the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	headColor.Fprintln(a.out, "QuickQR client (type 'help' for commands)")
	a.sessions.Restore(ctx)
	if a.isLoggedIn() {
		a.navigate(ctx, routes["stats"])
	} else {
		a.navigate(ctx, routes["login"])
	}

	runREPL(ctx, a, a.status, a.reader, a.out)
}

// Close unmounts the current view and releases the database.
func (a *App) Close() error {
	a.mu.Lock()
	if a.view != nil {
		a.view.Unmount()
		a.view = nil
	}
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for _, c := range closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Authenticated()
}

// status renders the prompt suffix: the signed-in user and the current view.
func (a *App) status() string {
	st := a.sessions.Snapshot()

	a.mu.Lock()
	path := a.path
	a.mu.Unlock()

	switch {
	case st.User != nil && path != "":
		return fmt.Sprintf("(%s %s)", st.User.Username, path)
	case st.User != nil:
		return fmt.Sprintf("(%s)", st.User.Username)
	case path != "":
		return fmt.Sprintf("(%s)", path)
	default:
		return ""
	}
}
