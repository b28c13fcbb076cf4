package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/client/client"
	"github.com/dmitrijs2005/shopkeeper/internal/client/config"
)

// AuthClient is the client surface the commands need.
type AuthClient interface {
	Register(ctx context.Context, r client.Registration) (*client.Session, error)
	Login(ctx context.Context, email string, password []byte) (*client.Session, error)
	VerifyToken(ctx context.Context, token string) (*client.TokenInfo, error)
	WhoAmI(ctx context.Context) (map[string]any, error)
	CurrentToken() string
	LoggedIn() bool
	Logout()
	Close() error
}

type App struct {
	config   *config.Config
	auth     AuthClient
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config) (*App, error) {
	ac, err := client.NewAuthClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return newApp(c, ac, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, ac AuthClient, in io.Reader, out io.Writer) *App {
	return &App{config: c, auth: ac, reader: bufio.NewReader(in), out: out}
}

// Run blocks in the REPL and closes the connection on return.
func (a *App) Run(ctx context.Context) {
	defer a.auth.Close()

	fmt.Fprintln(a.out, "Welcome to shopkeeper CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}

func (a *App) isLoggedIn() bool {
	return a.auth.LoggedIn()
}

func (a *App) status() string {
	if a.userName == "" {
		return ""
	}
	return "(" + a.userName + ")"
}

func (a *App) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := a.config.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
